package disksched

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseTracks reads a track sequence, one integer per line. Blank lines are
// ignored.
func ParseTracks(r io.Reader) ([]int, error) {
	var (
		tracks  []int
		scanner = bufio.NewScanner(r)
		line    int
	)
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == `` {
			continue
		}
		track, err := strconv.Atoi(text)
		if err != nil {
			return nil, fmt.Errorf(`disksched: line %d: %w`, line, err)
		}
		if track < 0 {
			return nil, fmt.Errorf(`disksched: line %d: negative track %d`, line, track)
		}
		tracks = append(tracks, track)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf(`disksched: %w`, err)
	}
	return tracks, nil
}
