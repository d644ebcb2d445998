package greenthread

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// runRuntime creates a runtime with the given options, and runs it with fn
// as the bootstrap thread, failing the test if it does not complete within a
// reasonable time.
func runRuntime(t *testing.T, fn func(rt *Runtime), opts ...Option) (*Runtime, error) {
	t.Helper()

	rt, err := New(opts...)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- rt.Run(func(any) { fn(rt) }, nil)
	}()

	select {
	case err := <-done:
		return rt, err
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for runtime to exit")
		return nil, nil
	}
}

// mustRun is runRuntime, requiring a nil error, and that every spawned thread
// finished.
func mustRun(t *testing.T, fn func(rt *Runtime), opts ...Option) *Runtime {
	t.Helper()
	rt, err := runRuntime(t, fn, opts...)
	require.NoError(t, err)
	stats := rt.Stats()
	require.Equal(t, stats.Spawned, stats.Finished, "stats: %+v", stats)
	require.Zero(t, stats.Stranded)
	require.Zero(t, stats.Live)
	return rt
}
