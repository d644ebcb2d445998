// Package disksched simulates a disk scheduler, as a client of the
// greenthread runtime: requester threads each issue a sequence of track
// requests, one at a time, and a single dispatcher thread services them in
// Shortest-Seek-Time-First order.
//
// The dispatcher only services a request once the queue is full, where the
// capacity is the lesser of the configured maximum and the number of
// requesters that have not yet finished. The capacity shrinks as requesters
// finish, which is what allows the last requests to drain.
package disksched

import (
	"errors"

	"github.com/joeycumines/go-greenthread"
	"github.com/joeycumines/logiface"
)

type (
	// Threads is the subset of the [greenthread.Runtime] API the scheduler
	// depends on.
	Threads interface {
		Spawn(fn greenthread.ThreadFunc, arg any) (greenthread.ThreadID, error)
		Lock(key uint32) error
		Unlock(key uint32) error
		Wait(lockKey, condKey uint32) error
		Broadcast(lockKey, condKey uint32) error
	}

	// Config models optional configuration, for New.
	Config struct {
		// Logger receives an info event for each request and service, if
		// non-nil.
		Logger *logiface.Logger[logiface.Event]

		// OnRequest is called, with the lock held, as each request is queued.
		OnRequest func(req Request)

		// OnService is called, with the lock held, as each request is
		// serviced.
		OnService func(svc Service)

		// MaxQueue is the maximum number of queued requests.
		// **Defaults to 1, if 0, or Config is nil.**
		MaxQueue int

		// LockKey, RequesterCond and DispatcherCond are the runtime keys used
		// by the scheduler. They must be distinct from any other keys in use.
		// **Default to 1, 2 and 3 respectively, if all are 0, or Config is
		// nil.**
		LockKey        uint32
		RequesterCond  uint32
		DispatcherCond uint32
	}

	// Request is a single track request.
	Request struct {
		// Requester is the index of the source that issued the request.
		Requester int
		Track     int
		// Seq is the order in which the request was queued, starting at 0.
		Seq uint64
	}

	// Service describes the dispatch of a request.
	Service struct {
		// Queue is the queue, in arrival order, immediately prior to dispatch.
		Queue []Request
		Request
		// From is the track serviced previously, initially 0.
		From int
	}

	// Scheduler is the shared state of the simulation, all of which is
	// guarded by the LockKey lock. Instances must be initialized using the
	// New factory.
	Scheduler struct {
		threads   Threads
		cfg       Config
		err       error
		sources   [][]int
		queue     []Request
		pending   []bool // per requester, has a queued request
		seq       uint64
		live      int // requesters not yet finished
		lastTrack int
	}
)

// New initializes a new Scheduler, with one requester per source, each
// requesting the tracks in order. The provided config may be nil. A panic
// will occur if threads is nil, or invalid config is provided.
func New(threads Threads, config *Config, sources [][]int) *Scheduler {
	if threads == nil {
		panic(`disksched: nil threads`)
	}

	s := Scheduler{
		threads: threads,
		sources: sources,
		pending: make([]bool, len(sources)),
	}

	if config != nil {
		s.cfg = *config
	}
	if s.cfg.MaxQueue == 0 {
		s.cfg.MaxQueue = 1
	}
	if s.cfg.LockKey == 0 && s.cfg.RequesterCond == 0 && s.cfg.DispatcherCond == 0 {
		s.cfg.LockKey, s.cfg.RequesterCond, s.cfg.DispatcherCond = 1, 2, 3
	}

	if s.cfg.MaxQueue < 0 {
		panic(`disksched: negative max queue`)
	}
	if s.cfg.LockKey == s.cfg.RequesterCond ||
		s.cfg.LockKey == s.cfg.DispatcherCond ||
		s.cfg.RequesterCond == s.cfg.DispatcherCond {
		panic(`disksched: keys must be distinct`)
	}

	return &s
}

// Start spawns the dispatcher and the requesters. It is a
// [greenthread.ThreadFunc], intended as the bootstrap thread, the argument is
// ignored.
func (x *Scheduler) Start(any) {
	x.live = len(x.sources)
	if _, err := x.threads.Spawn(x.dispatcher, nil); err != nil {
		x.fail(err)
		return
	}
	for i := range x.sources {
		if _, err := x.threads.Spawn(x.requester, i); err != nil {
			// the dispatcher would otherwise wait for it forever
			x.live--
			x.fail(err)
		}
	}
}

// Err returns the first runtime error encountered by any scheduler thread,
// to be checked after the runtime exits.
func (x *Scheduler) Err() error {
	return x.err
}

func (x *Scheduler) fail(err error) {
	if x.err == nil && err != nil {
		x.err = err
	}
}

// capacity is the admission bound, the queue is full at this size
func (x *Scheduler) capacity() int {
	return min(x.cfg.MaxQueue, x.live)
}

func (x *Scheduler) full() bool {
	return len(x.queue) >= x.capacity()
}

func (x *Scheduler) requester(arg any) {
	id := arg.(int)
	if err := x.request(id); err != nil {
		x.fail(err)
	}
}

func (x *Scheduler) request(id int) (err error) {
	for _, track := range x.sources[id] {
		if err = x.threads.Lock(x.cfg.LockKey); err != nil {
			return err
		}
		for err == nil && (x.full() || x.pending[id]) {
			err = x.threads.Wait(x.cfg.LockKey, x.cfg.RequesterCond)
		}
		if err == nil {
			x.enqueue(id, track)
			err = x.threads.Broadcast(x.cfg.LockKey, x.cfg.DispatcherCond)
		}
		if err = errors.Join(err, x.threads.Unlock(x.cfg.LockKey)); err != nil {
			return err
		}
	}

	if err = x.threads.Lock(x.cfg.LockKey); err != nil {
		return err
	}
	for err == nil && x.pending[id] {
		err = x.threads.Wait(x.cfg.LockKey, x.cfg.RequesterCond)
	}
	x.live--
	if err == nil {
		// the capacity shrank, which may have made the queue full
		err = x.threads.Broadcast(x.cfg.LockKey, x.cfg.DispatcherCond)
	}
	return errors.Join(err, x.threads.Unlock(x.cfg.LockKey))
}

func (x *Scheduler) dispatcher(any) {
	if err := x.dispatch(); err != nil {
		x.fail(err)
	}
}

func (x *Scheduler) dispatch() (err error) {
	if err = x.threads.Lock(x.cfg.LockKey); err != nil {
		return err
	}
	for err == nil {
		for err == nil && x.live > 0 && !x.full() {
			err = x.threads.Wait(x.cfg.LockKey, x.cfg.DispatcherCond)
		}
		if err != nil || len(x.queue) == 0 {
			break
		}
		x.service()
		err = x.threads.Broadcast(x.cfg.LockKey, x.cfg.RequesterCond)
	}
	return errors.Join(err, x.threads.Unlock(x.cfg.LockKey))
}

func (x *Scheduler) enqueue(id, track int) {
	req := Request{Requester: id, Track: track, Seq: x.seq}
	x.seq++
	x.queue = append(x.queue, req)
	x.pending[id] = true
	x.cfg.Logger.Info().
		Int(`requester`, id).
		Int(`track`, track).
		Log(`request queued`)
	if x.cfg.OnRequest != nil {
		x.cfg.OnRequest(req)
	}
}

// service dispatches the queued request nearest to the last serviced track
func (x *Scheduler) service() {
	i := Nearest(x.queue, x.lastTrack)
	svc := Service{
		Queue:   append([]Request(nil), x.queue...),
		Request: x.queue[i],
		From:    x.lastTrack,
	}
	x.queue = append(x.queue[:i], x.queue[i+1:]...)
	x.pending[svc.Requester] = false
	x.lastTrack = svc.Track
	x.cfg.Logger.Info().
		Int(`requester`, svc.Requester).
		Int(`track`, svc.Track).
		Int(`from`, svc.From).
		Log(`request serviced`)
	if x.cfg.OnService != nil {
		x.cfg.OnService(svc)
	}
}

// Nearest returns the index of the request with the shortest seek from the
// given track, preferring the earliest queued on ties, or -1 if queue is
// empty. The queue must be in arrival order.
func Nearest(queue []Request, from int) int {
	best, dist := -1, 0
	for i, req := range queue {
		if d := abs(req.Track - from); best == -1 || d < dist {
			best, dist = i, d
		}
	}
	return best
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
