// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package greenthread

import (
	"errors"
	"time"

	"github.com/joeycumines/logiface"
)

// Runtime multiplexes logical threads onto a single execution stream.
//
// Instances must be initialized using the New factory, and become usable by
// logical threads once Run is called. A Runtime runs exactly once.
//
// Other than Run, Interrupt, Stats and the Inspect methods, all methods must
// be called from a logical thread of the receiver.
type Runtime struct {
	// Prevent copying
	_ [0]func()

	opts  *runtimeOptions
	log   *logiface.Logger[logiface.Event]
	guard *guard
	state lifecycle

	// everything below is guarded by guard

	locks   map[uint32]*mutex
	conds   map[uint32]*condition
	current *thread
	sched   chan struct{} // the scheduler context
	panics  []error
	threads arena
	ready   queue[*thread]
	stats   counters
	nextID  ThreadID
}

type counters struct {
	spawned    uint64
	finished   uint64
	reclaimed  uint64
	preempted  uint64
	panicked   uint64
	switches   uint64
	interrupts uint64
	stranded   uint64
}

// Stats is a snapshot of Runtime counters. If the runtime completed without
// a logical deadlock, Spawned equals Finished.
type Stats struct {
	Spawned    uint64
	Finished   uint64
	Reclaimed  uint64
	Preempted  uint64
	Panicked   uint64
	Switches   uint64
	Interrupts uint64
	// Stranded is the number of threads still blocked when the scheduler
	// loop exited.
	Stranded   uint64
	Live       int
	Locks      int
	Conditions int
}

// New initializes a new Runtime, using the provided options.
func New(opts ...Option) (*Runtime, error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	g, err := newGuard(cfg)
	if err != nil {
		return nil, err
	}
	r := &Runtime{
		opts:  cfg,
		log:   cfg.logger,
		guard: g,
		locks: make(map[uint32]*mutex),
		conds: make(map[uint32]*condition),
		sched: make(chan struct{}),
	}
	r.threads.limit = cfg.maxThreads
	return r, nil
}

// Run initializes the runtime, spawns the bootstrap thread running fn(arg),
// then runs the scheduler loop until no thread is ready. The calling
// goroutine is the scheduler context, for the duration of the call.
//
// Threads that are still blocked when the loop exits (a logical deadlock)
// are not treated as an error, but they are logged, counted as Stats.Stranded
// and their goroutines are released, by exiting them. Run waits for each to
// unwind, one at a time, so their deferred calls (which observe
// ErrTerminated from any blocking API) complete before it returns.
//
// The returned error is nil, unless thread functions panicked, in which case
// each [PanicError] is joined.
//
// Subsequent calls return ErrAlreadyInitialized. Run must not be called from
// a logical thread.
func (r *Runtime) Run(fn ThreadFunc, arg any) error {
	if fn == nil {
		panic(`greenthread: nil thread func`)
	}
	if !r.state.TryTransition(runtimeIdle, runtimeRunning) {
		return ErrAlreadyInitialized
	}

	r.guard.disable()

	if _, err := r.spawn(fn, arg); err != nil {
		r.state.Store(runtimeTerminated)
		r.guard.enable()
		return err
	}

	r.log.Info().
		Int(`max_threads`, r.opts.maxThreads).
		Log(`runtime started`)

	stopTicker := r.startTicker()

	r.schedule()

	// threads still parked can never be resumed
	r.state.Store(runtimeTerminated)
	var stranded []*thread
	r.threads.each(func(t *thread) {
		stranded = append(stranded, t)
	})
	for _, t := range stranded {
		r.stats.stranded++
		r.logThread(t, `thread stranded`)
		r.release(t)
	}
	if r.stats.stranded != 0 {
		r.log.Warning().
			Uint64(`stranded`, r.stats.stranded).
			Log(`scheduler exited with blocked threads`)
	}
	r.log.Info().
		Uint64(`spawned`, r.stats.spawned).
		Uint64(`finished`, r.stats.finished).
		Uint64(`switches`, r.stats.switches).
		Log(`runtime exited`)

	err := errors.Join(r.panics...)

	r.guard.enable()

	// one at a time, their deferred calls may still call Stats, or Inspect*
	for _, t := range stranded {
		r.abort(t)
		<-t.done
	}

	stopTicker()

	return err
}

// schedule is the scheduler loop. Interrupts are disabled throughout, except
// while a logical thread is running.
func (r *Runtime) schedule() {
	for {
		if t := r.current; t != nil {
			r.current = nil
			if t.state == ThreadFinished {
				r.release(t)
			}
		}
		t, ok := r.ready.Pop()
		if !ok {
			return
		}
		r.switchTo(t)
	}
}

// release removes a thread record from the arena. Scheduler context only.
func (r *Runtime) release(t *thread) {
	r.threads.release(t)
	r.stats.reclaimed++
	r.logThread(t, `thread reclaimed`)
}

func (r *Runtime) startTicker() (stop func()) {
	if r.opts.preemptionInterval <= 0 {
		return func() {}
	}
	var (
		done    = make(chan struct{})
		stopped = make(chan struct{})
	)
	go func() {
		defer close(stopped)
		ticker := time.NewTicker(r.opts.preemptionInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := r.Interrupt(); err != nil {
					return
				}
			}
		}
	}()
	return func() {
		close(done)
		<-stopped
	}
}

// begin disables interrupts, on entry to a guarded API call, returning the
// calling thread.
func (r *Runtime) begin() (*thread, error) {
	if err := r.state.err(); err != nil {
		return nil, err
	}
	r.guard.disable()
	if r.current == nil {
		r.guard.enable()
		if err := r.state.err(); err != nil {
			return nil, err
		}
		return nil, ErrNotInitialized
	}
	return r.current, nil
}

// end re-enables interrupts, on exit from a guarded API call, first
// delivering any pending preemption.
func (r *Runtime) end(t *thread) {
	if r.guard.preempt(t.id) {
		r.stats.preempted++
		r.logThread(t, `thread preempted`)
		t.state = ThreadReady
		r.ready.Push(t)
		r.park(t)
	}
	r.guard.enable()
}

// spawn creates a thread and appends it to the ready queue. Interrupts must
// be disabled.
func (r *Runtime) spawn(fn ThreadFunc, arg any) (*thread, error) {
	t := newThread(r.nextID, fn, arg)
	if !r.threads.alloc(t) {
		return nil, ErrAllocationFailure
	}
	r.nextID++
	r.stats.spawned++
	go r.trampoline(t)
	r.ready.Push(t)
	r.logThread(t, `thread spawned`)
	return t, nil
}

// Spawn creates a new logical thread, running fn(arg), and appends it to the
// ready queue. The caller continues to run.
//
// It must not be called from an interrupt handler, which would deadlock, use
// [Interrupt.Spawn] instead.
func (r *Runtime) Spawn(fn ThreadFunc, arg any) (ThreadID, error) {
	if fn == nil {
		panic(`greenthread: nil thread func`)
	}
	self, err := r.begin()
	if err != nil {
		return 0, err
	}
	t, err := r.spawn(fn, arg)
	r.end(self)
	if err != nil {
		return 0, err
	}
	return t.id, nil
}

// Yield moves the calling thread to the back of the ready queue, returning
// once the scheduler resumes it. It must not be called from an interrupt
// handler, which would deadlock.
func (r *Runtime) Yield() error {
	t, err := r.begin()
	if err != nil {
		return err
	}
	t.state = ThreadReady
	r.ready.Push(t)
	r.park(t)
	r.end(t)
	return nil
}

// Self returns the ID of the calling thread.
func (r *Runtime) Self() (ThreadID, error) {
	t, err := r.begin()
	if err != nil {
		return 0, err
	}
	id := t.id
	r.end(t)
	return id, nil
}

// Stats returns a snapshot of the runtime counters. It must not be called from
// an interrupt handler.
func (r *Runtime) Stats() Stats {
	r.guard.disable()
	defer r.guard.enable()
	return Stats{
		Spawned:    r.stats.spawned,
		Finished:   r.stats.finished,
		Reclaimed:  r.stats.reclaimed,
		Preempted:  r.stats.preempted,
		Panicked:   r.stats.panicked,
		Switches:   r.stats.switches,
		Interrupts: r.stats.interrupts,
		Stranded:   r.stats.stranded,
		Live:       r.threads.live,
		Locks:      len(r.locks),
		Conditions: len(r.conds),
	}
}
