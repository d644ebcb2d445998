// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package greenthread

import (
	"runtime"
)

type (
	// ThreadFunc is the body of a logical thread.
	ThreadFunc func(arg any)

	// ThreadID identifies a logical thread, unique for the lifetime of the
	// Runtime, assigned in spawn order, starting at 0.
	ThreadID uint64

	// thread is the record of a logical thread.
	//
	// Its execution context is a goroutine that only proceeds after receiving
	// from resume, and which hands control back by sending on Runtime.sched.
	// The done channel is closed once that goroutine has exited. All fields
	// other than resume and done are guarded by the interrupt guard.
	thread struct {
		fn     ThreadFunc
		arg    any
		panic  *PanicError
		resume chan bool // false aborts the thread
		done   chan struct{}
		id     ThreadID
		slot   int
		state  ThreadState
		// aborted is set prior to sending false on resume
		aborted bool
	}
)

func newThread(id ThreadID, fn ThreadFunc, arg any) *thread {
	return &thread{
		fn:     fn,
		arg:    arg,
		resume: make(chan bool),
		done:   make(chan struct{}),
		id:     id,
		slot:   -1,
		state:  ThreadReady,
	}
}

// trampoline is the entry and exit wrapper of every logical thread, run as
// the thread's goroutine.
func (r *Runtime) trampoline(t *thread) {
	defer close(t.done)
	if !<-t.resume {
		return
	}
	// runtime.Goexit (e.g. testing.T.FailNow) is treated as a return
	defer r.exit(t)
	r.end(t)
	r.call(t)
}

func (r *Runtime) call(t *thread) {
	defer func() {
		if v := recover(); v != nil {
			t.panic = &PanicError{ThreadID: t.id, Value: v}
		}
	}()
	t.fn(t.arg)
}

// exit marks t finished and switches to the scheduler, never to return.
func (r *Runtime) exit(t *thread) {
	if t.aborted {
		return
	}
	r.guard.disable()
	t.state = ThreadFinished
	r.stats.finished++
	if t.panic != nil {
		r.stats.panicked++
		r.panics = append(r.panics, t.panic)
		r.logThreadPanic(t)
	}
	r.logThread(t, "thread finished")
	r.sched <- struct{}{}
}

// park suspends t, which must be the current thread, switching to the
// scheduler. The caller must have disabled interrupts, and placed t in
// exactly one queue. Returns with interrupts still disabled, once the
// scheduler switches back to t.
func (r *Runtime) park(t *thread) {
	r.guard.pending = false
	r.sched <- struct{}{}
	if !<-t.resume {
		runtime.Goexit()
	}
}

// switchTo runs t until it next suspends. Scheduler context only.
func (r *Runtime) switchTo(t *thread) {
	t.state = ThreadRunning
	r.current = t
	r.stats.switches++
	t.resume <- true
	<-r.sched
}

// abort releases the goroutine of a thread that will never be resumed, which
// unwinds, running deferred calls. Scheduler context only, the caller must
// wait on t.done after enabling interrupts.
func (r *Runtime) abort(t *thread) {
	t.aborted = true
	t.resume <- false
}
