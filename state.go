package greenthread

import (
	"strconv"
	"sync/atomic"
)

// ThreadState is the scheduling state of a logical thread.
//
// State Machine:
//
//	ThreadReady → ThreadRunning      [scheduler loop switches in]
//	ThreadRunning → ThreadReady      [Yield, preemption]
//	ThreadRunning → ThreadBlocked    [contended Lock, Wait]
//	ThreadBlocked → ThreadReady      [Unlock hand-off, Signal, Broadcast]
//	ThreadRunning → ThreadFinished   [function returned]
//	ThreadFinished → (terminal, reclaimed by the scheduler loop)
type ThreadState uint8

const (
	// ThreadReady indicates the thread is in the ready queue.
	ThreadReady ThreadState = iota
	// ThreadRunning indicates the thread is executing.
	ThreadRunning
	// ThreadBlocked indicates the thread is in a lock or condition waiter queue.
	ThreadBlocked
	// ThreadFinished indicates the thread function returned.
	ThreadFinished
)

// String returns a human-readable representation of the state.
func (s ThreadState) String() string {
	switch s {
	case ThreadReady:
		return "Ready"
	case ThreadRunning:
		return "Running"
	case ThreadBlocked:
		return "Blocked"
	case ThreadFinished:
		return "Finished"
	default:
		return "Unknown(" + strconv.Itoa(int(s)) + ")"
	}
}

// runtimeState models the lifecycle of a Runtime.
//
//	runtimeIdle → runtimeRunning        [Run]
//	runtimeRunning → runtimeTerminated  [ready queue drained]
type runtimeState uint32

const (
	runtimeIdle runtimeState = iota
	runtimeRunning
	runtimeTerminated
)

type lifecycle struct {
	v atomic.Uint32
}

func (x *lifecycle) Load() runtimeState {
	return runtimeState(x.v.Load())
}

func (x *lifecycle) Store(state runtimeState) {
	x.v.Store(uint32(state))
}

func (x *lifecycle) TryTransition(from, to runtimeState) bool {
	return x.v.CompareAndSwap(uint32(from), uint32(to))
}

// err maps the state to the error returned by API calls, nil if running.
func (x *lifecycle) err() error {
	switch x.Load() {
	case runtimeRunning:
		return nil
	case runtimeTerminated:
		return ErrTerminated
	default:
		return ErrNotInitialized
	}
}
