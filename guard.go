// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package greenthread

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/joeycumines/go-catrate"
)

// guard masks the interrupt source, for the single physical execution stream.
//
// The mutex is held by the stream, not by a goroutine: whenever the scheduler
// loop or a guarded API body runs, it is held, and it is carried across
// context switches, to be released by whichever logical thread resumes.
// [Runtime.Interrupt] acquires it, which is what "masked" means here.
//
// Every field other than mu is guarded by mu.
type guard struct {
	mu sync.Mutex

	rand        *rand.Rand
	limiter     *catrate.Limiter
	probability float64

	// pending is set by an interrupt, and cleared by the next suspension of
	// a logical thread, voluntary or not
	pending bool
}

func newGuard(opts *runtimeOptions) (*guard, error) {
	g := guard{probability: opts.randomProbability}
	if g.probability > 0 {
		g.rand = rand.New(rand.NewPCG(opts.randomSeed, opts.randomSeed^0x9e3779b97f4a7c15))
	}
	if len(opts.preemptionRates) != 0 {
		limiter, err := newLimiter(opts.preemptionRates)
		if err != nil {
			return nil, err
		}
		g.limiter = limiter
	}
	return &g, nil
}

func newLimiter(rates map[time.Duration]int) (limiter *catrate.Limiter, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("greenthread: preemption limit: %v", r)
		}
	}()
	return catrate.NewLimiter(rates), nil
}

func (x *guard) disable() {
	x.mu.Lock()
}

func (x *guard) enable() {
	x.mu.Unlock()
}

// preempt reports whether the thread leaving a critical section must yield
// first. Must be called with interrupts disabled.
func (x *guard) preempt(id ThreadID) bool {
	hit := x.pending
	if !hit && x.rand != nil && x.rand.Float64() < x.probability {
		hit = true
	}
	if !hit {
		return false
	}
	x.pending = false
	if x.limiter != nil {
		if _, ok := x.limiter.Allow(id); !ok {
			return false
		}
	}
	return true
}

// Interrupt is the handle passed to interrupt handlers, see
// [WithInterruptHandler]. Handlers run with interrupts disabled, so these
// methods operate directly on the runtime, without re-entering the guard.
// The handle must not be retained beyond the handler call.
type Interrupt struct {
	rt *Runtime
}

func (x *Interrupt) runtime() (*Runtime, error) {
	if x == nil || x.rt == nil {
		return nil, ErrInterruptContext
	}
	return x.rt, nil
}

// Spawn behaves like [Runtime.Spawn].
func (x *Interrupt) Spawn(fn ThreadFunc, arg any) (ThreadID, error) {
	if fn == nil {
		panic(`greenthread: nil thread func`)
	}
	r, err := x.runtime()
	if err != nil {
		return 0, err
	}
	t, err := r.spawn(fn, arg)
	if err != nil {
		return 0, err
	}
	return t.id, nil
}

// Signal behaves like [Runtime.Signal].
func (x *Interrupt) Signal(lockKey, condKey uint32) error {
	r, err := x.runtime()
	if err != nil {
		return err
	}
	r.signal(condKey)
	return nil
}

// Broadcast behaves like [Runtime.Broadcast].
func (x *Interrupt) Broadcast(lockKey, condKey uint32) error {
	r, err := x.runtime()
	if err != nil {
		return err
	}
	r.broadcast(condKey)
	return nil
}

// Current returns the thread that was interrupted, if any.
func (x *Interrupt) Current() (ThreadID, bool) {
	r, err := x.runtime()
	if err != nil || r.current == nil {
		return 0, false
	}
	return r.current.id, true
}

// Interrupt delivers an interrupt, and is the only entry point that is safe to
// call from goroutines other than the logical threads (e.g. a timer). It
// blocks while interrupts are disabled, then runs the registered interrupt
// handlers, and finally requests preemption of the running thread, which will
// occur the next time that thread re-enables interrupts.
//
// Returns ErrNotInitialized prior to Run, and ErrTerminated after.
func (r *Runtime) Interrupt() error {
	if err := r.state.err(); err != nil {
		return err
	}
	r.guard.disable()
	defer r.guard.enable()
	if err := r.state.err(); err != nil {
		return err
	}
	h := Interrupt{rt: r}
	for _, handler := range r.opts.interruptHandlers {
		handler(&h)
	}
	h.rt = nil
	r.guard.pending = true
	r.stats.interrupts++
	return nil
}
