// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package greenthread

// condition is a condition variable record, created on first Wait.
// It is not bound to any lock, callers pair them.
type condition struct {
	waiters queue[*thread]
}

// Wait atomically releases lockKey, which the caller must hold, and suspends
// until woken by Signal or Broadcast on condKey, then re-acquires lockKey
// before returning. Interrupts remain disabled from the release until the
// thread is suspended, and again from its resumption until the lock is
// re-acquired.
//
// Wakeups follow Mesa semantics: being woken only makes the thread runnable,
// and the lock is re-acquired by normal contention, so callers must re-check
// their predicate in a loop:
//
//	for !predicate() {
//		if err := rt.Wait(lockKey, condKey); err != nil {
//			return err
//		}
//	}
//
// Returns ErrNotOwner, without waiting, if the caller does not hold lockKey,
// or ErrAllocationFailure if a new condition record could not be created. It
// must not be called from an interrupt handler.
func (r *Runtime) Wait(lockKey, condKey uint32) error {
	t, err := r.begin()
	if err != nil {
		return err
	}
	err = r.wait(t, lockKey, condKey)
	r.end(t)
	return err
}

// Signal moves the oldest thread waiting on condKey, if any, to the ready
// queue. An unknown condKey is not an error. Lock ownership is unaffected,
// lockKey is accepted for symmetry with Wait.
//
// It must not be called from an interrupt handler, which would deadlock, use
// [Interrupt.Signal] instead.
func (r *Runtime) Signal(lockKey, condKey uint32) error {
	t, err := r.begin()
	if err != nil {
		return err
	}
	if w := r.signal(condKey); w != nil {
		r.logCond(w, lockKey, condKey, `cond signaled`)
	}
	r.end(t)
	return nil
}

// Broadcast moves every thread waiting on condKey, at the time of the call,
// to the ready queue, oldest first. An unknown condKey is not an error.
//
// It must not be called from an interrupt handler, which would deadlock, use
// [Interrupt.Broadcast] instead.
func (r *Runtime) Broadcast(lockKey, condKey uint32) error {
	t, err := r.begin()
	if err != nil {
		return err
	}
	if n := r.broadcast(condKey); n != 0 {
		r.log.Debug().
			Uint64(`thread`, uint64(t.id)).
			Int64(`lock`, int64(lockKey)).
			Int64(`cond`, int64(condKey)).
			Int(`woken`, n).
			Log(`cond broadcast`)
	}
	r.end(t)
	return nil
}

// wait is Wait with interrupts disabled.
func (r *Runtime) wait(t *thread, lockKey, condKey uint32) error {
	// the record is obtained first, so that a failure needs no lock rollback
	c, created, err := r.condition(condKey)
	if err != nil {
		return err
	}
	if err := r.unlock(t, lockKey); err != nil {
		if created {
			delete(r.conds, condKey)
		}
		return err
	}

	t.state = ThreadBlocked
	c.waiters.Push(t)
	r.logCond(t, lockKey, condKey, `cond waiting`)
	r.park(t)

	return r.lock(t, lockKey)
}

func (r *Runtime) condition(key uint32) (c *condition, created bool, err error) {
	if c = r.conds[key]; c != nil {
		return c, false, nil
	}
	if r.opts.maxConditions > 0 && len(r.conds) >= r.opts.maxConditions {
		return nil, false, condError(ErrAllocationFailure, key)
	}
	c = new(condition)
	r.conds[key] = c
	return c, true, nil
}

func (r *Runtime) signal(key uint32) *thread {
	c := r.conds[key]
	if c == nil {
		return nil
	}
	t, ok := c.waiters.Pop()
	if !ok {
		return nil
	}
	t.state = ThreadReady
	r.ready.Push(t)
	return t
}

func (r *Runtime) broadcast(key uint32) (n int) {
	c := r.conds[key]
	if c == nil {
		return 0
	}
	// only the waiters present now, anything added later waits for the next
	n = c.waiters.Len()
	for i := 0; i < n; i++ {
		t, _ := c.waiters.Pop()
		t.state = ThreadReady
		r.ready.Push(t)
	}
	return n
}

// InspectCond returns the threads waiting on condKey, oldest first, and false
// if the condition does not exist. It must not be called from an interrupt
// handler.
func (r *Runtime) InspectCond(key uint32) ([]ThreadID, bool) {
	r.guard.disable()
	defer r.guard.enable()
	c := r.conds[key]
	if c == nil {
		return nil, false
	}
	ids := make([]ThreadID, 0, c.waiters.Len())
	c.waiters.Each(func(t *thread) {
		ids = append(ids, t.id)
	})
	return ids, true
}
