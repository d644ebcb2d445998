// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package greenthread

// mutex is a lock record, created on first use of its key.
//
// Ownership is handed directly to the oldest waiter on unlock, so waiters
// exist only while the lock is owned.
type mutex struct {
	owner   *thread
	waiters queue[*thread]
}

// LockInfo describes the state of a lock, see [Runtime.InspectLock].
type LockInfo struct {
	// Waiters are the blocked threads, oldest first.
	Waiters []ThreadID
	Owner   ThreadID
	Held    bool
}

// Lock acquires the lock identified by key, suspending the calling thread
// while it is held by another. Waiters are granted the lock in arrival order.
//
// Returns ErrAlreadyOwned if the caller already holds the lock, or
// ErrAllocationFailure if a new lock record could not be created. It must not
// be called from an interrupt handler.
func (r *Runtime) Lock(key uint32) error {
	t, err := r.begin()
	if err != nil {
		return err
	}
	err = r.lock(t, key)
	r.end(t)
	return err
}

// Unlock releases the lock identified by key, handing it to the oldest
// waiter, if any. Returns ErrNotOwner, and changes nothing, if the key is
// unknown, or the caller is not the owner. It must not be called from an
// interrupt handler.
func (r *Runtime) Unlock(key uint32) error {
	t, err := r.begin()
	if err != nil {
		return err
	}
	err = r.unlock(t, key)
	r.end(t)
	return err
}

// lock is Lock with interrupts disabled.
func (r *Runtime) lock(t *thread, key uint32) error {
	m, ok := r.locks[key]
	if !ok {
		if r.opts.maxLocks > 0 && len(r.locks) >= r.opts.maxLocks {
			return lockError(ErrAllocationFailure, key)
		}
		r.locks[key] = &mutex{owner: t}
		r.logLock(t, key, `lock created`)
		return nil
	}

	switch m.owner {
	case nil:
		m.owner = t
		r.logLock(t, key, `lock acquired`)
		return nil
	case t:
		return lockError(ErrAlreadyOwned, key)
	}

	t.state = ThreadBlocked
	m.waiters.Push(t)
	r.logLock(t, key, `lock contended`)
	r.park(t)

	// resumed only by unlock, which made t the owner
	if m.owner != t {
		panic(`greenthread: resumed lock waiter is not the owner`)
	}
	return nil
}

// unlock is Unlock with interrupts disabled.
func (r *Runtime) unlock(t *thread, key uint32) error {
	m, ok := r.locks[key]
	if !ok || m.owner != t {
		return lockError(ErrNotOwner, key)
	}
	next, ok := m.waiters.Pop()
	if !ok {
		m.owner = nil
		r.logLock(t, key, `lock released`)
		return nil
	}
	m.owner = next
	next.state = ThreadReady
	r.ready.Push(next)
	r.logLock(next, key, `lock handed off`)
	return nil
}

// InspectLock returns the state of the lock identified by key, and false if
// the lock does not exist. It must not be called from an interrupt handler.
func (r *Runtime) InspectLock(key uint32) (LockInfo, bool) {
	r.guard.disable()
	defer r.guard.enable()
	m, ok := r.locks[key]
	if !ok {
		return LockInfo{}, false
	}
	var info LockInfo
	if m.owner != nil {
		info.Owner, info.Held = m.owner.id, true
	}
	m.waiters.Each(func(t *thread) {
		info.Waiters = append(info.Waiters, t.id)
	})
	return info, true
}
