package greenthread

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// incrementCounter runs the shared counter scenario, where each of workers
// threads increments a counter n times under one lock, yielding inside the
// critical section, returning the final count, and the maximum number of
// concurrent holders observed.
func incrementCounter(t *testing.T, workers, n int, opts ...Option) (counter, maxHolders int) {
	t.Helper()
	var (
		holders int
		errs    []error
	)
	mustRun(t, func(rt *Runtime) {
		for w := 0; w < workers; w++ {
			_, err := rt.Spawn(func(any) {
				for i := 0; i < n; i++ {
					if err := rt.Lock(7); err != nil {
						errs = append(errs, err)
						return
					}
					holders++
					maxHolders = max(maxHolders, holders)
					v := counter
					if err := rt.Yield(); err != nil {
						errs = append(errs, err)
					}
					counter = v + 1
					holders--
					if err := rt.Unlock(7); err != nil {
						errs = append(errs, err)
						return
					}
				}
			}, nil)
			if err != nil {
				errs = append(errs, err)
			}
		}
	}, opts...)
	require.Empty(t, errs)
	return
}

func TestLock_SharedCounter(t *testing.T) {
	const n = 50
	counter, maxHolders := incrementCounter(t, 3, n)
	assert.Equal(t, 3*n, counter)
	assert.Equal(t, 1, maxHolders)
}

func TestLock_SharedCounterRandomPreemption(t *testing.T) {
	const n = 50
	for seed := uint64(1); seed <= 20; seed++ {
		t.Run(fmt.Sprint(seed), func(t *testing.T) {
			counter, maxHolders := incrementCounter(t, 3, n, WithRandomPreemption(seed, 0.3))
			assert.Equal(t, 3*n, counter)
			assert.Equal(t, 1, maxHolders)
		})
	}
}

// handOff has four threads block on a lock held by the bootstrap thread,
// which then releases it, returning the spawned ids, the waiters as blocked,
// and the order in which they acquired the lock.
func handOff(t *testing.T, opts ...Option) (ids, waiters, order []ThreadID) {
	t.Helper()
	mustRun(t, func(rt *Runtime) {
		_ = rt.Lock(3)
		for i := 0; i < 4; i++ {
			id, _ := rt.Spawn(func(any) {
				if rt.Lock(3) != nil {
					return
				}
				self, _ := rt.Self()
				order = append(order, self)
				_ = rt.Unlock(3)
			}, nil)
			ids = append(ids, id)
		}
		for {
			info, _ := rt.InspectLock(3)
			if len(info.Waiters) == len(ids) {
				waiters = info.Waiters
				break
			}
			_ = rt.Yield()
		}
		_ = rt.Unlock(3)
	}, opts...)
	return
}

func TestLock_FIFOHandOff(t *testing.T) {
	ids, waiters, order := handOff(t)
	// every spawned thread blocks, in spawn order
	assert.Equal(t, ids, waiters)
	assert.Equal(t, ids, order)
}

func TestLock_FIFOHandOffRandomPreemption(t *testing.T) {
	for seed := uint64(1); seed <= 20; seed++ {
		t.Run(fmt.Sprint(seed), func(t *testing.T) {
			ids, waiters, order := handOff(t, WithRandomPreemption(seed, 0.3))
			assert.ElementsMatch(t, ids, waiters)
			assert.Equal(t, waiters, order)
		})
	}
}

func TestLock_HandOffSkipsRecontention(t *testing.T) {
	var (
		waiter    ThreadID
		owner     LockInfo
		barged    error
		bargeDone bool
	)
	mustRun(t, func(rt *Runtime) {
		_ = rt.Lock(1)
		waiter, _ = rt.Spawn(func(any) {
			_ = rt.Lock(1)
			_ = rt.Unlock(1)
		}, nil)
		_ = rt.Yield()
		_ = rt.Unlock(1)
		// ownership went to the waiter, even though it has not run yet
		owner, _ = rt.InspectLock(1)
		_, _ = rt.Spawn(func(any) {
			barged = rt.Lock(1)
			bargeDone = true
			_ = rt.Unlock(1)
		}, nil)
	})
	assert.Equal(t, LockInfo{Owner: waiter, Held: true}, owner)
	assert.NoError(t, barged)
	assert.True(t, bargeDone)
}

func TestLock_AlreadyOwned(t *testing.T) {
	var (
		first, second error
		info          LockInfo
	)
	mustRun(t, func(rt *Runtime) {
		first = rt.Lock(5)
		second = rt.Lock(5)
		info, _ = rt.InspectLock(5)
		_ = rt.Unlock(5)
	})
	require.NoError(t, first)
	assert.ErrorIs(t, second, ErrAlreadyOwned)
	var keyErr *KeyError
	require.ErrorAs(t, second, &keyErr)
	assert.Equal(t, uint32(5), keyErr.Key)
	assert.Equal(t, `lock`, keyErr.Kind)
	assert.Equal(t, LockInfo{Owner: 0, Held: true}, info)
}

func TestUnlock_NotOwner(t *testing.T) {
	var (
		before, after  LockInfo
		notOwner       error
		unknown        error
		unknownCreated bool
		freeErr        error
	)
	mustRun(t, func(rt *Runtime) {
		_, _ = rt.Spawn(func(any) {
			_ = rt.Lock(7)
			_ = rt.Yield()
			_ = rt.Unlock(7)
		}, nil)
		_, _ = rt.Spawn(func(any) {
			// blocks behind the owner, so there is a waiter too
			_ = rt.Lock(7)
			_ = rt.Unlock(7)
		}, nil)
		_ = rt.Yield()

		before, _ = rt.InspectLock(7)
		notOwner = rt.Unlock(7)
		after, _ = rt.InspectLock(7)

		unknown = rt.Unlock(99)
		_, unknownCreated = rt.InspectLock(99)

		// free lock, no owner
		_ = rt.Lock(8)
		_ = rt.Unlock(8)
		freeErr = rt.Unlock(8)
	})

	assert.Equal(t, LockInfo{Owner: 1, Held: true, Waiters: []ThreadID{2}}, before)
	assert.ErrorIs(t, notOwner, ErrNotOwner)
	assert.Equal(t, before, after)
	assert.ErrorIs(t, unknown, ErrNotOwner)
	assert.False(t, unknownCreated)
	assert.ErrorIs(t, freeErr, ErrNotOwner)
}

func TestLock_MaxLocks(t *testing.T) {
	var (
		err1, err2 error
		exists     bool
		locks      int
	)
	mustRun(t, func(rt *Runtime) {
		err1 = rt.Lock(1)
		err2 = rt.Lock(2)
		_, exists = rt.InspectLock(2)
		locks = rt.Stats().Locks
		_ = rt.Unlock(1)
	}, WithMaxLocks(1))
	require.NoError(t, err1)
	assert.True(t, errors.Is(err2, ErrAllocationFailure))
	assert.False(t, exists)
	assert.Equal(t, 1, locks)
}

func TestLock_PersistsAcrossUse(t *testing.T) {
	rt := mustRun(t, func(rt *Runtime) {
		for i := 0; i < 3; i++ {
			_ = rt.Lock(4)
			_ = rt.Unlock(4)
		}
	})
	info, ok := rt.InspectLock(4)
	assert.True(t, ok)
	assert.Equal(t, LockInfo{}, info)
	assert.Equal(t, 1, rt.Stats().Locks)
}
