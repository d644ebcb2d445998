// Package greenthread implements a cooperative, user-level thread runtime:
// many logical ("green") threads multiplexed onto a single execution stream,
// with keyed mutex locks and Mesa-semantics condition variables.
//
// # Architecture
//
// A [Runtime] owns a FIFO ready queue, a lock table and a condition table,
// all keyed by caller-supplied uint32 values, and created lazily. [Runtime.Run]
// spawns a bootstrap thread, then runs the scheduler loop, which switches to
// the front of the ready queue until it is empty, reclaiming finished threads
// as it goes.
//
// Each logical thread runs on its own goroutine, but only one goroutine (the
// scheduler, or one thread) ever proceeds at a time: control is passed
// explicitly, via channels, in the manner of a coroutine. The only places a
// thread gives up control are [Runtime.Yield], a contended [Runtime.Lock],
// [Runtime.Wait], and preemption.
//
// # Interrupts
//
// Runtime state is only mutated with interrupts disabled. [Runtime.Interrupt]
// is the one asynchronous entry point, safe to call from any goroutine: it
// waits for interrupts to be enabled, runs handlers registered with
// [WithInterruptHandler], and requests preemption of the running thread, which
// happens the next time that thread enables interrupts (on return from any
// runtime call). See also [WithPreemptionInterval], [WithRandomPreemption] and
// [WithPreemptionLimit].
//
// # Locks and conditions
//
// Locks are not reentrant. Unlock hands ownership directly to the oldest
// waiter. Wait releases the lock and suspends atomically, and re-acquires the
// lock before returning, but a woken thread must re-check its predicate, in a
// loop.
//
// # Usage
//
//	rt, err := greenthread.New()
//	if err != nil {
//		panic(err)
//	}
//	err = rt.Run(func(any) {
//		for i := 0; i < 3; i++ {
//			_, _ = rt.Spawn(func(arg any) {
//				_ = rt.Lock(1)
//				fmt.Println("thread", arg)
//				_ = rt.Unlock(1)
//			}, i)
//		}
//	}, nil)
//
// Programs structured around the process-wide runtime may instead use [Init]
// and the package-level functions, which mirror the Runtime methods.
package greenthread
