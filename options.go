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

// runtimeOptions holds configuration options for Runtime creation.
type runtimeOptions struct {
	logger             *logiface.Logger[logiface.Event]
	interruptHandlers  []func(*Interrupt)
	preemptionRates    map[time.Duration]int
	maxThreads         int
	maxLocks           int
	maxConditions      int
	preemptionInterval time.Duration
	randomSeed         uint64
	randomProbability  float64
}

// Option configures a Runtime instance.
type Option interface {
	applyRuntime(*runtimeOptions) error
}

// optionImpl implements Option.
type optionImpl struct {
	applyRuntimeFunc func(*runtimeOptions) error
}

func (x *optionImpl) applyRuntime(opts *runtimeOptions) error {
	return x.applyRuntimeFunc(opts)
}

// WithLogger sets the structured logger. Scheduling events are logged at
// debug level, lifecycle at info, stranded threads at warning, and thread
// panics at error. A nil logger (the default) disables logging.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &optionImpl{func(opts *runtimeOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithMaxThreads limits the number of live (not yet reclaimed) threads.
// Spawn fails with ErrAllocationFailure at the limit. Zero means unlimited.
func WithMaxThreads(n int) Option {
	return &optionImpl{func(opts *runtimeOptions) error {
		if n < 0 {
			return errors.New("greenthread: negative max threads")
		}
		opts.maxThreads = n
		return nil
	}}
}

// WithMaxLocks limits the number of lock records, which are created on first
// use of each key and never destroyed. Zero means unlimited.
func WithMaxLocks(n int) Option {
	return &optionImpl{func(opts *runtimeOptions) error {
		if n < 0 {
			return errors.New("greenthread: negative max locks")
		}
		opts.maxLocks = n
		return nil
	}}
}

// WithMaxConditions limits the number of condition records, see WithMaxLocks.
func WithMaxConditions(n int) Option {
	return &optionImpl{func(opts *runtimeOptions) error {
		if n < 0 {
			return errors.New("greenthread: negative max conditions")
		}
		opts.maxConditions = n
		return nil
	}}
}

// WithInterruptHandler registers a handler run by every [Runtime.Interrupt],
// with interrupts disabled. May be specified multiple times, handlers run in
// the order given.
//
// Handlers must not call any [Runtime] method, including Interrupt, which
// would deadlock. Use the provided [Interrupt] handle instead.
func WithInterruptHandler(handler func(*Interrupt)) Option {
	return &optionImpl{func(opts *runtimeOptions) error {
		if handler == nil {
			return errors.New("greenthread: nil interrupt handler")
		}
		opts.interruptHandlers = append(opts.interruptHandlers, handler)
		return nil
	}}
}

// WithPreemptionInterval starts a timer interrupt source for the duration of
// [Runtime.Run], calling [Runtime.Interrupt] every interval.
func WithPreemptionInterval(interval time.Duration) Option {
	return &optionImpl{func(opts *runtimeOptions) error {
		if interval < 0 {
			return errors.New("greenthread: negative preemption interval")
		}
		opts.preemptionInterval = interval
		return nil
	}}
}

// WithRandomPreemption makes each interrupt-enable point of a logical thread
// preempt it with the given probability, using a pseudo-random sequence
// determined by seed. Intended for exploring interleavings in tests.
func WithRandomPreemption(seed uint64, probability float64) Option {
	return &optionImpl{func(opts *runtimeOptions) error {
		if probability < 0 || probability > 1 {
			return errors.New("greenthread: preemption probability out of range")
		}
		opts.randomSeed = seed
		opts.randomProbability = probability
		return nil
	}}
}

// WithPreemptionLimit caps preemptions per thread, with sliding windows, as
// per [catrate.NewLimiter]. Voluntary suspensions are not limited.
//
// [catrate.NewLimiter]: https://pkg.go.dev/github.com/joeycumines/go-catrate#NewLimiter
func WithPreemptionLimit(rates map[time.Duration]int) Option {
	return &optionImpl{func(opts *runtimeOptions) error {
		for window, count := range rates {
			if window <= 0 || count <= 0 {
				return errors.New("greenthread: invalid preemption rate")
			}
		}
		opts.preemptionRates = rates
		return nil
	}}
}

// resolveOptions applies Option instances to runtimeOptions.
func resolveOptions(opts []Option) (*runtimeOptions, error) {
	cfg := &runtimeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyRuntime(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
