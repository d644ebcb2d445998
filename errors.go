// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package greenthread

import (
	"errors"
	"fmt"
)

// Standard errors.
var (
	// ErrNotInitialized is returned by any call made before [Runtime.Run]
	// (or [Init]), or from outside a logical thread.
	ErrNotInitialized = errors.New("greenthread: runtime not initialized")

	// ErrAlreadyInitialized is returned by a second call to [Runtime.Run]
	// or [Init].
	ErrAlreadyInitialized = errors.New("greenthread: runtime already initialized")

	// ErrAllocationFailure is returned when a thread, lock or condition record
	// could not be created. Nothing is left behind when it is returned.
	ErrAllocationFailure = errors.New("greenthread: allocation failure")

	// ErrAlreadyOwned is returned by Lock, for a lock already held by the
	// calling thread. Locks are not reentrant.
	ErrAlreadyOwned = errors.New("greenthread: lock already owned by caller")

	// ErrNotOwner is returned when releasing a lock that is unknown, or not
	// held by the calling thread.
	ErrNotOwner = errors.New("greenthread: lock not owned by caller")

	// ErrTerminated is returned by calls made after the scheduler loop exited.
	ErrTerminated = errors.New("greenthread: runtime terminated")

	// ErrInterruptContext is returned by [Interrupt] methods called after the
	// handler they were passed to has returned.
	ErrInterruptContext = errors.New("greenthread: interrupt handle used outside its handler")
)

// KeyError associates one of the standard errors with the lock or condition
// key it was raised for. Use [errors.Is] to match the cause.
type KeyError struct {
	Err  error
	Kind string // "lock" or "cond"
	Key  uint32
}

// Error implements the error interface.
func (e *KeyError) Error() string {
	return fmt.Sprintf("%v (%s %d)", e.Err, e.Kind, e.Key)
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *KeyError) Unwrap() error {
	return e.Err
}

func lockError(err error, key uint32) error {
	return &KeyError{Err: err, Kind: "lock", Key: key}
}

func condError(err error, key uint32) error {
	return &KeyError{Err: err, Kind: "cond", Key: key}
}

// PanicError is reported by [Runtime.Run] for each logical thread whose
// function panicked. The thread is still considered finished.
type PanicError struct {
	Value    any
	ThreadID ThreadID
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("greenthread: thread %d panicked: %v", e.ThreadID, e.Value)
}

// Unwrap returns the panic value, if it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
