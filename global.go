// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package greenthread

import (
	"os"
	"sync"
)

var (
	// process-wide runtime, constructed once by Init
	global struct {
		sync.Mutex
		runtime *Runtime
		once    bool
	}

	// for testing purposes
	osExit = os.Exit
)

// Init constructs the process-wide Runtime, with the given options, runs it
// with fn(arg) as the bootstrap thread, and then exits the process, with code
// 0, or 1 if Run returned an error. It does not return under normal
// operation.
//
// Returns ErrAlreadyInitialized if called more than once, or any error from
// option validation.
func Init(fn ThreadFunc, arg any, opts ...Option) error {
	if fn == nil {
		panic(`greenthread: nil thread func`)
	}

	global.Lock()
	if global.once {
		global.Unlock()
		return ErrAlreadyInitialized
	}
	global.once = true
	r, err := New(opts...)
	if err != nil {
		global.Unlock()
		return err
	}
	global.runtime = r
	global.Unlock()

	code := 0
	if err := r.Run(fn, arg); err != nil {
		code = 1
	}
	osExit(code)
	return nil
}

func defaultRuntime() *Runtime {
	global.Lock()
	defer global.Unlock()
	return global.runtime
}

// Spawn calls [Runtime.Spawn] on the process-wide runtime.
func Spawn(fn ThreadFunc, arg any) (ThreadID, error) {
	r := defaultRuntime()
	if r == nil {
		return 0, ErrNotInitialized
	}
	return r.Spawn(fn, arg)
}

// Yield calls [Runtime.Yield] on the process-wide runtime.
func Yield() error {
	r := defaultRuntime()
	if r == nil {
		return ErrNotInitialized
	}
	return r.Yield()
}

// Self calls [Runtime.Self] on the process-wide runtime.
func Self() (ThreadID, error) {
	r := defaultRuntime()
	if r == nil {
		return 0, ErrNotInitialized
	}
	return r.Self()
}

// Lock calls [Runtime.Lock] on the process-wide runtime.
func Lock(key uint32) error {
	r := defaultRuntime()
	if r == nil {
		return ErrNotInitialized
	}
	return r.Lock(key)
}

// Unlock calls [Runtime.Unlock] on the process-wide runtime.
func Unlock(key uint32) error {
	r := defaultRuntime()
	if r == nil {
		return ErrNotInitialized
	}
	return r.Unlock(key)
}

// Wait calls [Runtime.Wait] on the process-wide runtime.
func Wait(lockKey, condKey uint32) error {
	r := defaultRuntime()
	if r == nil {
		return ErrNotInitialized
	}
	return r.Wait(lockKey, condKey)
}

// Signal calls [Runtime.Signal] on the process-wide runtime.
func Signal(lockKey, condKey uint32) error {
	r := defaultRuntime()
	if r == nil {
		return ErrNotInitialized
	}
	return r.Signal(lockKey, condKey)
}

// Broadcast calls [Runtime.Broadcast] on the process-wide runtime.
func Broadcast(lockKey, condKey uint32) error {
	r := defaultRuntime()
	if r == nil {
		return ErrNotInitialized
	}
	return r.Broadcast(lockKey, condKey)
}
