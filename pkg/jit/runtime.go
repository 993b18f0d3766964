// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package jit is the execution context of compiled networks.
//
// A compiled network is a Routine: a fixed sequence of steps, each one a closure specialized at
// compile time over concrete storage (the slices of the bound input/output tensors and of a
// pre-planned arena), constant re-laid-out weights, loop bounds and unroll width. An Emitter
// collects the steps, and a Runtime registers the finished routines and owns the worker pool used
// by steps that split their rows among goroutines.
//
// A Runtime can be owned by a single compiled network or shared among many: see RuntimeRef.
package jit

import (
	"sync"

	"github.com/gomlx/compilednn/internal/workerspool"
	"github.com/gomlx/compilednn/pkg/core/nnerrors"
	"github.com/google/uuid"
	"k8s.io/klog/v2"
)

// Runtime registers routines and provides the worker pool they use.
//
// Registration is safe for concurrent use, so one Runtime can be shared by compilations running in parallel.
type Runtime struct {
	mu       sync.Mutex
	routines map[uuid.UUID]*Routine
	pool     *workerspool.Pool
	closed   bool
}

// NewRuntime creates a new Runtime, with a worker pool sized to the number of CPUs.
func NewRuntime() *Runtime {
	return &Runtime{
		routines: make(map[uuid.UUID]*Routine),
		pool:     workerspool.New(),
	}
}

// NewEmitter returns an Emitter that builds a routine for this runtime.
func (rt *Runtime) NewEmitter(options Options) *Emitter {
	return &Emitter{
		options: options.normalized(),
		pool:    rt.pool,
	}
}

// Register finishes the emission of e into a new Routine with the given name, and registers it.
//
// It fails with a CompilationError if the runtime is closed.
func (rt *Runtime) Register(name string, e *Emitter) (*Routine, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.closed {
		return nil, nnerrors.Compilationf("cannot register routine %q: runtime is closed", name)
	}
	r := &Routine{
		id:        uuid.New(),
		name:      name,
		steps:     e.steps,
		constants: e.constants,
		debug:     e.options.Debug,
	}
	e.steps = nil
	rt.routines[r.id] = r
	klog.V(1).Infof("jit: registered routine %s (%s) with %d steps", r.name, r.id, len(r.steps))
	return r, nil
}

// Unregister removes the routine from the runtime. It is a no-op if the routine is not registered.
func (rt *Runtime) Unregister(r *Routine) {
	if r == nil {
		return
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if _, found := rt.routines[r.id]; found {
		delete(rt.routines, r.id)
		klog.V(1).Infof("jit: unregistered routine %s (%s)", r.name, r.id)
	}
}

// Lookup returns the registered routine with the given id, or nil.
func (rt *Runtime) Lookup(id uuid.UUID) *Routine {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.routines[id]
}

// NumRoutines returns the number of routines currently registered.
func (rt *Runtime) NumRoutines() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return len(rt.routines)
}

// Close unregisters all routines. Routines can't be registered afterward.
func (rt *Runtime) Close() {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.closed {
		return
	}
	if len(rt.routines) > 0 {
		klog.V(1).Infof("jit: closing runtime with %d routines still registered", len(rt.routines))
	}
	clear(rt.routines)
	rt.closed = true
}

// IsClosed returns whether Close was called.
func (rt *Runtime) IsClosed() bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.closed
}

// RuntimeRef is a reference to a Runtime that records whether the holder owns it.
//
// The zero value holds no runtime.
type RuntimeRef struct {
	runtime *Runtime
	owned   bool
}

// OwnedRuntime returns a reference to a new Runtime, owned by the holder of the reference:
// Release closes it.
func OwnedRuntime() RuntimeRef {
	return RuntimeRef{runtime: NewRuntime(), owned: true}
}

// SharedRuntime returns a reference to a Runtime owned by someone else: Release leaves it open.
func SharedRuntime(rt *Runtime) RuntimeRef {
	return RuntimeRef{runtime: rt}
}

// Runtime returns the referenced runtime, or nil.
func (r RuntimeRef) Runtime() *Runtime { return r.runtime }

// IsOwned returns whether the holder of the reference owns the runtime.
func (r RuntimeRef) IsOwned() bool { return r.owned }

// Release closes the runtime if it is owned.
func (r RuntimeRef) Release() {
	if r.owned && r.runtime != nil {
		r.runtime.Close()
	}
}
