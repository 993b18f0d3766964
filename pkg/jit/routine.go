// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package jit

import (
	"time"

	"github.com/google/uuid"
	"k8s.io/klog/v2"
)

// Routine is a finished, registered sequence of steps.
//
// Run is not reentrant: steps read and write fixed storage.
type Routine struct {
	id        uuid.UUID
	name      string
	steps     []Step
	constants int
	debug     bool
}

// ID returns the unique identifier assigned at registration.
func (r *Routine) ID() uuid.UUID { return r.id }

// Name returns the name given at registration.
func (r *Routine) Name() string { return r.name }

// NumSteps returns the number of steps of the routine.
func (r *Routine) NumSteps() int { return len(r.steps) }

// ConstantsSize returns the number of float32 constants held by the routine.
func (r *Routine) ConstantsSize() int { return r.constants }

// Run executes all steps in order.
func (r *Routine) Run() {
	if r.debug {
		r.runWithTimings()
		return
	}
	for _, step := range r.steps {
		step.Run()
	}
}

func (r *Routine) runWithTimings() {
	start := time.Now()
	for i, step := range r.steps {
		stepStart := time.Now()
		step.Run()
		klog.V(2).Infof("%s: step #%d (%s): %s", r.name, i, step.Label, time.Since(stepStart))
	}
	klog.V(2).Infof("%s: %d steps in %s", r.name, len(r.steps), time.Since(start))
}
