// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package jit

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/gomlx/compilednn/internal/kernels"
	"github.com/gomlx/compilednn/internal/workerspool"
	"github.com/gomlx/compilednn/pkg/support/xslices"
)

// Options configure the code emitted by an Emitter.
type Options struct {
	// VectorWidth is the unroll width of inner loops: 1, 4, 8 or 16. 0 selects 8.
	VectorWidth int

	// UseExpApprox selects the fast exponential approximation.
	UseExpApprox bool

	// MaxParallelism is the maximum number of chunks the rows of a step are split into.
	// 0 or 1 runs every step sequentially.
	MaxParallelism int

	// HalfPrecision rounds constants to IEEE half precision.
	HalfPrecision bool

	// Debug makes the routine log the time taken by every step, at klog level 2.
	Debug bool
}

const DefaultVectorWidth = 8

func (o Options) normalized() Options {
	if o.VectorWidth == 0 {
		o.VectorWidth = DefaultVectorWidth
	}
	return o
}

// Operand is the storage of one tensor value of a routine: its dimensions and a slice of
// the storage fixed at compile time.
type Operand struct {
	Dims []int
	Data []float32
}

// Size returns the number of elements of the operand.
func (o Operand) Size() int { return len(o.Data) }

// String implements fmt.Stringer.
func (o Operand) String() string {
	return fmt.Sprintf("operand%v", o.Dims)
}

// SameStorage returns whether the two operands start at the same address, which is the case for
// tensor values that share storage (e.g.: the output of a Reshape and its input).
func SameStorage(a, b Operand) bool {
	if len(a.Data) == 0 || len(b.Data) == 0 {
		return len(a.Data) == len(b.Data)
	}
	return unsafe.SliceData(a.Data) == unsafe.SliceData(b.Data)
}

// Step is one closure of a routine.
type Step struct {
	Label string
	Run   func()
}

// Emitter accumulates the steps of a routine. It is created with Runtime.NewEmitter and finished
// with Runtime.Register.
type Emitter struct {
	options   Options
	pool      *workerspool.Pool
	label     string
	steps     []Step
	constants int
}

// Options returns the (normalized) options of the emitter.
func (e *Emitter) Options() Options { return e.options }

// VectorWidth is a shortcut to Options().VectorWidth.
func (e *Emitter) VectorWidth() int { return e.options.VectorWidth }

// UseExpApprox is a shortcut to Options().UseExpApprox.
func (e *Emitter) UseExpApprox() bool { return e.options.UseExpApprox }

// SetLabel sets the label of the following steps, used when logging step timings.
func (e *Emitter) SetLabel(label string) { e.label = label }

// Emit appends a step to the routine.
func (e *Emitter) Emit(fn func()) {
	e.steps = append(e.steps, Step{Label: e.label, Run: fn})
}

// EmitRows appends a step that calls fn over the range [0, rows), split in chunks of at least
// minRows rows run in parallel when Options.MaxParallelism > 1.
func (e *Emitter) EmitRows(rows, minRows int, fn func(start, end int)) {
	if rows <= 0 {
		return
	}
	parallelism := e.options.MaxParallelism
	if parallelism <= 1 || rows < 2*max(minRows, 1) {
		e.Emit(func() { fn(0, rows) })
		return
	}
	pool := e.pool
	e.Emit(func() { pool.ParallelFor(rows, parallelism, minRows, fn) })
}

// Constant returns a copy of values owned by the routine, rounded to half precision if
// Options.HalfPrecision is set.
func (e *Emitter) Constant(values []float32) []float32 {
	if values == nil {
		return nil
	}
	c := make([]float32, len(values))
	copy(c, values)
	if e.options.HalfPrecision {
		kernels.RoundToHalf(c)
	}
	e.constants += len(c)
	return c
}

// NumSteps returns the number of steps emitted so far.
func (e *Emitter) NumSteps() int { return len(e.steps) }

// ConstantsSize returns the number of float32 constants held by the routine so far.
func (e *Emitter) ConstantsSize() int { return e.constants }

// Labels returns the labels of the emitted steps, in order.
func (e *Emitter) Labels() string {
	return strings.Join(xslices.Map(e.steps, func(s Step) string { return s.Label }), ",")
}
