// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package compiler compiles a neural network model into a routine that evaluates it on pre-planned storage.
//
// Typical use:
//
//	c := compiler.New()
//	defer c.Close()
//	if err := c.Compile(model, compiler.DefaultSettings()); err != nil { ... }
//	input, _ := c.Input(0)
//	copy(input.Data(), values)
//	_ = c.Apply()
//	output, _ := c.Output(0)
//
// The input and output tensors are bound at compile time: Apply reads the inputs and writes the outputs
// in place, without any allocation.
package compiler

import (
	"github.com/dustin/go-humanize"
	"github.com/gomlx/compilednn/internal/kernels"
	"github.com/gomlx/compilednn/pkg/core/nnerrors"
	"github.com/gomlx/compilednn/pkg/core/shapes"
	"github.com/gomlx/compilednn/pkg/core/tensors"
	"github.com/gomlx/compilednn/pkg/jit"
	"github.com/gomlx/compilednn/pkg/nn"
	"github.com/gomlx/compilednn/pkg/nn/layers"
	"github.com/gomlx/compilednn/pkg/support/sets"
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// CompiledNN is a compiled neural network.
//
// It is created invalid with New, and becomes valid after a successful Compile. Apply is not safe for
// concurrent use: it reads and writes the bound tensors. Separate instances can be used concurrently.
type CompiledNN struct {
	runtime jit.RuntimeRef
	closed  bool

	// Compiled state, replaced as a whole by a successful compilation.
	state *compiledState
}

type compiledState struct {
	routine  *jit.Routine
	inputs   []*tensors.Tensor
	outputs  []*tensors.Tensor
	arena    []float32
	plan     *BufferPlan
	settings Settings
}

// Option configures a CompiledNN.
type Option func(c *CompiledNN)

// WithRuntime makes the CompiledNN use the given runtime, owned by the caller, instead of creating its own.
// Close then leaves the runtime open.
func WithRuntime(rt *jit.Runtime) Option {
	return func(c *CompiledNN) {
		c.runtime = jit.SharedRuntime(rt)
	}
}

// New returns an invalid CompiledNN, ready to compile a model.
func New(opts ...Option) *CompiledNN {
	c := &CompiledNN{}
	for _, opt := range opts {
		opt(c)
	}
	if c.runtime.Runtime() == nil {
		c.runtime = jit.OwnedRuntime()
	}
	return c
}

// Runtime returns the runtime where routines are registered.
func (c *CompiledNN) Runtime() *jit.Runtime { return c.runtime.Runtime() }

// Valid returns whether the last compilation succeeded and the CompiledNN is not closed.
func (c *CompiledNN) Valid() bool {
	return !c.closed && c.state != nil
}

// Compile compiles the model, replacing any previous compilation. The model's shapes are inferred
// but its nodes are not changed.
//
// It fails with a ShapeError, UnsupportedOperationError or CompilationError, in which case the
// CompiledNN is left unchanged.
func (c *CompiledNN) Compile(model *nn.Model, settings Settings) error {
	if c.closed {
		return nnerrors.InvalidStatef("compiling %q: CompiledNN is closed", model.Name)
	}
	var state *compiledState
	var err error
	exception := exceptions.TryCatch[error](func() {
		state, err = c.compile(model, settings)
	})
	if exception != nil {
		err = errors.WithMessagef(nnerrors.ErrCompilation, "compiling %q: %v", model.Name, exception)
	}
	if err != nil {
		return err
	}
	c.release()
	c.state = state
	return nil
}

// CompileNode compiles a model with the single node, fed by its own inputs. The node's shapes must be resolved.
//
// Inputs and outputs of the CompiledNN are the node's inputs and outputs, in order.
func (c *CompiledNN) CompileNode(node *nn.Node, settings Settings) error {
	model, err := layers.ModelForNode(node)
	if err != nil {
		return err
	}
	return c.Compile(model, settings)
}

// CompileFile loads the model from filename and compiles it. See nn.Model.Load and Compile.
func (c *CompiledNN) CompileFile(filename string, settings Settings) error {
	model, err := nn.LoadModel(filename)
	if err != nil {
		return err
	}
	return c.Compile(model, settings)
}

func (c *CompiledNN) compile(model *nn.Model, settings Settings) (*compiledState, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	order, dims, err := model.InferShapes()
	if err != nil {
		return nil, err
	}
	if model.HasUInt8Inputs() && settings.UInt8Inputs == UInt8InputsUnspecified {
		return nil, nnerrors.Compilationf("model %q has 8-bit inputs: the setting UInt8Inputs must be given", model.Name)
	}
	seen := sets.Make[nn.TensorLocation]()
	for i, loc := range model.Inputs() {
		if !seen.InsertNew(loc) {
			return nil, nnerrors.Compilationf("model %q: input #%d %s is listed more than once", model.Name, i, loc)
		}
	}
	for _, node := range order {
		if _, ok := node.Layer.(nn.Generator); !ok {
			return nil, nnerrors.Unsupportedf("node %s: layer kind %s can only be evaluated by the interpreter", node, node.Layer.Kind())
		}
	}

	state := &compiledState{settings: settings}
	state.inputs = make([]*tensors.Tensor, model.NumInputs())
	for i, loc := range model.Inputs() {
		state.inputs[i] = tensors.New(dims[loc]...)
	}
	state.outputs = make([]*tensors.Tensor, model.NumOutputs())
	for i, loc := range model.Outputs() {
		state.outputs[i] = tensors.New(dims[loc]...)
	}
	state.plan = PlanBuffers(model, order, dims, settings.DisableBufferReuse)
	state.arena = make([]float32, state.plan.ArenaSize)

	rt := c.runtime.Runtime()
	e := rt.NewEmitter(settings.jitOptions())
	operands := func(locs []nn.TensorLocation) []jit.Operand {
		ops := make([]jit.Operand, len(locs))
		for i, loc := range locs {
			ops[i] = state.operand(loc, dims[loc])
		}
		return ops
	}

	// 8-bit inputs are converted in place, before anything else.
	if settings.UInt8Inputs == UInt8InputsConvertInRoutine {
		for i, t := range state.inputs {
			if !model.IsInputUInt8(i) || t.Size() == 0 {
				continue
			}
			raw, data := t.Uint8Data(), t.Data()
			e.SetLabel("uint8-input")
			e.Emit(func() { kernels.Uint8ToFloat32(raw, data) })
		}
	}

	for _, node := range order {
		if node.Layer.Kind() == nn.KindInput {
			continue
		}
		e.SetLabel(node.String())
		inputs, outputs := operands(node.Inputs), operands(node.Outputs)
		if err := node.Layer.(nn.Generator).Generate(e, inputs, outputs); err != nil {
			return nil, errors.WithMessagef(err, "node %s", node)
		}
		if settings.Precision == Float16 {
			emitRounding(e, inputs, outputs)
		}
	}

	// Outputs that are also graph inputs, or are repeated, are copied from the buffer holding them.
	e.SetLabel("outputs")
	for i, loc := range model.Outputs() {
		b := state.plan.Buffer(loc)
		if b.Kind == StorageOutput && b.Index == i {
			continue
		}
		src, dst := state.operand(loc, dims[loc]).Data, state.outputs[i].Data()
		e.Emit(func() { copy(dst, src) })
	}

	name := model.Name
	if name == "" {
		name = "model"
	}
	numSteps, constants := e.NumSteps(), e.ConstantsSize()
	state.routine, err = rt.Register(name, e)
	if err != nil {
		return nil, err
	}
	klog.V(1).Infof("compiled %q: %d nodes in %d steps, %s constants, %s",
		name, len(order), numSteps, humanize.Bytes(uint64(shapes.Make(dtypes.Float32, constants).Memory())), state.plan)
	return state, nil
}

// emitRounding rounds the outputs of a node to half precision. Outputs sharing storage with an input are
// skipped, their values are already rounded.
func emitRounding(e *jit.Emitter, inputs, outputs []jit.Operand) {
	for _, out := range outputs {
		aliased := false
		for _, in := range inputs {
			aliased = aliased || jit.SameStorage(in, out)
		}
		if !aliased && out.Size() > 0 {
			data := out.Data
			e.Emit(func() { kernels.RoundToHalf(data) })
		}
	}
}

// operand returns the storage planned for the value at loc.
func (s *compiledState) operand(loc nn.TensorLocation, dims []int) jit.Operand {
	b := s.plan.Buffer(loc)
	size := shapes.Size(dims)
	var data []float32
	switch b.Kind {
	case StorageInput:
		data = s.inputs[b.Index].Data()
	case StorageOutput:
		data = s.outputs[b.Index].Data()
	default:
		data = s.arena[b.Offset : b.Offset+size : b.Offset+size]
	}
	return jit.Operand{Dims: dims, Data: data[:size:size]}
}

// release unregisters the current routine, if any.
func (c *CompiledNN) release() {
	if c.state != nil {
		c.runtime.Runtime().Unregister(c.state.routine)
		c.state = nil
	}
}

// Clear drops the compiled state: the CompiledNN becomes invalid, but it can be compiled again.
func (c *CompiledNN) Clear() {
	c.release()
}

// Close releases the compiled routine and, if owned, the runtime. The CompiledNN can't be used afterward.
func (c *CompiledNN) Close() {
	if c.closed {
		return
	}
	c.release()
	c.runtime.Release()
	c.closed = true
}

// checkValid fails with an InvalidStateError if the CompiledNN is not valid.
func (c *CompiledNN) checkValid(operation string) error {
	if c.closed {
		return nnerrors.InvalidStatef("%s: CompiledNN is closed", operation)
	}
	if c.state == nil {
		return nnerrors.InvalidStatef("%s: CompiledNN has not been successfully compiled", operation)
	}
	return nil
}

// Apply evaluates the network: it reads the bound input tensors and writes the bound output tensors.
//
// It fails with an InvalidStateError if the CompiledNN is not valid. The inputs are not validated.
func (c *CompiledNN) Apply() error {
	if err := c.checkValid("Apply"); err != nil {
		return err
	}
	c.state.routine.Run()
	return nil
}

// NumInputs returns the number of input tensors, or 0 if the CompiledNN is not valid.
func (c *CompiledNN) NumInputs() int {
	if !c.Valid() {
		return 0
	}
	return len(c.state.inputs)
}

// NumOutputs returns the number of output tensors, or 0 if the CompiledNN is not valid.
func (c *CompiledNN) NumOutputs() int {
	if !c.Valid() {
		return 0
	}
	return len(c.state.outputs)
}

// Input returns the bound input tensor i. Its dimensions must not be changed.
//
// Inputs flagged as 8-bit, compiled with UInt8InputsConvertInRoutine, are written through Tensor.Uint8Data
// before every Apply.
func (c *CompiledNN) Input(i int) (*tensors.Tensor, error) {
	if err := c.checkValid("Input"); err != nil {
		return nil, err
	}
	if i < 0 || i >= len(c.state.inputs) {
		return nil, nnerrors.Argumentf("input #%d out of range: there are %d inputs", i, len(c.state.inputs))
	}
	return c.state.inputs[i], nil
}

// Output returns the bound output tensor i, written by Apply. Its dimensions must not be changed.
func (c *CompiledNN) Output(i int) (*tensors.Tensor, error) {
	if err := c.checkValid("Output"); err != nil {
		return nil, err
	}
	if i < 0 || i >= len(c.state.outputs) {
		return nil, nnerrors.Argumentf("output #%d out of range: there are %d outputs", i, len(c.state.outputs))
	}
	return c.state.outputs[i], nil
}

// Plan returns the buffer plan of the compilation, or nil if the CompiledNN is not valid.
func (c *CompiledNN) Plan() *BufferPlan {
	if !c.Valid() {
		return nil
	}
	return c.state.plan
}

// Settings returns the settings of the compilation, or the zero Settings if the CompiledNN is not valid.
func (c *CompiledNN) Settings() Settings {
	if !c.Valid() {
		return Settings{}
	}
	return c.state.settings
}
