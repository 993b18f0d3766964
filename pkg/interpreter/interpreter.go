// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package interpreter evaluates models node by node with the generic rule of every layer.
//
// It is slower than a compiled network (see package compiler) but supports every layer, allocates
// fresh tensors for every node and can report intermediate values through a NodeCallback. It is
// used to validate compiled networks and to debug models.
package interpreter

import (
	"github.com/gomlx/compilednn/pkg/core/nnerrors"
	"github.com/gomlx/compilednn/pkg/core/tensors"
	"github.com/gomlx/compilednn/pkg/nn"
	"github.com/gomlx/compilednn/pkg/nn/layers"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// NodeCallback is called after each node is evaluated, with the node's input and output tensors.
// The tensors are owned by the interpreter and must not be changed.
type NodeCallback func(node *nn.Node, inputs, outputs []*tensors.Tensor)

// Option configures an evaluation.
type Option func(o *options)

type options struct {
	uint8Inputs nn.UInt8InputMode
}

// WithUInt8Inputs defines how inputs flagged as 8-bit are read. It is required for models with such inputs.
//
// With nn.UInt8InputsConvertInRoutine the input tensors are read through tensors.Tensor.Uint8Data (and are
// not changed), and with nn.UInt8InputsPreConverted they are read as float32 values.
func WithUInt8Inputs(mode nn.UInt8InputMode) Option {
	return func(o *options) {
		o.uint8Inputs = mode
	}
}

// Apply evaluates the model on the inputs, and copies the results to outputs. Nil outputs are allocated.
// callback, if not nil, is called after each node.
//
// It fails with an ArgumentError if the number of inputs or outputs doesn't match the model, a ShapeError if
// the dimensions of the inputs don't match the model's, and any error returned by a layer.
// Nothing is evaluated if the arguments are invalid.
func Apply(inputs, outputs []*tensors.Tensor, model *nn.Model, callback NodeCallback, opts ...Option) error {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if len(inputs) != model.NumInputs() {
		return nnerrors.Argumentf("model %q takes %d inputs, %d given", model.Name, model.NumInputs(), len(inputs))
	}
	if len(outputs) != model.NumOutputs() {
		return nnerrors.Argumentf("model %q has %d outputs, %d given", model.Name, model.NumOutputs(), len(outputs))
	}
	if model.HasUInt8Inputs() && o.uint8Inputs == nn.UInt8InputsUnspecified {
		return nnerrors.Argumentf("model %q has 8-bit inputs: use WithUInt8Inputs to select how they are read", model.Name)
	}
	order, dims, err := model.InferShapes()
	if err != nil {
		return err
	}

	values := make(map[nn.TensorLocation]*tensors.Tensor, len(dims))
	for i, loc := range model.Inputs() {
		t := inputs[i]
		if t == nil {
			return nnerrors.Argumentf("model %q: input #%d is nil", model.Name, i)
		}
		if !t.EqualDims(dims[loc]) {
			return nnerrors.Shapef("model %q: input #%d has dimensions %v, expected %v", model.Name, i, t.Dims(), dims[loc])
		}
		if model.IsInputUInt8(i) && o.uint8Inputs == nn.UInt8InputsConvertInRoutine {
			converted := tensors.New(dims[loc]...)
			data := converted.Data()
			for j, b := range t.Uint8Data() {
				data[j] = float32(b)
			}
			t = converted
		}
		values[loc] = t
	}

	for _, node := range order {
		nodeInputs := make([]*tensors.Tensor, len(node.Inputs))
		for i, loc := range node.Inputs {
			nodeInputs[i] = values[loc]
		}
		nodeOutputs := make([]*tensors.Tensor, len(node.Outputs))
		fed := true
		for i, loc := range node.Outputs {
			nodeOutputs[i] = values[loc]
			fed = fed && nodeOutputs[i] != nil
		}
		if !fed {
			for i := range nodeOutputs {
				nodeOutputs[i] = tensors.New()
			}
			if err := node.Layer.Apply(nodeInputs, nodeOutputs); err != nil {
				return errors.WithMessagef(err, "evaluating node %s", node)
			}
			for i, loc := range node.Outputs {
				values[loc] = nodeOutputs[i]
			}
		}
		if klog.V(3).Enabled() {
			klog.Infof("interpreter: %s -> %v", node, nodeOutputs)
		}
		if callback != nil {
			callback(node, nodeInputs, nodeOutputs)
		}
	}

	for i, loc := range model.Outputs() {
		if outputs[i] == nil {
			outputs[i] = tensors.New()
		}
		outputs[i].CopyFrom(values[loc])
	}
	return nil
}

// ApplyNode evaluates the single node on the inputs, one per node input. The node's shapes must be resolved.
// See Apply.
func ApplyNode(inputs, outputs []*tensors.Tensor, node *nn.Node, opts ...Option) error {
	model, err := layers.ModelForNode(node)
	if err != nil {
		return err
	}
	return Apply(inputs, outputs, model, nil, opts...)
}

// ApplyFile loads the model from filename and evaluates it. See nn.Model.Load and Apply.
func ApplyFile(inputs, outputs []*tensors.Tensor, filename string, callback NodeCallback, opts ...Option) error {
	model, err := nn.LoadModel(filename)
	if err != nil {
		return err
	}
	return Apply(inputs, outputs, model, callback, opts...)
}
