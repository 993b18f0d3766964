// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package layers

import (
	"github.com/gomlx/compilednn/internal/kernels"
	"github.com/gomlx/compilednn/pkg/core/tensors"
	"github.com/gomlx/compilednn/pkg/jit"
	"github.com/gomlx/compilednn/pkg/nn"
	"github.com/pkg/errors"
)

// Padding mode of windowed layers.
type Padding string

const (
	PaddingValid Padding = "valid"
	PaddingSame  Padding = "same"
)

func (p Padding) isSame() (bool, error) {
	switch p {
	case "", PaddingValid:
		return false, nil
	case PaddingSame:
		return true, nil
	}
	return false, errors.Errorf("unknown padding %q", string(p))
}

// Conv2D is a 2D convolution over a [height, width, channels] input.
//
// Kernel has shape [kernelHeight, kernelWidth, inChannels, outChannels], Bias (optional) shape [outChannels].
// Strides and DilationRate default to 1.
type Conv2D struct {
	base
	Kernel       *tensors.Tensor `json:"kernel"`
	Bias         *tensors.Tensor `json:"bias,omitempty"`
	Strides      [2]int          `json:"strides"`
	DilationRate [2]int          `json:"dilation_rate"`
	Padding      Padding         `json:"padding"`
	Activation   Activation      `json:"activation,omitempty"`
}

// NewConv2D returns a Conv2D layer with unit strides and dilation.
func NewConv2D(name string, kernel, bias *tensors.Tensor, padding Padding, activation Activation) *Conv2D {
	return &Conv2D{
		base: base{LayerName: name}, Kernel: kernel, Bias: bias,
		Strides: [2]int{1, 1}, DilationRate: [2]int{1, 1},
		Padding: padding, Activation: activation,
	}
}

func (l *Conv2D) JSONTags() (string, string) { return "Conv2D", nn.LayerInterfaceName }
func (l *Conv2D) Kind() nn.Kind              { return nn.KindConv2D }

// NumParameters implements nn.ParameterCounter.
func (l *Conv2D) NumParameters() int {
	return tensorSize(l.Kernel) + tensorSize(l.Bias)
}

// window validates the layer against the input dimensions and returns the convolution window.
func (l *Conv2D) window(inputs [][]int) (kernels.Window, error) {
	if err := expectRank(l, inputs, 3); err != nil {
		return kernels.Window{}, err
	}
	if l.Kernel == nil || l.Kernel.Rank() != 4 {
		return kernels.Window{}, shapeErrorf(l, "kernel must have rank 4")
	}
	if err := l.Activation.Validate(); err != nil {
		return kernels.Window{}, errors.WithMessagef(err, "%s %q", l.Kind(), l.Name())
	}
	kDims := l.Kernel.Dims()
	in := inputs[0]
	if in[2] != kDims[2] {
		return kernels.Window{}, shapeErrorf(l, "input has %d channels, kernel %v expects %d", in[2], kDims, kDims[2])
	}
	if l.Bias != nil && l.Bias.Size() != kDims[3] {
		return kernels.Window{}, shapeErrorf(l, "bias has %d elements, expected %d", l.Bias.Size(), kDims[3])
	}
	same, err := l.Padding.isSame()
	if err != nil {
		return kernels.Window{}, shapeErrorf(l, "%v", err)
	}
	strides, dilation := orOne(l.Strides), orOne(l.DilationRate)
	w, err := kernels.NewWindow(in[0], in[1], kDims[0], kDims[1], strides[0], strides[1], dilation[0], dilation[1], same)
	if err != nil {
		return w, shapeErrorf(l, "%v", err)
	}
	return w, nil
}

func (l *Conv2D) OutputDimensions(inputs [][]int) ([][]int, error) {
	w, err := l.window(inputs)
	if err != nil {
		return nil, err
	}
	return [][]int{{w.OutHeight, w.OutWidth, l.Kernel.Dim(3)}}, nil
}

func (l *Conv2D) Apply(inputs, outputs []*tensors.Tensor) error {
	if err := prepare(l, inputs, outputs); err != nil {
		return err
	}
	w, _ := l.window([][]int{inputs[0].Dims()})
	inChannels, outChannels := l.Kernel.Dim(2), l.Kernel.Dim(3)
	out := outputs[0].Data()
	kernels.Conv2D(inputs[0].Data(), l.Kernel.Data(), tensorData(l.Bias), out, w, inChannels, outChannels)
	l.Activation.Apply(out, outChannels, false)
	return nil
}

// Generate emits the convolution with the kernel re-laid out as [outChannels, kernelHeight, kernelWidth, inChannels],
// and the output rows split among workers.
func (l *Conv2D) Generate(e *jit.Emitter, inputs, outputs []jit.Operand) error {
	if err := checkOperands(l, inputs, outputs, 1); err != nil {
		return err
	}
	w, err := l.window([][]int{inputs[0].Dims})
	if err != nil {
		return err
	}
	kDims := l.Kernel.Dims()
	inChannels, outChannels := kDims[2], kDims[3]
	kernel := e.Constant(kernels.TransposeConvKernel(l.Kernel.Data(), kDims[0], kDims[1], inChannels, outChannels))
	bias := e.Constant(tensorData(l.Bias))
	in, out, width := inputs[0].Data, outputs[0].Data, e.VectorWidth()
	e.EmitRows(w.OutHeight, 1, func(start, end int) {
		kernels.Conv2DRows(in, kernel, bias, out, w, inChannels, outChannels, width, start, end)
	})
	l.Activation.emit(e, outputs[0])
	return nil
}

// DepthwiseConv2D convolves each input channel with its own set of DepthMultiplier filters.
//
// Kernel has shape [kernelHeight, kernelWidth, inChannels, depthMultiplier], Bias (optional) shape
// [inChannels*depthMultiplier]. Output channel c*depthMultiplier+m is input channel c convolved with filter m.
type DepthwiseConv2D struct {
	base
	Kernel       *tensors.Tensor `json:"kernel"`
	Bias         *tensors.Tensor `json:"bias,omitempty"`
	Strides      [2]int          `json:"strides"`
	DilationRate [2]int          `json:"dilation_rate"`
	Padding      Padding         `json:"padding"`
	Activation   Activation      `json:"activation,omitempty"`
}

// NewDepthwiseConv2D returns a DepthwiseConv2D layer with unit strides and dilation.
func NewDepthwiseConv2D(name string, kernel, bias *tensors.Tensor, padding Padding, activation Activation) *DepthwiseConv2D {
	return &DepthwiseConv2D{
		base: base{LayerName: name}, Kernel: kernel, Bias: bias,
		Strides: [2]int{1, 1}, DilationRate: [2]int{1, 1},
		Padding: padding, Activation: activation,
	}
}

func (l *DepthwiseConv2D) JSONTags() (string, string) {
	return "DepthwiseConv2D", nn.LayerInterfaceName
}
func (l *DepthwiseConv2D) Kind() nn.Kind { return nn.KindDepthwiseConv2D }

// NumParameters implements nn.ParameterCounter.
func (l *DepthwiseConv2D) NumParameters() int {
	return tensorSize(l.Kernel) + tensorSize(l.Bias)
}

func (l *DepthwiseConv2D) window(inputs [][]int) (kernels.Window, error) {
	if err := expectRank(l, inputs, 3); err != nil {
		return kernels.Window{}, err
	}
	if l.Kernel == nil || l.Kernel.Rank() != 4 {
		return kernels.Window{}, shapeErrorf(l, "kernel must have rank 4")
	}
	if err := l.Activation.Validate(); err != nil {
		return kernels.Window{}, errors.WithMessagef(err, "%s %q", l.Kind(), l.Name())
	}
	kDims := l.Kernel.Dims()
	in := inputs[0]
	if in[2] != kDims[2] {
		return kernels.Window{}, shapeErrorf(l, "input has %d channels, kernel %v expects %d", in[2], kDims, kDims[2])
	}
	if l.Bias != nil && l.Bias.Size() != kDims[2]*kDims[3] {
		return kernels.Window{}, shapeErrorf(l, "bias has %d elements, expected %d", l.Bias.Size(), kDims[2]*kDims[3])
	}
	same, err := l.Padding.isSame()
	if err != nil {
		return kernels.Window{}, shapeErrorf(l, "%v", err)
	}
	strides, dilation := orOne(l.Strides), orOne(l.DilationRate)
	w, err := kernels.NewWindow(in[0], in[1], kDims[0], kDims[1], strides[0], strides[1], dilation[0], dilation[1], same)
	if err != nil {
		return w, shapeErrorf(l, "%v", err)
	}
	return w, nil
}

func (l *DepthwiseConv2D) OutputDimensions(inputs [][]int) ([][]int, error) {
	w, err := l.window(inputs)
	if err != nil {
		return nil, err
	}
	return [][]int{{w.OutHeight, w.OutWidth, l.Kernel.Dim(2) * l.Kernel.Dim(3)}}, nil
}

func (l *DepthwiseConv2D) Apply(inputs, outputs []*tensors.Tensor) error {
	if err := prepare(l, inputs, outputs); err != nil {
		return err
	}
	w, _ := l.window([][]int{inputs[0].Dims()})
	inChannels, multiplier := l.Kernel.Dim(2), l.Kernel.Dim(3)
	out := outputs[0].Data()
	kernels.DepthwiseConv2DRows(inputs[0].Data(), l.Kernel.Data(), tensorData(l.Bias), out, w, inChannels, multiplier, 0, w.OutHeight)
	l.Activation.Apply(out, inChannels*multiplier, false)
	return nil
}

func (l *DepthwiseConv2D) Generate(e *jit.Emitter, inputs, outputs []jit.Operand) error {
	if err := checkOperands(l, inputs, outputs, 1); err != nil {
		return err
	}
	w, err := l.window([][]int{inputs[0].Dims})
	if err != nil {
		return err
	}
	inChannels, multiplier := l.Kernel.Dim(2), l.Kernel.Dim(3)
	kernel := e.Constant(l.Kernel.Data())
	bias := e.Constant(tensorData(l.Bias))
	in, out := inputs[0].Data, outputs[0].Data
	e.EmitRows(w.OutHeight, 1, func(start, end int) {
		kernels.DepthwiseConv2DRows(in, kernel, bias, out, w, inChannels, multiplier, start, end)
	})
	l.Activation.emit(e, outputs[0])
	return nil
}
