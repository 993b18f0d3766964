// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package layers

import (
	"github.com/gomlx/compilednn/internal/kernels"
	"github.com/gomlx/compilednn/pkg/core/tensors"
	"github.com/gomlx/compilednn/pkg/jit"
	"github.com/gomlx/compilednn/pkg/nn"
)

// PoolingOperation is the reduction of a pooling layer.
type PoolingOperation string

const (
	PoolingMax     PoolingOperation = "max"
	PoolingAverage PoolingOperation = "average"
)

// Pooling2D reduces windows of a [height, width, channels] input with the maximum or the average.
// Padded positions are ignored by both reductions.
//
// Strides default to PoolSize.
type Pooling2D struct {
	base
	Operation PoolingOperation `json:"operation"`
	PoolSize  [2]int           `json:"pool_size"`
	Strides   [2]int           `json:"strides"`
	Padding   Padding          `json:"padding"`
}

// NewMaxPooling2D returns a max pooling layer with strides equal to the pool size.
func NewMaxPooling2D(name string, poolSize [2]int, padding Padding) *Pooling2D {
	return &Pooling2D{base: base{LayerName: name}, Operation: PoolingMax, PoolSize: poolSize, Strides: poolSize, Padding: padding}
}

// NewAveragePooling2D returns an average pooling layer with strides equal to the pool size.
func NewAveragePooling2D(name string, poolSize [2]int, padding Padding) *Pooling2D {
	return &Pooling2D{base: base{LayerName: name}, Operation: PoolingAverage, PoolSize: poolSize, Strides: poolSize, Padding: padding}
}

func (l *Pooling2D) JSONTags() (string, string) { return "Pooling2D", nn.LayerInterfaceName }

func (l *Pooling2D) Kind() nn.Kind {
	switch l.Operation {
	case PoolingMax:
		return nn.KindMaxPooling2D
	case PoolingAverage:
		return nn.KindAveragePooling2D
	}
	return nn.KindInvalid
}

func (l *Pooling2D) window(inputs [][]int) (kernels.Window, error) {
	if l.Kind() == nn.KindInvalid {
		return kernels.Window{}, shapeErrorf(l, "unknown pooling operation %q", string(l.Operation))
	}
	if err := expectRank(l, inputs, 3); err != nil {
		return kernels.Window{}, err
	}
	same, err := l.Padding.isSame()
	if err != nil {
		return kernels.Window{}, shapeErrorf(l, "%v", err)
	}
	strides := l.Strides
	if strides[0] <= 0 || strides[1] <= 0 {
		strides = l.PoolSize
	}
	in := inputs[0]
	w, err := kernels.NewWindow(in[0], in[1], l.PoolSize[0], l.PoolSize[1], strides[0], strides[1], 1, 1, same)
	if err != nil {
		return w, shapeErrorf(l, "%v", err)
	}
	return w, nil
}

func (l *Pooling2D) OutputDimensions(inputs [][]int) ([][]int, error) {
	w, err := l.window(inputs)
	if err != nil {
		return nil, err
	}
	return [][]int{{w.OutHeight, w.OutWidth, inputs[0][2]}}, nil
}

func (l *Pooling2D) pool(input, output []float32, w kernels.Window, channels, start, end int) {
	if l.Operation == PoolingMax {
		kernels.MaxPool2DRows(input, output, w, channels, start, end)
	} else {
		kernels.AveragePool2DRows(input, output, w, channels, start, end)
	}
}

func (l *Pooling2D) Apply(inputs, outputs []*tensors.Tensor) error {
	if err := prepare(l, inputs, outputs); err != nil {
		return err
	}
	w, _ := l.window([][]int{inputs[0].Dims()})
	l.pool(inputs[0].Data(), outputs[0].Data(), w, inputs[0].Dim(2), 0, w.OutHeight)
	return nil
}

func (l *Pooling2D) Generate(e *jit.Emitter, inputs, outputs []jit.Operand) error {
	if err := checkOperands(l, inputs, outputs, 1); err != nil {
		return err
	}
	w, err := l.window([][]int{inputs[0].Dims})
	if err != nil {
		return err
	}
	in, out, channels := inputs[0].Data, outputs[0].Data, inputs[0].Dims[2]
	e.EmitRows(w.OutHeight, 1, func(start, end int) {
		l.pool(in, out, w, channels, start, end)
	})
	return nil
}

// GlobalPooling2D reduces the spatial axes of a [height, width, channels] input to a [channels] output.
type GlobalPooling2D struct {
	base
	Operation PoolingOperation `json:"operation"`
}

// NewGlobalMaxPooling2D returns a global max pooling layer.
func NewGlobalMaxPooling2D(name string) *GlobalPooling2D {
	return &GlobalPooling2D{base: base{LayerName: name}, Operation: PoolingMax}
}

// NewGlobalAveragePooling2D returns a global average pooling layer.
func NewGlobalAveragePooling2D(name string) *GlobalPooling2D {
	return &GlobalPooling2D{base: base{LayerName: name}, Operation: PoolingAverage}
}

func (l *GlobalPooling2D) JSONTags() (string, string) {
	return "GlobalPooling2D", nn.LayerInterfaceName
}

func (l *GlobalPooling2D) Kind() nn.Kind {
	switch l.Operation {
	case PoolingMax:
		return nn.KindGlobalMaxPooling2D
	case PoolingAverage:
		return nn.KindGlobalAveragePooling2D
	}
	return nn.KindInvalid
}

func (l *GlobalPooling2D) OutputDimensions(inputs [][]int) ([][]int, error) {
	if l.Kind() == nn.KindInvalid {
		return nil, shapeErrorf(l, "unknown pooling operation %q", string(l.Operation))
	}
	if err := expectRank(l, inputs, 3); err != nil {
		return nil, err
	}
	return [][]int{{inputs[0][2]}}, nil
}

func (l *GlobalPooling2D) pool(input, output []float32, channels int) {
	if l.Operation == PoolingMax {
		kernels.GlobalMaxPool2D(input, output, channels)
	} else {
		kernels.GlobalAveragePool2D(input, output, channels)
	}
}

func (l *GlobalPooling2D) Apply(inputs, outputs []*tensors.Tensor) error {
	if err := prepare(l, inputs, outputs); err != nil {
		return err
	}
	l.pool(inputs[0].Data(), outputs[0].Data(), inputs[0].Dim(2))
	return nil
}

func (l *GlobalPooling2D) Generate(e *jit.Emitter, inputs, outputs []jit.Operand) error {
	if err := checkOperands(l, inputs, outputs, 1); err != nil {
		return err
	}
	in, out, channels := inputs[0].Data, outputs[0].Data, inputs[0].Dims[2]
	e.Emit(func() { l.pool(in, out, channels) })
	return nil
}
