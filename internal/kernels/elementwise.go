// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package kernels

import (
	"github.com/x448/float16"
)

// MergeOp is an elementwise operation over 2 or more operands.
type MergeOp int

const (
	MergeAdd MergeOp = iota
	MergeSubtract
	MergeMultiply
	MergeAverage
	MergeMaximum
	MergeMinimum
)

// Merge combines the inputs elementwise into output. All inputs must have len(output) elements.
// MergeSubtract uses only the first two inputs.
func Merge(op MergeOp, inputs [][]float32, output []float32) {
	n := len(output)
	if len(inputs) == 0 || n == 0 {
		return
	}
	if op == MergeSubtract {
		a, b := inputs[0][:n], inputs[1][:n]
		for i := range output {
			output[i] = a[i] - b[i]
		}
		return
	}
	first := inputs[0][:n]
	if &output[0] != &first[0] {
		copy(output, first)
	}
	for _, in := range inputs[1:] {
		in = in[:n]
		switch op {
		case MergeAdd, MergeAverage:
			for i, v := range in {
				output[i] += v
			}
		case MergeMultiply:
			for i, v := range in {
				output[i] *= v
			}
		case MergeMaximum:
			for i, v := range in {
				output[i] = max(output[i], v)
			}
		case MergeMinimum:
			for i, v := range in {
				output[i] = min(output[i], v)
			}
		}
	}
	if op == MergeAverage {
		inv := 1 / float32(len(inputs))
		for i := range output {
			output[i] *= inv
		}
	}
}

// ScaleShift computes output = input*scale + shift, with scale and shift indexed by the channel, the
// last axis. input and output can be the same slice.
func ScaleShift(input, output, scale, shift []float32) {
	channels := len(scale)
	if channels == 0 {
		return
	}
	for start := 0; start+channels <= len(input); start += channels {
		in := input[start : start+channels]
		out := output[start : start+channels]
		for c, v := range in {
			out[c] = v*scale[c] + shift[c]
		}
	}
}

// RoundToHalf rounds every value in place to the nearest IEEE 754 half precision value.
func RoundToHalf(data []float32) {
	for i, v := range data {
		data[i] = float16.Fromfloat32(v).Float32()
	}
}

// Uint8ToFloat32 converts in place the first len(data) bytes of data's own storage, given as
// raw, to float32 values. raw must be the byte view of data.
//
// Elements are converted from last to first, so every byte is read before the float written
// over it.
func Uint8ToFloat32(raw []byte, data []float32) {
	for i := len(raw) - 1; i >= 0; i-- {
		data[i] = float32(raw[i])
	}
}
