// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package kernels

import (
	"github.com/gomlx/compilednn/pkg/core/shapes"
	"github.com/gomlx/gopjrt/dtypes"
)

// Pad2D copies a [height, width, channels] input to the center of a zero-filled output with
// top, bottom, left and right padding.
func Pad2D(input, output []float32, height, width, channels, top, bottom, left, right int) {
	outWidth := width + left + right
	clear(output[:(height+top+bottom)*outWidth*channels])
	rowSize := width * channels
	for y := range height {
		dst := ((y+top)*outWidth + left) * channels
		copy(output[dst:dst+rowSize], input[y*rowSize:(y+1)*rowSize])
	}
}

// Crop2D copies the [top:height-bottom, left:width-right, :] region of a [height, width, channels] input.
func Crop2D(input, output []float32, height, width, channels, top, bottom, left, right int) {
	outHeight := height - top - bottom
	outWidth := width - left - right
	rowSize := outWidth * channels
	for y := range outHeight {
		src := ((y+top)*width + left) * channels
		copy(output[y*rowSize:(y+1)*rowSize], input[src:src+rowSize])
	}
}

// UpSample2D repeats every row sizeHeight times and every column sizeWidth times (nearest neighbor).
func UpSample2D(input, output []float32, height, width, channels, sizeHeight, sizeWidth int) {
	outWidth := width * sizeWidth
	outRowSize := outWidth * channels
	for y := range height {
		rowStart := y * sizeHeight * outRowSize
		outRow := output[rowStart : rowStart+outRowSize]
		for x := range width {
			src := input[(y*width+x)*channels : (y*width+x+1)*channels]
			for r := range sizeWidth {
				copy(outRow[(x*sizeWidth+r)*channels:], src)
			}
		}
		for r := 1; r < sizeHeight; r++ {
			copy(output[rowStart+r*outRowSize:rowStart+(r+1)*outRowSize], outRow)
		}
	}
}

// Concatenate joins inputs along axis. inputsDims holds the dimensions of each input, which must
// only differ on axis.
func Concatenate(inputs [][]float32, inputsDims [][]int, output []float32, axis int) {
	if len(inputs) == 0 {
		return
	}
	dims := inputsDims[0]
	outer := 1
	for _, d := range dims[:axis] {
		outer *= d
	}
	inner := 1
	for _, d := range dims[axis+1:] {
		inner *= d
	}
	pos := 0
	for o := range outer {
		for i, in := range inputs {
			chunk := inputsDims[i][axis] * inner
			copy(output[pos:pos+chunk], in[o*chunk:(o+1)*chunk])
			pos += chunk
		}
	}
}

// Transpose permutes the axes of an input with the given dimensions: output axis i is input axis perm[i].
func Transpose(input, output []float32, dims, perm []int) {
	inStrides := shapes.Strides(dims)
	outDims := make([]int, len(dims))
	strides := make([]int, len(dims))
	for i, p := range perm {
		outDims[i] = dims[p]
		strides[i] = inStrides[p]
	}
	for i, indices := range shapes.Make(dtypes.Float32, outDims...).Iter() {
		src := 0
		for axis, index := range indices {
			src += index * strides[axis]
		}
		output[i] = input[src]
	}
}
