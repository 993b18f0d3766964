// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package kernels

import "math"

// MaxPool2DRows computes the output rows [rowStart, rowEnd) of a 2D max pooling.
// Padded positions are ignored.
func MaxPool2DRows(input, output []float32, w Window, channels, rowStart, rowEnd int) {
	for oy := rowStart; oy < rowEnd; oy++ {
		for ox := range w.OutWidth {
			out := output[(oy*w.OutWidth+ox)*channels : (oy*w.OutWidth+ox+1)*channels]
			for c := range out {
				out[c] = float32(math.Inf(-1))
			}
			for ky := range w.KernelHeight {
				iy := oy*w.StrideHeight + ky - w.PadTop
				if iy < 0 || iy >= w.InHeight {
					continue
				}
				for kx := range w.KernelWidth {
					ix := ox*w.StrideWidth + kx - w.PadLeft
					if ix < 0 || ix >= w.InWidth {
						continue
					}
					in := input[(iy*w.InWidth+ix)*channels : (iy*w.InWidth+ix+1)*channels]
					for c, v := range in {
						out[c] = max(out[c], v)
					}
				}
			}
		}
	}
}

// AveragePool2DRows computes the output rows [rowStart, rowEnd) of a 2D average pooling.
// Padded positions are excluded from the average.
func AveragePool2DRows(input, output []float32, w Window, channels, rowStart, rowEnd int) {
	for oy := rowStart; oy < rowEnd; oy++ {
		for ox := range w.OutWidth {
			out := output[(oy*w.OutWidth+ox)*channels : (oy*w.OutWidth+ox+1)*channels]
			clear(out)
			count := 0
			for ky := range w.KernelHeight {
				iy := oy*w.StrideHeight + ky - w.PadTop
				if iy < 0 || iy >= w.InHeight {
					continue
				}
				for kx := range w.KernelWidth {
					ix := ox*w.StrideWidth + kx - w.PadLeft
					if ix < 0 || ix >= w.InWidth {
						continue
					}
					count++
					in := input[(iy*w.InWidth+ix)*channels : (iy*w.InWidth+ix+1)*channels]
					for c, v := range in {
						out[c] += v
					}
				}
			}
			if count > 0 {
				inv := 1 / float32(count)
				for c := range out {
					out[c] *= inv
				}
			}
		}
	}
}

// GlobalMaxPool2D reduces every channel of a [height*width, channels] input to its maximum.
func GlobalMaxPool2D(input, output []float32, channels int) {
	for c := range output[:channels] {
		output[c] = float32(math.Inf(-1))
	}
	for start := 0; start+channels <= len(input); start += channels {
		for c, v := range input[start : start+channels] {
			output[c] = max(output[c], v)
		}
	}
}

// GlobalAveragePool2D reduces every channel of a [height*width, channels] input to its mean.
func GlobalAveragePool2D(input, output []float32, channels int) {
	out := output[:channels]
	clear(out)
	if channels == 0 {
		return
	}
	numPositions := len(input) / channels
	for start := 0; start+channels <= len(input); start += channels {
		for c, v := range input[start : start+channels] {
			out[c] += v
		}
	}
	if numPositions > 0 {
		inv := 1 / float32(numPositions)
		for c := range out {
			out[c] *= inv
		}
	}
}
