// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package kernels

// Conv2D computes a 2D convolution, with the kernel in [kernelHeight, kernelWidth, inChannels, outChannels] layout.
//
// bias can be nil. The output has shape [w.OutHeight, w.OutWidth, outChannels].
func Conv2D(input, kernel, bias, output []float32, w Window, inChannels, outChannels int) {
	for oy := range w.OutHeight {
		for ox := range w.OutWidth {
			out := output[(oy*w.OutWidth+ox)*outChannels : (oy*w.OutWidth+ox+1)*outChannels]
			if bias != nil {
				copy(out, bias)
			} else {
				clear(out)
			}
			for ky := range w.KernelHeight {
				iy := oy*w.StrideHeight + ky*w.DilationHeight - w.PadTop
				if iy < 0 || iy >= w.InHeight {
					continue
				}
				for kx := range w.KernelWidth {
					ix := ox*w.StrideWidth + kx*w.DilationWidth - w.PadLeft
					if ix < 0 || ix >= w.InWidth {
						continue
					}
					in := input[(iy*w.InWidth+ix)*inChannels:]
					k := kernel[(ky*w.KernelWidth+kx)*inChannels*outChannels:]
					for ci := range inChannels {
						x := in[ci]
						kRow := k[ci*outChannels : (ci+1)*outChannels]
						for co, kv := range kRow {
							out[co] += x * kv
						}
					}
				}
			}
		}
	}
}

// TransposeConvKernel re-lays a [kernelHeight, kernelWidth, inChannels, outChannels] kernel as
// [outChannels, kernelHeight, kernelWidth, inChannels], so that each output channel reads
// contiguous input channels.
func TransposeConvKernel(kernel []float32, kernelHeight, kernelWidth, inChannels, outChannels int) []float32 {
	transposed := make([]float32, len(kernel))
	for ky := range kernelHeight {
		for kx := range kernelWidth {
			for ci := range inChannels {
				for co := range outChannels {
					src := ((ky*kernelWidth+kx)*inChannels+ci)*outChannels + co
					dst := ((co*kernelHeight+ky)*kernelWidth+kx)*inChannels + ci
					transposed[dst] = kernel[src]
				}
			}
		}
	}
	return transposed
}

// Conv2DRows computes the output rows [rowStart, rowEnd) of a 2D convolution, with the kernel
// re-laid out by TransposeConvKernel. The inner products over the input channels are unrolled
// to the given width.
func Conv2DRows(input, transposedKernel, bias, output []float32, w Window, inChannels, outChannels, width, rowStart, rowEnd int) {
	kernelPlane := w.KernelHeight * w.KernelWidth * inChannels
	for oy := rowStart; oy < rowEnd; oy++ {
		for ox := range w.OutWidth {
			out := output[(oy*w.OutWidth+ox)*outChannels : (oy*w.OutWidth+ox+1)*outChannels]
			for co := range outChannels {
				var sum float32
				if bias != nil {
					sum = bias[co]
				}
				k := transposedKernel[co*kernelPlane:]
				for ky := range w.KernelHeight {
					iy := oy*w.StrideHeight + ky*w.DilationHeight - w.PadTop
					if iy < 0 || iy >= w.InHeight {
						continue
					}
					for kx := range w.KernelWidth {
						ix := ox*w.StrideWidth + kx*w.DilationWidth - w.PadLeft
						if ix < 0 || ix >= w.InWidth {
							continue
						}
						sum += Dot(input[(iy*w.InWidth+ix)*inChannels:], k[(ky*w.KernelWidth+kx)*inChannels:], inChannels, width)
					}
				}
				out[co] = sum
			}
		}
	}
}

// DepthwiseConv2DRows computes the output rows [rowStart, rowEnd) of a depthwise 2D convolution,
// with the kernel in [kernelHeight, kernelWidth, inChannels, multiplier] layout. Output channel
// ci*multiplier+m is the convolution of input channel ci with kernel (ci, m).
//
// bias can be nil.
func DepthwiseConv2DRows(input, kernel, bias, output []float32, w Window, inChannels, multiplier, rowStart, rowEnd int) {
	outChannels := inChannels * multiplier
	for oy := rowStart; oy < rowEnd; oy++ {
		for ox := range w.OutWidth {
			out := output[(oy*w.OutWidth+ox)*outChannels : (oy*w.OutWidth+ox+1)*outChannels]
			if bias != nil {
				copy(out, bias)
			} else {
				clear(out)
			}
			for ky := range w.KernelHeight {
				iy := oy*w.StrideHeight + ky*w.DilationHeight - w.PadTop
				if iy < 0 || iy >= w.InHeight {
					continue
				}
				for kx := range w.KernelWidth {
					ix := ox*w.StrideWidth + kx*w.DilationWidth - w.PadLeft
					if ix < 0 || ix >= w.InWidth {
						continue
					}
					in := input[(iy*w.InWidth+ix)*inChannels : (iy*w.InWidth+ix+1)*inChannels]
					k := kernel[(ky*w.KernelWidth+kx)*outChannels : (ky*w.KernelWidth+kx+1)*outChannels]
					for ci, x := range in {
						for m := range multiplier {
							out[ci*multiplier+m] += x * k[ci*multiplier+m]
						}
					}
				}
			}
		}
	}
}
