// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package kernels

import (
	"github.com/pkg/errors"
)

// Window describes a 2D sliding window (convolution kernel or pooling window) over a [height, width, channels] input.
type Window struct {
	// InHeight, InWidth of the input.
	InHeight, InWidth int

	// OutHeight, OutWidth of the output.
	OutHeight, OutWidth int

	// KernelHeight, KernelWidth are the size of the window.
	KernelHeight, KernelWidth int

	// StrideHeight, StrideWidth of the window.
	StrideHeight, StrideWidth int

	// DilationHeight, DilationWidth, 1 for contiguous windows.
	DilationHeight, DilationWidth int

	// PadTop, PadLeft are the number of implicit rows/columns before the input.
	PadTop, PadLeft int
}

// NewWindow computes the output size and padding for a window over an input of inHeight x inWidth.
//
// With samePadding the output size is ceil(in/stride), and the input is padded (more at the bottom/right when the
// padding is odd). Otherwise, "valid" padding, the output size is ceil((in - (kernel-1)*dilation) / stride).
func NewWindow(inHeight, inWidth, kernelHeight, kernelWidth, strideHeight, strideWidth, dilationHeight, dilationWidth int, samePadding bool) (Window, error) {
	w := Window{
		InHeight: inHeight, InWidth: inWidth,
		KernelHeight: kernelHeight, KernelWidth: kernelWidth,
		StrideHeight: strideHeight, StrideWidth: strideWidth,
		DilationHeight: dilationHeight, DilationWidth: dilationWidth,
	}
	if kernelHeight <= 0 || kernelWidth <= 0 {
		return w, errors.Errorf("window size must be positive, got %dx%d", kernelHeight, kernelWidth)
	}
	if strideHeight <= 0 || strideWidth <= 0 {
		return w, errors.Errorf("strides must be positive, got %dx%d", strideHeight, strideWidth)
	}
	if dilationHeight <= 0 || dilationWidth <= 0 {
		return w, errors.Errorf("dilation rates must be positive, got %dx%d", dilationHeight, dilationWidth)
	}
	if strideHeight > 1 && dilationHeight > 1 || strideWidth > 1 && dilationWidth > 1 {
		return w, errors.Errorf("strides > 1 are incompatible with dilation rates > 1")
	}
	effectiveHeight := (kernelHeight-1)*dilationHeight + 1
	effectiveWidth := (kernelWidth-1)*dilationWidth + 1
	if samePadding {
		w.OutHeight = ceilDiv(inHeight, strideHeight)
		w.OutWidth = ceilDiv(inWidth, strideWidth)
		padHeight := max((w.OutHeight-1)*strideHeight+effectiveHeight-inHeight, 0)
		padWidth := max((w.OutWidth-1)*strideWidth+effectiveWidth-inWidth, 0)
		w.PadTop = padHeight / 2
		w.PadLeft = padWidth / 2
	} else {
		if inHeight < effectiveHeight || inWidth < effectiveWidth {
			return w, errors.Errorf("input %dx%d is smaller than the window %dx%d with valid padding",
				inHeight, inWidth, effectiveHeight, effectiveWidth)
		}
		w.OutHeight = ceilDiv(inHeight-effectiveHeight+1, strideHeight)
		w.OutWidth = ceilDiv(inWidth-effectiveWidth+1, strideWidth)
	}
	return w, nil
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
