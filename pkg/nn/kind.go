// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package nn

//go:generate go tool enumer -type=Kind -trimprefix=Kind -output=gen_kind_enumer.go kind.go

// Kind is the operation kind of a layer.
type Kind int

const (
	KindInvalid Kind = iota
	KindInput
	KindIdentity
	KindDropout
	KindDense
	KindActivation
	KindReLU
	KindLeakyReLU
	KindELU
	KindThresholdedReLU
	KindSoftmax
	KindConv2D
	KindDepthwiseConv2D
	KindMaxPooling2D
	KindAveragePooling2D
	KindGlobalMaxPooling2D
	KindGlobalAveragePooling2D
	KindBatchNormalization
	KindFlatten
	KindReshape
	KindZeroPadding2D
	KindCropping2D
	KindUpSampling2D
	KindAdd
	KindSubtract
	KindMultiply
	KindAverage
	KindMaximum
	KindMinimum
	KindConcatenate
	KindPermute
)
