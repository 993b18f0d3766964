// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package kernels implements the numeric routines used by the layers, both by the generic evaluation
// (interpreter) and by the compiled routines.
//
// Kernels work on flat float32 slices in row-major [height, width, channels] layout, without a batch axis.
// Kernels never allocate on their hot loops, and those used by compiled routines take a row range
// [rowStart, rowEnd) so their work can be split among workers.
package kernels
