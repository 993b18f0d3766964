// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tensors

import (
	"bytes"
	"fmt"
)

// String implements fmt.Stringer, with a summary of the contents.
func (t *Tensor) String() string {
	return t.Summary(4)
}

// Summary returns a summary of the Tensor's content, with the given number of significant digits.
// Rows with more than 6 elements are abbreviated with an ellipsis.
// Inspired by numpy output.
func (t *Tensor) Summary(precision int) string {
	var buf bytes.Buffer
	w := func(format string, args ...any) { _, _ = fmt.Fprintf(&buf, format, args...) }
	data := t.Data()
	for _, dim := range t.dims {
		w("[%d]", dim)
	}
	w("float32")
	if len(t.dims) == 0 {
		w("(%.*g)", precision, data[0])
		return buf.String()
	}
	if t.size == 0 {
		w("{}")
		return buf.String()
	}

	var printElements func(index int, dims []int)
	printElements = func(index int, dims []int) {
		w("{")
		if len(dims) == 1 {
			n := dims[0]
			for i := 0; i < n; i++ {
				if n > 6 && i == 3 {
					w(", ...")
					i = n - 3
				}
				if i > 0 {
					w(", ")
				}
				w("%.*g", precision, data[index+i])
			}
			w("}")
			return
		}
		stride := 1
		for _, dim := range dims[1:] {
			stride *= dim
		}
		for i := 0; i < dims[0]; i++ {
			if i > 0 {
				w(", ")
			}
			printElements(index+i*stride, dims[1:])
		}
		w("}")
	}
	printElements(0, t.dims)
	return buf.String()
}
