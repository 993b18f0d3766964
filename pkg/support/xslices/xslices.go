// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package xslices provides generic slice helpers missing from the standard slices package.
package xslices

import (
	"flag"
	"fmt"
	"strings"

	"golang.org/x/exp/constraints"
)

// Map returns fn applied to every element of in.
func Map[In, Out any](in []In, fn func(e In) Out) (out []Out) {
	out = make([]Out, len(in))
	for ii, e := range in {
		out[ii] = fn(e)
	}
	return
}

// AlignUp rounds value up to a multiple of alignment, which must be positive.
func AlignUp[T constraints.Integer](value, alignment T) T {
	return (value + alignment - 1) / alignment * alignment
}

// MaxAbsDiff returns the largest absolute difference between elements of a and b at the same position,
// and the position where it happens. Extra elements of the longer slice are ignored.
// It returns (0, -1) if any of the slices is empty.
func MaxAbsDiff[T constraints.Float](a, b []T) (diff T, at int) {
	at = -1
	for ii := range min(len(a), len(b)) {
		d := a[ii] - b[ii]
		if d < 0 {
			d = -d
		}
		if at < 0 || d > diff || d != d {
			diff, at = d, ii
		}
	}
	return
}

// Flag creates a flag for []T with the given name, description and default value.
// The value is a comma-separated list, each element parsed with parserFn.
func Flag[T any](name string, defaultValue []T, usage string,
	parserFn func(valueStr string) (T, error)) *[]T {
	f := &sliceFlag[T]{
		parsedSlice: defaultValue,
		parserFn:    parserFn,
	}
	flag.Var(f, name, usage)
	return &f.parsedSlice
}

// sliceFlag implements flag.Value for a list of T.
type sliceFlag[T any] struct {
	parsedSlice []T
	parserFn    func(valueStr string) (T, error)
}

func (f *sliceFlag[T]) String() string {
	return strings.Join(Map(f.parsedSlice, func(e T) string { return fmt.Sprint(e) }), ",")
}

func (f *sliceFlag[T]) Set(listStr string) error {
	if listStr == "" {
		f.parsedSlice = make([]T, 0)
		return nil
	}
	parts := strings.Split(listStr, ",")
	f.parsedSlice = make([]T, len(parts))
	var err error
	for ii, part := range parts {
		f.parsedSlice[ii], err = f.parserFn(strings.TrimSpace(part))
		if err != nil {
			return err
		}
	}
	return nil
}
