// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package nnerrors defines the kinds of errors returned by compilednn.
//
// Errors are created with github.com/pkg/errors wrapping one of the sentinel values below, so
// they carry a stack trace (print them with "%+v") and can be classified with errors.Is:
//
//	if errors.Is(err, nnerrors.ErrShape) { ... }
package nnerrors

import (
	"github.com/pkg/errors"
)

var (
	// ErrLoad is returned for a malformed or unsupported serialized model.
	ErrLoad = errors.New("load error")

	// ErrShape is returned when tensor shapes are inconsistent or unsupported during shape inference.
	ErrShape = errors.New("shape error")

	// ErrUnsupportedOperation is returned when a layer lacks the rule required by the requested path.
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrCompilation is returned when the settings are incompatible with the graph, or emission failed.
	ErrCompilation = errors.New("compilation error")

	// ErrArgument is returned for wrong number of tensors or out-of-range indices.
	ErrArgument = errors.New("argument error")

	// ErrInvalidState is returned when using a CompiledNN that has not been (successfully) compiled.
	ErrInvalidState = errors.New("invalid state")
)

// Loadf returns an error of kind ErrLoad with the formatted message.
func Loadf(format string, args ...any) error {
	return errors.Wrapf(ErrLoad, format, args...)
}

// Shapef returns an error of kind ErrShape with the formatted message.
func Shapef(format string, args ...any) error {
	return errors.Wrapf(ErrShape, format, args...)
}

// Unsupportedf returns an error of kind ErrUnsupportedOperation with the formatted message.
func Unsupportedf(format string, args ...any) error {
	return errors.Wrapf(ErrUnsupportedOperation, format, args...)
}

// Compilationf returns an error of kind ErrCompilation with the formatted message.
func Compilationf(format string, args ...any) error {
	return errors.Wrapf(ErrCompilation, format, args...)
}

// Argumentf returns an error of kind ErrArgument with the formatted message.
func Argumentf(format string, args ...any) error {
	return errors.Wrapf(ErrArgument, format, args...)
}

// InvalidStatef returns an error of kind ErrInvalidState with the formatted message.
func InvalidStatef(format string, args ...any) error {
	return errors.Wrapf(ErrInvalidState, format, args...)
}

// IsKnown reports whether err is of one of the kinds defined in this package.
func IsKnown(err error) bool {
	for _, kind := range []error{ErrLoad, ErrShape, ErrUnsupportedOperation, ErrCompilation, ErrArgument, ErrInvalidState} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
