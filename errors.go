// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

package jcodec

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrSyntax is the root of all lexical and grammatical errors.
	ErrSyntax = errors.New("syntax error")

	// ErrUnknownType reports that no decoder or encoder is known for a type,
	// after all registered handlers and resolvers have been consulted.
	ErrUnknownType = errors.New("unknown type")

	// ErrFactory reports that a polymorphic factory did not produce an
	// instance for any key of an object.
	ErrFactory = errors.New("cannot resolve polymorphic type")

	// ErrUnsupportedValue reports a value that has no textual form, such as
	// a floating-point NaN or infinity.
	ErrUnsupportedValue = errors.New("unsupported value")

	// ErrBlockKind is the panic value reported when an element is written
	// outside an array, or a key is written outside an object.
	ErrBlockKind = errors.New("wrong block kind")
)

// SyntaxError reports a lexical or grammatical error in the input.
// It satisfies errors.Is(err, ErrSyntax).
type SyntaxError struct {
	Pos     Position // where the error was detected
	Message string
}

// Error satisfies the error interface.
func (s *SyntaxError) Error() string { return "syntax error: " + s.Message }

// Unwrap supports error wrapping.
func (s *SyntaxError) Unwrap() error { return ErrSyntax }

// DecodeError is the concrete type of errors reported by a Decoder. It
// combines the innermost cause of a failure with the position of the token
// that was current when the failure occurred.
type DecodeError struct {
	Pos Position
	Err error
}

// Error satisfies the error interface.
func (e *DecodeError) Error() string { return fmt.Sprintf("%v (%v)", e.Err, e.Pos) }

// Unwrap supports error wrapping.
func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError is the concrete type of errors reported by an Encoder.
// Type is the type of the value being encoded when the failure occurred,
// or nil if the failure was reported by a caller-supplied callback.
type EncodeError struct {
	Type reflect.Type
	Err  error
}

// Error satisfies the error interface.
func (e *EncodeError) Error() string {
	if e.Type == nil {
		return "encoding: " + e.Err.Error()
	}
	return fmt.Sprintf("encoding %v: %v", e.Type, e.Err)
}

// Unwrap supports error wrapping.
func (e *EncodeError) Unwrap() error { return e.Err }

// decodeFailure and encodeFailure carry errors across the internal panics
// used to unwind a decode or encode, so that a recover at the API boundary
// can tell them apart from unrelated panics.
type decodeFailure struct{ err error }

type encodeFailure struct{ err error }
