// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

package jcodec

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// splitBase returns the digits of a numeric literal with any hexadecimal
// prefix removed, and the base to parse them in. The sign is retained.
func splitBase(text string) (string, int) {
	sign, digits := "", text
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}
	if len(digits) > 2 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		return sign + digits[2:], 16
	}
	return text, 10
}

func isInteger(kind LiteralKind) bool { return kind == SignedInteger || kind == UnsignedInteger }

// parseInt parses an integer literal as a signed value of the given size.
func parseInt(kind LiteralKind, text string, bits int) (int64, error) {
	if !isInteger(kind) {
		return 0, fmt.Errorf("expected integer, got %v", kind)
	}
	digits, base := splitBase(text)
	v, err := strconv.ParseInt(digits, base, bits)
	if err != nil {
		return 0, numError(text, err)
	}
	return v, nil
}

// parseUint parses an integer literal as an unsigned value of the given size.
func parseUint(kind LiteralKind, text string, bits int) (uint64, error) {
	if !isInteger(kind) {
		return 0, fmt.Errorf("expected integer, got %v", kind)
	}
	digits, base := splitBase(text)
	v, err := strconv.ParseUint(digits, base, bits)
	if err != nil {
		return 0, numError(text, err)
	}
	return v, nil
}

// parseFloat parses any numeric literal as a floating-point value of the
// given size.
func parseFloat(kind LiteralKind, text string, bits int) (float64, error) {
	switch kind {
	case SignedInteger, UnsignedInteger, FloatingPoint:
	default:
		return 0, fmt.Errorf("expected number, got %v", kind)
	}
	if digits, base := splitBase(text); base != 10 {
		v, err := strconv.ParseInt(digits, base, 64)
		if err != nil {
			return 0, numError(text, err)
		}
		return float64(v), nil
	}
	v, err := strconv.ParseFloat(text, bits)
	if err != nil {
		return 0, numError(text, err)
	}
	return v, nil
}

// numError simplifies the errors reported by strconv.
func numError(text string, err error) error {
	if errors.Is(err, strconv.ErrRange) {
		return fmt.Errorf("number %s out of range", text)
	}
	return fmt.Errorf("invalid number %s", text)
}

// naturalTypes maps literal kinds to their natural Go types.
var naturalTypes = map[LiteralKind]reflect.Type{
	True:            reflect.TypeFor[bool](),
	False:           reflect.TypeFor[bool](),
	String:          reflect.TypeFor[string](),
	SignedInteger:   reflect.TypeFor[int64](),
	UnsignedInteger: reflect.TypeFor[uint64](),
	FloatingPoint:   reflect.TypeFor[float64](),
}

// naturalFits reports whether a literal of the given kind could be stored
// in t at its natural type.
func naturalFits(kind LiteralKind, t reflect.Type) bool {
	nt, ok := naturalTypes[kind]
	return ok && nt.AssignableTo(t)
}

// naturalValue returns the value of a literal at its natural Go type:
// nil, bool, string, int64, uint64, or float64. An integer too large for its
// natural type is returned as a float64.
func naturalValue(kind LiteralKind, text string) (any, error) {
	switch kind {
	case Null:
		return nil, nil
	case True:
		return true, nil
	case False:
		return false, nil
	case String:
		return text, nil
	case SignedInteger:
		v, err := parseInt(kind, text, 64)
		if err != nil {
			return parseFloat(kind, text, 64)
		}
		return v, nil
	case UnsignedInteger:
		v, err := parseUint(kind, text, 64)
		if err != nil {
			return parseFloat(kind, text, 64)
		}
		return v, nil
	case FloatingPoint:
		return parseFloat(kind, text, 64)
	}
	return nil, fmt.Errorf("not a literal: %v", kind)
}

// formatFloat renders f in the shortest form that parses back to the same
// value. The result always scans as a floating-point literal.
func formatFloat(f float64, bits int) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedValue, f)
	}
	s := strconv.FormatFloat(f, 'g', -1, bits)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s, nil
}
