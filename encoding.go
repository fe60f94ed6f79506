// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jcodec

import (
	"errors"

	"github.com/creachadair/jcodec/internal/escape"

	"go4.org/mem"
)

// Quote encodes src as a string literal. The contents are escaped and double
// quotation marks are added.
func Quote(src string) string {
	q := escape.Quote(mem.S(src))
	buf := make([]byte, 0, len(q)+2)
	buf = append(buf, '"')
	buf = append(buf, q...)
	return string(append(buf, '"'))
}

// Unquote decodes a string literal. The enclosing quotation marks, which may
// be either double or single quotes, are removed, and escape sequences are
// replaced with their unescaped equivalents. Unquote reports an error for an
// incomplete or invalid escape sequence.
func Unquote(src string) (string, error) {
	if len(src) < 2 || (src[0] != '"' && src[0] != '\'') || src[len(src)-1] != src[0] {
		return "", errors.New("missing quotations")
	}
	dec, err := escape.Unquote(mem.S(src[1 : len(src)-1]))
	if err != nil {
		return "", err
	}
	return string(dec), nil
}
