// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

// Package escape handles quoting and unquoting of string literals.
package escape

import (
	"errors"
	"fmt"
	"unicode/utf16"
	"unicode/utf8"

	"go4.org/mem"
)

// Unquote decodes the body of a string literal. The input must have the
// enclosing quotation marks already removed.
//
// Escape sequences are replaced with their unescaped equivalents. A \u escape
// denotes one UTF-16 code unit: a high and low surrogate written as adjacent
// escapes are combined into a single rune, and an unpaired surrogate is
// replaced by the Unicode replacement rune. Unquote reports an error for an
// incomplete or unknown escape sequence.
func Unquote(src mem.RO) ([]byte, error) {
	dec := make([]byte, 0, src.Len())
	i := mem.IndexByte(src, '\\')
	if i < 0 {
		dec = mem.Append(dec, src)
		return dec, nil
	}

	putRune := func(r rune) { dec = utf8.AppendRune(dec, r) }
	for src.Len() != 0 {
		dec = mem.Append(dec, src.SliceTo(i))

		src = src.SliceFrom(i + 1)
		if src.Len() == 0 {
			return nil, errors.New("incomplete escape sequence")
		}
		b := src.At(0)
		src = src.SliceFrom(1)
		switch b {
		case '"', '\'', '\\', '/':
			dec = append(dec, b)
		case '0':
			dec = append(dec, 0)
		case 'b':
			dec = append(dec, '\b')
		case 'f':
			dec = append(dec, '\f')
		case 'n':
			dec = append(dec, '\n')
		case 'r':
			dec = append(dec, '\r')
		case 't':
			dec = append(dec, '\t')
		case 'u':
			if src.Len() < 4 {
				return nil, errors.New("incomplete Unicode escape")
			}
			v, err := parseHex(src.SliceTo(4))
			if err != nil {
				return nil, err
			}
			src = src.SliceFrom(4)
			r := rune(v)
			if utf16.IsSurrogate(r) {
				// Combine with an immediately following low surrogate, if any.
				if src.Len() >= 6 && src.At(0) == '\\' && src.At(1) == 'u' {
					if w, err := parseHex(src.Slice(2, 6)); err == nil {
						if c := utf16.DecodeRune(r, rune(w)); c != utf8.RuneError {
							putRune(c)
							src = src.SliceFrom(6)
							break
						}
					}
				}
				r = utf8.RuneError
			}
			putRune(r)
		default:
			return nil, fmt.Errorf("invalid escape %q", b)
		}

		i = mem.IndexByte(src, '\\')
		if i < 0 {
			dec = mem.Append(dec, src)
			break
		}
	}
	return dec, nil
}

func parseHex(data mem.RO) (int64, error) {
	var v int64
	for i := 0; i < data.Len(); i++ {
		b := data.At(i)
		v <<= 4
		if '0' <= b && b <= '9' {
			v += int64(b - '0')
		} else if 'a' <= b && b <= 'f' {
			v += int64(b - 'a' + 10)
		} else if 'A' <= b && b <= 'F' {
			v += int64(b - 'A' + 10)
		} else {
			return 0, fmt.Errorf("invalid hex digit %q", b)
		}
	}
	return v, nil
}
