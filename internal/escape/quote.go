// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

package escape

import "go4.org/mem"

// quoteEsc maps each byte that must be escaped to the letter that follows the
// backslash in its escape sequence. All other bytes, including every byte of
// a multi-byte UTF-8 sequence, are copied through unchanged.
var quoteEsc = [...]byte{
	0:    '0',
	'\t': 't',
	'\n': 'n',
	'\f': 'f',
	'\r': 'r',
	'"':  '"',
	'\'': '\'',
	'\\': '\\',
}

// Quote escapes src for inclusion in a string literal. The enclosing
// quotation marks are not added.
//
// Single quotes are escaped even though a double-quoted literal does not
// require it, so that the output is also valid between single quotes.
func Quote(src mem.RO) []byte {
	buf := make([]byte, 0, src.Len())
	for i := 0; i < src.Len(); i++ {
		b := src.At(i)
		if int(b) < len(quoteEsc) && quoteEsc[b] != 0 {
			buf = append(buf, '\\', quoteEsc[b])
		} else {
			buf = append(buf, b)
		}
	}
	return buf
}

// NeedsQuote reports whether src contains any byte that Quote would escape.
func NeedsQuote(src mem.RO) bool {
	for i := 0; i < src.Len(); i++ {
		if b := src.At(i); int(b) < len(quoteEsc) && quoteEsc[b] != 0 {
			return true
		}
	}
	return false
}
