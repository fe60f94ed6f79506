// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jcodec

import "fmt"

// A Position describes the location of a character in source text.
type Position struct {
	Line   int // line number, 0-based
	Offset int // character offset within the line, 0-based
}

// String renders p in 1-based form, "line L, character C".
func (p Position) String() string {
	return fmt.Sprintf("line %d, character %d", p.Line+1, p.Offset+1)
}
