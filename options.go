// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

package jcodec

import "go.uber.org/atomic"

// An Option controls the behavior of a Decoder or Encoder. An option given
// explicitly takes precedence over the process-wide default.
type Option func(*settings)

type settings struct {
	pretty bool
	strict bool
}

// Pretty enables (true) or disables (false) pretty-printed output, with one
// member per line indented by tabs. Compact output has no whitespace at all.
func Pretty(on bool) Option { return func(s *settings) { s.pretty = on } }

// Strict enables (true) or disables (false) strict parsing, in which only
// the standard grammar is accepted: no comments, unquoted keys, single
// quotes, trailing commas, hexadecimal numbers or redundant leading zeroes.
func Strict(on bool) Option { return func(s *settings) { s.strict = on } }

var (
	defaultPretty = atomic.NewBool(false)
	defaultStrict = atomic.NewBool(false)
)

// SetDefaultPretty sets the process-wide default for the Pretty option.
func SetDefaultPretty(on bool) { defaultPretty.Store(on) }

// SetDefaultStrict sets the process-wide default for the Strict option.
func SetDefaultStrict(on bool) { defaultStrict.Store(on) }

// DefaultOptions returns options equivalent to the current process-wide
// defaults.
func DefaultOptions() []Option {
	return []Option{Pretty(defaultPretty.Load()), Strict(defaultStrict.Load())}
}

func resolveOptions(opts []Option) settings {
	s := settings{pretty: defaultPretty.Load(), strict: defaultStrict.Load()}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
