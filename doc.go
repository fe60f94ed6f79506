// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package jcodec implements a codec between Go values and JSON text,
// including a permissive superset of the JSON grammar.
//
// # Scanning
//
// The Scanner type implements a lexical scanner. Construct a scanner from an
// io.Reader and call its Next method to advance to each token in turn. Next
// reports nil or an error of concrete type *jcodec.SyntaxError; at the end of
// the input the token is EndOfInput:
//
//	s := jcodec.NewScanner(input)
//	for s.Next() == nil && s.Token() != jcodec.EndOfInput {
//	   log.Printf("Next token: %v", s.Token())
//	}
//
// By default the scanner accepts comments, single-quoted strings,
// hexadecimal numbers and redundant leading zeroes. Call SetStrict to accept
// only the standard grammar.
//
// A scanner can be bookmarked and later rewound to the bookmark, so that the
// input since the bookmark is scanned again. Bookmarks nest:
//
//	s.Bookmark()
//	... // look ahead
//	s.Rewind()  // or s.DiscardBookmark() to keep the current position
//
// # Decoding
//
// A Decoder reads values from the input. The Registry of the decoder says how
// to construct values of each Go type:
//
//	d := jcodec.NewDecoder(input, nil) // use the Default registry
//	v, err := jcodec.DecodeAs[Config](d)
//
// Handlers registered with a Registry can call the methods of the Decoder to
// read the input directly, for example:
//
//	jcodec.RegisterDecoder(r, func(d *jcodec.Decoder) (Version, error) {
//	   s, err := d.ReadString()
//	   if err != nil {
//	      return Version{}, err
//	   }
//	   return ParseVersion(s)
//	})
//
// Errors reported by a Decoder have concrete type *jcodec.DecodeError, which
// gives the position of the token being decoded when the failure occurred.
//
// # Encoding
//
// An Encoder writes values to the output. Objects and arrays are written by
// callbacks, and the encoder supplies punctuation and, if the Pretty option
// is set, line breaks and indentation:
//
//	e := jcodec.NewEncoder(output, nil, jcodec.Pretty(true))
//	err := e.WriteObject(func() error {
//	   e.WriteKey("name")
//	   return e.WriteValue(name)
//	})
//	...
//	err = e.Flush()
//
// # Registries
//
// A Registry holds four tables of handlers: value decoders, in-place
// decoders, encoders, and factories for polymorphic types such as interfaces.
// A type with no registered handler is resolved on first use, and the result
// is remembered. The default resolvers handle types that implement Marshaler
// or Unmarshaler, named types whose underlying type is built in, and types
// with a binding (see package bind). Registrations must be complete before a
// registry is used, since a Registry does no locking.
package jcodec
