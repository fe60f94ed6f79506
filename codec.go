// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

package jcodec

import (
	"bytes"
	"fmt"
	"reflect"
)

// Marshal encodes v using the Default registry.
func Marshal(v any, opts ...Option) ([]byte, error) { return Default().Marshal(v, opts...) }

// Unmarshal decodes data into the value ptr points to, using the Default
// registry. The input must contain exactly one value.
func Unmarshal(data []byte, ptr any, opts ...Option) error {
	return Default().Unmarshal(data, ptr, opts...)
}

// UnmarshalAs decodes data as a value of type T, using the Default registry.
func UnmarshalAs[T any](data []byte, opts ...Option) (T, error) {
	var v T
	err := Default().Unmarshal(data, &v, opts...)
	return v, err
}

// Marshal encodes v using the handlers of r.
func (r *Registry) Marshal(v any, opts ...Option) ([]byte, error) {
	var buf bytes.Buffer
	e := NewEncoder(&buf, r, opts...)
	if err := e.WriteValue(v); err != nil {
		return nil, err
	}
	if err := e.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes data into the value ptr points to, using the handlers of
// r. The input must contain exactly one value.
func (r *Registry) Unmarshal(data []byte, ptr any, opts ...Option) error {
	d := NewDecoder(bytes.NewReader(data), r, opts...)
	if err := d.DecodeInto(ptr); err != nil {
		return err
	}
	return d.Finish()
}

// Format decodes a single value from data and re-encodes it in canonical
// form. Object keys keep their input order; strings are requoted and
// numbers are rewritten in decimal. The Strict option governs the input and
// the Pretty option governs the output.
func Format(data []byte, opts ...Option) ([]byte, error) {
	var buf bytes.Buffer
	d := NewDecoder(bytes.NewReader(data), nil, opts...)
	e := NewEncoder(&buf, nil, opts...)
	if err := Transcode(d, e); err != nil {
		return nil, err
	}
	if err := d.Finish(); err != nil {
		return nil, err
	}
	if err := e.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Transcode copies one value from d to e, token by token.
func Transcode(d *Decoder, e *Encoder) error {
	switch tok, _ := d.Token(); tok {
	case OpenBrace:
		return e.WriteObject(func() error {
			return d.DecodeObject(func(key string) error {
				e.WriteKey(key)
				return Transcode(d, e)
			})
		})
	case OpenBracket:
		return e.WriteArray(func() error {
			return d.DecodeArray(func() error {
				e.WriteElement()
				return Transcode(d, e)
			})
		})
	case Literal:
		v, err := d.ReadLiteral(naturalValue)
		if err != nil {
			return err
		}
		return e.WriteValue(v)
	default:
		_, err := d.Decode(reflect.TypeFor[any]())
		if err == nil {
			err = fmt.Errorf("transcode: unexpected %v", tok)
		}
		return err
	}
}
