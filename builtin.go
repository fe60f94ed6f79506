// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

package jcodec

import (
	"encoding/base64"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/creachadair/jcodec/bind"
)

func registerBuiltins(r *Registry) {
	registerSigned[int](r)
	registerSigned[int8](r)
	registerSigned[int16](r)
	registerSigned[int32](r)
	registerSigned[int64](r)
	registerUnsigned[uint](r)
	registerUnsigned[uint8](r)
	registerUnsigned[uint16](r)
	registerUnsigned[uint32](r)
	registerUnsigned[uint64](r)
	registerUnsigned[uintptr](r)
	registerFloat[float32](r)
	registerFloat[float64](r)

	RegisterDecoder(r, (*Decoder).ReadString)
	RegisterEncoder(r, func(e *Encoder, s string) error { e.WriteString(s); return nil })

	RegisterDecoder(r, (*Decoder).ReadBool)
	RegisterEncoder(r, func(e *Encoder, b bool) error {
		e.WriteRaw(strconv.FormatBool(b))
		return nil
	})

	RegisterDecoder(r, func(d *Decoder) ([]byte, error) {
		v, err := d.ReadLiteral(func(kind LiteralKind, text string) (any, error) {
			if kind != String {
				return nil, fmt.Errorf("expected base64 string, got %v", kind)
			}
			return base64.StdEncoding.DecodeString(text)
		})
		if err != nil {
			return nil, err
		}
		return v.([]byte), nil
	})
	RegisterEncoder(r, func(e *Encoder, b []byte) error {
		e.WriteString(base64.StdEncoding.EncodeToString(b))
		return nil
	})

	RegisterDecoder(r, func(d *Decoder) (time.Time, error) {
		ms, err := d.ReadInt64()
		if err != nil {
			return time.Time{}, err
		}
		return time.UnixMilli(ms).UTC(), nil
	})
	RegisterEncoder(r, func(e *Encoder, t time.Time) error {
		e.WriteRaw(strconv.FormatInt(t.UnixMilli(), 10))
		return nil
	})

	RegisterDecoder(r, func(d *Decoder) (time.Duration, error) {
		ns, err := d.ReadInt64()
		return time.Duration(ns), err
	})
	RegisterEncoder(r, func(e *Encoder, d time.Duration) error {
		e.WriteRaw(strconv.FormatInt(int64(d), 10))
		return nil
	})
}

func registerSigned[T ~int | ~int8 | ~int16 | ~int32 | ~int64](r *Registry) {
	bits := 8 * int(reflect.TypeFor[T]().Size())
	RegisterDecoder(r, func(d *Decoder) (T, error) {
		v, err := d.ReadLiteral(func(kind LiteralKind, text string) (any, error) {
			return parseInt(kind, text, bits)
		})
		if err != nil {
			return 0, err
		}
		return T(v.(int64)), nil
	})
	RegisterEncoder(r, func(e *Encoder, v T) error {
		e.WriteRaw(strconv.FormatInt(int64(v), 10))
		return nil
	})
}

func registerUnsigned[T ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr](r *Registry) {
	bits := 8 * int(reflect.TypeFor[T]().Size())
	RegisterDecoder(r, func(d *Decoder) (T, error) {
		v, err := d.ReadLiteral(func(kind LiteralKind, text string) (any, error) {
			return parseUint(kind, text, bits)
		})
		if err != nil {
			return 0, err
		}
		return T(v.(uint64)), nil
	})
	RegisterEncoder(r, func(e *Encoder, v T) error {
		e.WriteRaw(strconv.FormatUint(uint64(v), 10))
		return nil
	})
}

func registerFloat[T ~float32 | ~float64](r *Registry) {
	bits := 8 * int(reflect.TypeFor[T]().Size())
	RegisterDecoder(r, func(d *Decoder) (T, error) {
		v, err := d.ReadLiteral(func(kind LiteralKind, text string) (any, error) {
			return parseFloat(kind, text, bits)
		})
		if err != nil {
			return 0, err
		}
		return T(v.(float64)), nil
	})
	RegisterEncoder(r, func(e *Encoder, v T) error {
		s, err := formatFloat(float64(v), bits)
		if err != nil {
			return err
		}
		e.WriteRaw(s)
		return nil
	})
}

// kindTypes maps scalar kinds to their unnamed Go types.
var kindTypes = map[reflect.Kind]reflect.Type{
	reflect.Bool:    reflect.TypeFor[bool](),
	reflect.Int:     reflect.TypeFor[int](),
	reflect.Int8:    reflect.TypeFor[int8](),
	reflect.Int16:   reflect.TypeFor[int16](),
	reflect.Int32:   reflect.TypeFor[int32](),
	reflect.Int64:   reflect.TypeFor[int64](),
	reflect.Uint:    reflect.TypeFor[uint](),
	reflect.Uint8:   reflect.TypeFor[uint8](),
	reflect.Uint16:  reflect.TypeFor[uint16](),
	reflect.Uint32:  reflect.TypeFor[uint32](),
	reflect.Uint64:  reflect.TypeFor[uint64](),
	reflect.Uintptr: reflect.TypeFor[uintptr](),
	reflect.Float32: reflect.TypeFor[float32](),
	reflect.Float64: reflect.TypeFor[float64](),
	reflect.String:  reflect.TypeFor[string](),
}

var (
	unmarshalerType = reflect.TypeFor[Unmarshaler]()
	marshalerType   = reflect.TypeFor[Marshaler]()
)

// resolveDecoder is the default value-decoder resolver. It handles
// Unmarshaler implementations, named scalar types, and bound types.
func (r *Registry) resolveDecoder(t reflect.Type) (DecodeFunc, bool) {
	if reflect.PointerTo(t).Implements(unmarshalerType) {
		return func(d *Decoder) (any, error) {
			p := reflect.New(t)
			if err := p.Interface().(Unmarshaler).UnmarshalFrom(d); err != nil {
				return nil, err
			}
			return p.Elem().Interface(), nil
		}, true
	}
	if base, ok := kindTypes[t.Kind()]; ok && base != t {
		dec, ok := r.decoders.exact(base)
		if !ok {
			return nil, false
		}
		return func(d *Decoder) (any, error) {
			v, err := dec(d)
			if err != nil {
				return nil, err
			}
			return reflect.ValueOf(v).Convert(t).Interface(), nil
		}, true
	}
	b, err := r.Binding(t)
	if err != nil {
		return func(*Decoder) (any, error) { return nil, err }, true
	} else if b == nil {
		return nil, false
	}
	return func(d *Decoder) (any, error) {
		p, err := newInstance(t, b)
		if err != nil {
			return nil, err
		}
		into, ok := r.intos.lookup(t)
		if !ok {
			return nil, fmt.Errorf("%w: no in-place decoder for bound type %v", ErrUnknownType, t)
		}
		if err := into(d, p); err != nil {
			return nil, err
		}
		return reflect.ValueOf(p).Elem().Interface(), nil
	}, true
}

// resolveDecodeInto is the default in-place decoder resolver. It handles
// Unmarshaler implementations and bound types.
func (r *Registry) resolveDecodeInto(t reflect.Type) (DecodeIntoFunc, bool) {
	if reflect.PointerTo(t).Implements(unmarshalerType) {
		return func(d *Decoder, ptr any) error {
			return ptr.(Unmarshaler).UnmarshalFrom(d)
		}, true
	}
	b, err := r.Binding(t)
	if err != nil {
		return func(*Decoder, any) error { return err }, true
	} else if b == nil {
		return nil, false
	}
	return func(d *Decoder, ptr any) error {
		return d.decodeMembersInto(b, ptr)
	}, true
}

// resolveEncoder is the default encoder resolver. It handles Marshaler
// implementations, named scalar types, and bound types.
func (r *Registry) resolveEncoder(t reflect.Type) (EncodeFunc, bool) {
	if reflect.PointerTo(t).Implements(marshalerType) {
		return func(e *Encoder, v any) error {
			return addressable(v).Interface().(Marshaler).MarshalTo(e)
		}, true
	}
	if base, ok := kindTypes[t.Kind()]; ok && base != t {
		enc, ok := r.encoders.exact(base)
		if !ok {
			return nil, false
		}
		return func(e *Encoder, v any) error {
			return enc(e, reflect.ValueOf(v).Convert(base).Interface())
		}, true
	}
	b, err := r.Binding(t)
	if err != nil {
		return func(*Encoder, any) error { return err }, true
	} else if b == nil {
		return nil, false
	}
	return func(e *Encoder, v any) error {
		return e.writeMembers(b, addressable(v).Interface())
	}, true
}

// addressable returns a pointer to a copy of v.
func addressable(v any) reflect.Value {
	rv := reflect.ValueOf(v)
	p := reflect.New(rv.Type())
	p.Elem().Set(rv)
	return p
}

// newInstance constructs a new instance of t using b, and checks that it has
// the expected type.
func newInstance(t reflect.Type, b *bind.Type) (any, error) {
	p := b.New()
	if pt := reflect.TypeOf(p); pt != reflect.PointerTo(t) || reflect.ValueOf(p).IsNil() {
		return nil, &bind.ConfigError{
			Type: t, Err: fmt.Errorf("constructor returned %T, want non-nil %v", p, reflect.PointerTo(t)),
		}
	}
	return p, nil
}
