// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

package jcodec

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/creachadair/jcodec/bind"
	"github.com/creachadair/jcodec/structbind"
)

// A DecodeFunc decodes a value of its registered type from the current
// position of d. It returns a value of the registered type, or a pointer to
// one.
type DecodeFunc func(d *Decoder) (any, error)

// A DecodeIntoFunc decodes into an existing value of its registered type.
// The argument is a non-nil pointer to the value.
type DecodeIntoFunc func(d *Decoder, ptr any) error

// An EncodeFunc encodes v, which has its registered type, to e. It must write
// exactly one value.
type EncodeFunc func(e *Encoder, v any) error

// A FactoryFunc chooses the concrete type of a polymorphic value.
//
// It is first called with key == nil, before the value is read. If it does
// not return an instance, it is called again with each key of the object in
// turn, positioned at the value for that key, until it returns an instance.
// It may consume the value for the key, but need not. The instance must be a
// non-nil pointer, and the object is then decoded into it from the start.
type FactoryFunc func(d *Decoder, key *string) (any, error)

// A Registry holds the handlers used to decode and encode values of Go types.
// It has four tables, for value decoders, in-place decoders, encoders, and
// polymorphic factories. Each table has a resolver, which is consulted at
// most once for each type not in the table; its answer, including the lack
// of a handler, is remembered.
//
// Types are keyed with all pointer indirections removed, so a handler
// registered for T also serves *T, **T, and so on.
//
// A Registry does no locking. All registrations must be complete before the
// registry is used to decode or encode. Once registration is done, a
// registry may be shared by concurrent decoders and encoders only if every
// type they touch has already been resolved; otherwise callers must
// serialize access.
type Registry struct {
	decoders  table[DecodeFunc]
	intos     table[DecodeIntoFunc]
	encoders  table[EncodeFunc]
	factories table[FactoryFunc]
	enums     map[reflect.Type]*enumInfo

	binder   bind.Binder
	bindings map[reflect.Type]binding
}

type binding struct {
	b   *bind.Type
	err error
}

// NewRegistry constructs a new registry with handlers for the built-in types.
// Structured types are bound with b; if b == nil, only bindings added with
// RegisterBinding are available.
func NewRegistry(b bind.Binder) *Registry {
	r := &Registry{
		enums:    make(map[reflect.Type]*enumInfo),
		binder:   b,
		bindings: make(map[reflect.Type]binding),
	}
	r.decoders.init(r.resolveDecoder)
	r.intos.init(r.resolveDecodeInto)
	r.encoders.init(r.resolveEncoder)
	r.factories.init(nil)
	registerBuiltins(r)
	return r
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	return NewRegistry(structbind.Binder{})
})

// Default returns the process-wide registry, which binds structured types
// with a structbind.Binder. It is used wherever a nil *Registry is given.
func Default() *Registry { return defaultRegistry() }

// TypeKey returns the key under which handlers for t are registered, namely
// t with all pointer indirections removed.
func TypeKey(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// SetDecoder registers fn as the value decoder for t.
func (r *Registry) SetDecoder(t reflect.Type, fn DecodeFunc) { r.decoders.set(TypeKey(t), fn) }

// SetDecodeInto registers fn as the in-place decoder for t.
func (r *Registry) SetDecodeInto(t reflect.Type, fn DecodeIntoFunc) { r.intos.set(TypeKey(t), fn) }

// SetEncoder registers fn as the encoder for t.
func (r *Registry) SetEncoder(t reflect.Type, fn EncodeFunc) { r.encoders.set(TypeKey(t), fn) }

// SetFactory registers fn as the polymorphic factory for t. Typically t is
// an interface type.
func (r *Registry) SetFactory(t reflect.Type, fn FactoryFunc) { r.factories.set(TypeKey(t), fn) }

// SetDecoderResolver adds a resolver for value decoders. It is consulted
// before the existing resolver, which is used if f reports false.
func (r *Registry) SetDecoderResolver(f func(reflect.Type) (DecodeFunc, bool)) {
	r.decoders.chain(f)
}

// SetDecodeIntoResolver adds a resolver for in-place decoders. It is
// consulted before the existing resolver, which is used if f reports false.
func (r *Registry) SetDecodeIntoResolver(f func(reflect.Type) (DecodeIntoFunc, bool)) {
	r.intos.chain(f)
}

// SetEncoderResolver adds a resolver for encoders. It is consulted before
// the existing resolver, which is used if f reports false.
func (r *Registry) SetEncoderResolver(f func(reflect.Type) (EncodeFunc, bool)) {
	r.encoders.chain(f)
}

// SetFactoryResolver adds a resolver for polymorphic factories. It is
// consulted before the existing resolver, which is used if f reports false.
func (r *Registry) SetFactoryResolver(f func(reflect.Type) (FactoryFunc, bool)) {
	r.factories.chain(f)
}

// RegisterBinding registers b as the binding for t, replacing any binding
// the registry's binder would report. It reports an error of concrete type
// *bind.ConfigError if b is not valid for t.
func (r *Registry) RegisterBinding(t reflect.Type, b *bind.Type) error {
	t = TypeKey(t)
	if err := bind.Validate(t, b); err != nil {
		return err
	}
	r.bindings[t] = binding{b: b}
	return nil
}

// Binding returns the binding for t, consulting the binder the first time t
// is seen. It returns nil, nil if t has no binding.
func (r *Registry) Binding(t reflect.Type) (*bind.Type, error) {
	t = TypeKey(t)
	if e, ok := r.bindings[t]; ok {
		return e.b, e.err
	}
	var e binding
	if r.binder != nil {
		e.b, e.err = r.binder.Bind(t)
		if e.err == nil && e.b != nil {
			e.err = bind.Validate(t, e.b)
		}
	}
	if e.err != nil {
		e.b = nil
	}
	r.bindings[t] = e
	return e.b, e.err
}

// RegisterDecoder registers fn as the value decoder for T.
func RegisterDecoder[T any](r *Registry, fn func(*Decoder) (T, error)) {
	r.SetDecoder(reflect.TypeFor[T](), func(d *Decoder) (any, error) {
		v, err := fn(d)
		if err != nil {
			return nil, err
		}
		return v, nil
	})
}

// RegisterDecodeInto registers fn as the in-place decoder for T.
// It panics if T is a pointer type: fn already receives a pointer, so
// register the pointed-to type instead.
func RegisterDecodeInto[T any](r *Registry, fn func(*Decoder, *T) error) {
	t := reflect.TypeFor[T]()
	if t.Kind() == reflect.Pointer {
		panic(fmt.Sprintf("jcodec: RegisterDecodeInto for pointer type %v; register %v", t, TypeKey(t)))
	}
	r.SetDecodeInto(t, func(d *Decoder, ptr any) error {
		return fn(d, ptr.(*T))
	})
}

// RegisterEncoder registers fn as the encoder for T. If T is a pointer type,
// fn receives a pointer to a copy of the value being encoded.
func RegisterEncoder[T any](r *Registry, fn func(*Encoder, T) error) {
	t := reflect.TypeFor[T]()
	r.SetEncoder(t, func(e *Encoder, v any) error {
		if tv, ok := v.(T); ok {
			return fn(e, tv)
		}
		rv := reflect.ValueOf(v)
		for rv.Type() != t {
			rv = addressable(rv.Interface())
		}
		return fn(e, rv.Interface().(T))
	})
}

// RegisterFactory registers fn as the polymorphic factory for T. A zero T
// result means that fn could not yet choose a type.
func RegisterFactory[T any](r *Registry, fn func(*Decoder, *string) (T, error)) {
	r.SetFactory(reflect.TypeFor[T](), func(d *Decoder, key *string) (any, error) {
		v, err := fn(d, key)
		if err != nil || reflect.ValueOf(&v).Elem().IsZero() {
			return nil, err
		}
		return v, nil
	})
}

// An integer is any type whose values can name enumeration members.
type integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

type enumInfo struct {
	byName  map[string]any
	byValue map[any]string
}

// RegisterEnum registers E as an enumeration whose members have the given
// names. Members are encoded and decoded as string literals of their names,
// compared case-sensitively. It panics if two members share a name.
func RegisterEnum[E integer](r *Registry, names map[E]string) {
	info := &enumInfo{
		byName:  make(map[string]any, len(names)),
		byValue: make(map[any]string, len(names)),
	}
	for v, name := range names {
		if _, ok := info.byName[name]; ok {
			panic(fmt.Sprintf("jcodec: duplicate name %q for enum %v", name, reflect.TypeFor[E]()))
		}
		info.byName[name] = v
		info.byValue[v] = name
	}
	r.enums[reflect.TypeFor[E]()] = info
}

// A table maps types to handlers of type F. Resolved answers, including the
// absence of a handler, are stored alongside registered handlers.
type table[F any] struct {
	fns     map[reflect.Type]slot[F]
	resolve func(reflect.Type) (F, bool)
}

type slot[F any] struct {
	fn  F
	ok  bool
	set bool // registered, not resolved
}

func (t *table[F]) init(resolve func(reflect.Type) (F, bool)) {
	t.fns = make(map[reflect.Type]slot[F])
	t.resolve = resolve
}

func (t *table[F]) set(key reflect.Type, fn F) { t.fns[key] = slot[F]{fn: fn, ok: true, set: true} }

// chain installs f as the first resolver of t.
func (t *table[F]) chain(f func(reflect.Type) (F, bool)) {
	next := t.resolve
	t.resolve = func(key reflect.Type) (F, bool) {
		if fn, ok := f(key); ok {
			return fn, true
		}
		if next != nil {
			return next(key)
		}
		var zero F
		return zero, false
	}
}

// exact reports the handler already known for key, without resolving.
func (t *table[F]) exact(key reflect.Type) (F, bool) {
	s := t.fns[key]
	return s.fn, s.ok
}

// registered reports the handler registered for key, ignoring handlers
// remembered from the resolver.
func (t *table[F]) registered(key reflect.Type) (F, bool) {
	s := t.fns[key]
	return s.fn, s.ok && s.set
}

// lookup reports the handler for key, consulting the resolver at most once.
func (t *table[F]) lookup(key reflect.Type) (F, bool) {
	if s, ok := t.fns[key]; ok {
		return s.fn, s.ok
	}
	var s slot[F]
	if t.resolve != nil {
		s.fn, s.ok = t.resolve(key)
	}
	t.fns[key] = s
	return s.fn, s.ok
}
