// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

// Package bind defines the member bindings a codec uses to read and write
// structured values without discovering their fields itself.
//
// A binding describes one Go type as a constructor plus an ordered list of
// members. Each member has a key, a declared type, and accessor functions
// that read or replace the member on an instance. The order of members is
// significant: values are written in that order, and decoding looks up keys
// starting from the member after the one most recently matched.
package bind

import (
	"errors"
	"fmt"
	"reflect"
)

// A Member binds one key of an object to a member of a Go value.
type Member struct {
	// Key is the object key for this member.
	Key string

	// Type is the declared type of the member value. Values passed to Set
	// are assignable to Type, and Get returns values of Type.
	Type reflect.Type

	// Get returns the current value of the member from inst, which is a
	// pointer to the bound type.
	Get func(inst any) any

	// Set replaces the member value in inst, which is a pointer to the bound
	// type. A nil v denotes the zero value of Type.
	Set func(inst, v any)

	// KeepInstance, if true, causes a decoder to decode into the existing
	// member value, when it is not nil, rather than replacing it with a new
	// one. It is only valid for pointer and map members.
	KeepInstance bool
}

// A Type binds a Go type to its constructor and its members.
type Type struct {
	// New returns a pointer to a new zero-valued instance of the type.
	New func() any

	// Members are the members of the type, in declaration order.
	Members []Member
}

// Member returns the member of b with the given key, or nil.
func (b *Type) Member(key string) *Member {
	for i := range b.Members {
		if b.Members[i].Key == key {
			return &b.Members[i]
		}
	}
	return nil
}

// A Binder reports the binding for a Go type.
//
// If t has no binding, Bind returns nil, nil. If t should have a binding but
// it cannot be constructed, Bind reports a non-nil error.
type Binder interface {
	Bind(t reflect.Type) (*Type, error)
}

// Func adapts a function to the Binder interface.
type Func func(reflect.Type) (*Type, error)

// Bind implements the Binder interface.
func (f Func) Bind(t reflect.Type) (*Type, error) { return f(t) }

// Map is a Binder that reports bindings from a fixed table.
type Map map[reflect.Type]*Type

// Bind implements the Binder interface.
func (m Map) Bind(t reflect.Type) (*Type, error) { return m[t], nil }

// Chain is a Binder that tries each binder in order, and reports the first
// binding or error found.
type Chain []Binder

// Bind implements the Binder interface.
func (c Chain) Bind(t reflect.Type) (*Type, error) {
	for _, b := range c {
		bt, err := b.Bind(t)
		if err != nil || bt != nil {
			return bt, err
		}
	}
	return nil, nil
}

// ConfigError reports an invalid binding.
type ConfigError struct {
	Type   reflect.Type // the bound type
	Member string       // the key of the offending member, or ""
	Err    error
}

// Error satisfies the error interface.
func (c *ConfigError) Error() string {
	if c.Member == "" {
		return fmt.Sprintf("binding for %v: %v", c.Type, c.Err)
	}
	return fmt.Sprintf("binding for %v member %q: %v", c.Type, c.Member, c.Err)
}

// Unwrap supports error wrapping.
func (c *ConfigError) Unwrap() error { return c.Err }

// Validate checks that b is a well-formed binding for t. If not, it reports
// an error of concrete type *ConfigError.
func Validate(t reflect.Type, b *Type) error {
	fail := func(key, msg string, args ...any) error {
		return &ConfigError{Type: t, Member: key, Err: fmt.Errorf(msg, args...)}
	}
	if b == nil {
		return fail("", "missing binding")
	}
	if b.New == nil {
		return fail("", "missing constructor")
	}
	seen := make(map[string]bool)
	for _, m := range b.Members {
		switch {
		case seen[m.Key]:
			return fail(m.Key, "duplicate key")
		case m.Type == nil:
			return fail(m.Key, "missing type")
		case m.Get == nil || m.Set == nil:
			return fail(m.Key, "missing accessor")
		case m.KeepInstance && !isReference(m.Type):
			return fail(m.Key, "cannot keep instance of %v: %w", m.Type, ErrNotReference)
		}
		seen[m.Key] = true
	}
	return nil
}

// ErrNotReference is reported by Validate for a member that requests
// KeepInstance but whose type cannot share an existing instance.
var ErrNotReference = errors.New("not a reference type")

func isReference(t reflect.Type) bool {
	k := t.Kind()
	return k == reflect.Pointer || k == reflect.Map
}
