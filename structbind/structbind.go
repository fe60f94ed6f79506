// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

// Package structbind implements a bind.Binder for Go struct types, using
// reflection and struct field tags.
//
// Each exported field of a struct is a member, keyed by its field name
// unless a tag gives a different key:
//
//	type Node struct {
//	    Name  string            `jcodec:"name"`
//	    Attrs map[string]string `jcodec:"attrs,keep"`
//	    Next  *Node             `jcodec:",keep"`
//	    Cache []byte            `jcodec:"-"`
//	}
//
// The "keep" option sets KeepInstance for the member. A tag of "-" omits the
// field. Embedded structs are treated as ordinary fields keyed by the name
// of their type; their fields are not promoted.
package structbind

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/creachadair/jcodec/bind"
)

// TagName is the struct tag key consulted by the Binder.
const TagName = "jcodec"

// Binder is a bind.Binder that binds struct types by their fields.
// Non-struct types have no binding. The zero value is ready for use.
type Binder struct {
	// If true, fields without a tag are not bound.
	TaggedOnly bool
}

// Bind implements the bind.Binder interface.
func (b Binder) Bind(t reflect.Type) (*bind.Type, error) {
	if t.Kind() != reflect.Struct {
		return nil, nil
	}
	out := &bind.Type{New: func() any { return reflect.New(t).Interface() }}
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag, ok := f.Tag.Lookup(TagName)
		if tag == "-" || (b.TaggedOnly && !ok) {
			continue
		}
		key, opts, _ := strings.Cut(tag, ",")
		if key == "" {
			key = f.Name
		}
		m := bind.Member{
			Key:  key,
			Type: f.Type,
			Get:  getter(f.Index),
			Set:  setter(f.Index),
		}
		for _, opt := range strings.Split(opts, ",") {
			switch opt {
			case "":
			case "keep":
				m.KeepInstance = true
			default:
				return nil, &bind.ConfigError{
					Type: t, Member: key, Err: fmt.Errorf("unknown tag option %q", opt),
				}
			}
		}
		out.Members = append(out.Members, m)
	}
	return out, bind.Validate(t, out)
}

func getter(index []int) func(any) any {
	return func(inst any) any {
		return reflect.ValueOf(inst).Elem().FieldByIndex(index).Interface()
	}
}

func setter(index []int) func(any, any) {
	return func(inst, v any) {
		f := reflect.ValueOf(inst).Elem().FieldByIndex(index)
		if v == nil {
			f.SetZero()
		} else {
			f.Set(reflect.ValueOf(v))
		}
	}
}
