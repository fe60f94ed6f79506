// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

package jcodec

import (
	"bufio"
	"cmp"
	"encoding"
	"fmt"
	"io"
	"reflect"
	"slices"
	"strconv"

	"github.com/creachadair/jcodec/bind"
	"github.com/creachadair/jcodec/internal/escape"
	"go4.org/mem"
)

var textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()

type blockKind byte

const (
	noBlock blockKind = iota
	arrayBlock
	objectBlock
)

var blockStr = [...]string{noBlock: "top level", arrayBlock: "array", objectBlock: "object"}

func (b blockKind) String() string { return blockStr[b] }

// An Encoder writes values to an output stream, using the handlers of a
// Registry to render values of Go types.
//
// Arrays and objects are written with WriteArray and WriteObject, whose
// callbacks call WriteElement before each element, or WriteKey before each
// member, and then write the value. The Encoder supplies the punctuation
// and, if enabled, the line breaks and indentation.
//
// Output is buffered; call Flush when finished. A write error is reported
// by Flush. An Encoder is not safe for concurrent use.
type Encoder struct {
	w      *bufio.Writer
	reg    *Registry
	pretty bool

	block blockKind // kind of the innermost open block
	wrote bool      // whether the current block has any members
	depth int       // nesting depth of non-empty blocks
	bol   bool      // at the beginning of an output line
}

// NewEncoder constructs an Encoder that writes to w and uses the handlers of
// reg. If reg == nil, the Default registry is used.
func NewEncoder(w io.Writer, reg *Registry, opts ...Option) *Encoder {
	if reg == nil {
		reg = Default()
	}
	set := resolveOptions(opts)
	return &Encoder{w: bufio.NewWriter(w), reg: reg, pretty: set.pretty, bol: true}
}

// Registry returns the registry used by e.
func (e *Encoder) Registry() *Registry { return e.reg }

// Flush writes any buffered output to the underlying writer.
func (e *Encoder) Flush() error { return e.w.Flush() }

// WriteValue encodes v. A nil v, or a nil pointer, map, or slice, is
// written as null.
func (e *Encoder) WriteValue(v any) (err error) {
	defer e.recover(&err)
	e.writeValue(reflect.ValueOf(v))
	return nil
}

// WriteArray writes an array whose elements are written by f.
// Each element must be preceded by a call to WriteElement.
func (e *Encoder) WriteArray(f func() error) (err error) {
	defer e.recover(&err)
	e.writeBlock(arrayBlock, func() { e.check(nil, f()) })
	return nil
}

// WriteObject writes an object whose members are written by f.
// Each member value must be preceded by a call to WriteKey.
func (e *Encoder) WriteObject(f func() error) (err error) {
	defer e.recover(&err)
	e.writeBlock(objectBlock, func() { e.check(nil, f()) })
	return nil
}

// WriteElement begins the next element of an array. It panics if the
// innermost block being written is not an array.
func (e *Encoder) WriteElement() { e.beginMember(arrayBlock) }

// WriteKey begins the next member of an object, writing key as a quoted
// string. It panics if the innermost block being written is not an object.
func (e *Encoder) WriteKey(key string) {
	e.beginMember(objectBlock)
	e.WriteString(key)
	e.colon()
}

// WriteKeyNoEscape is as WriteKey, but writes key without escaping it.
// The caller is responsible for ensuring that key needs no escapes.
func (e *Encoder) WriteKeyNoEscape(key string) {
	e.beginMember(objectBlock)
	e.w.WriteByte('"')
	e.w.WriteString(key)
	e.w.WriteByte('"')
	e.bol = false
	e.colon()
}

// WriteRaw writes text to the output verbatim.
func (e *Encoder) WriteRaw(text string) {
	e.w.WriteString(text)
	e.bol = false
}

// WriteString writes text as a quoted string literal.
func (e *Encoder) WriteString(text string) {
	e.w.WriteByte('"')
	e.w.Write(escape.Quote(mem.S(text)))
	e.w.WriteByte('"')
	e.bol = false
}

func (e *Encoder) colon() {
	e.w.WriteByte(':')
	if e.pretty {
		e.w.WriteByte(' ')
	}
}

// recover converts an encoding failure into an error at the API boundary.
func (e *Encoder) recover(errp *error) {
	if x := recover(); x != nil {
		f, ok := x.(encodeFailure)
		if !ok {
			panic(x)
		}
		*errp = f.err
	}
}

// check aborts the encode if err != nil. An error from a nested encode or
// decode is passed through; any other error is attributed to t.
func (e *Encoder) check(t reflect.Type, err error) {
	if err == nil {
		return
	}
	switch err.(type) {
	case *EncodeError, *DecodeError:
		panic(encodeFailure{err})
	}
	panic(encodeFailure{&EncodeError{Type: t, Err: err}})
}

func (e *Encoder) writeValue(v reflect.Value) {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			v = reflect.Value{}
			break
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		e.WriteRaw("null")
		return
	}

	t := v.Type()
	r := e.reg
	if fn, ok := r.encoders.exact(t); ok {
		e.check(t, fn(e, v.Interface()))
		return
	}
	if en := r.enums[t]; en != nil {
		name, ok := en.byValue[v.Interface()]
		if !ok {
			e.check(t, fmt.Errorf("%v is not a member of %v", v.Interface(), t))
		}
		e.WriteString(name)
		return
	}
	switch t.Kind() {
	case reflect.Map:
		if v.IsNil() {
			e.WriteRaw("null")
		} else {
			e.writeMap(v)
		}
		return
	case reflect.Slice:
		if v.IsNil() {
			e.WriteRaw("null")
			return
		}
		fallthrough
	case reflect.Array:
		e.writeBlock(arrayBlock, func() {
			for i := range v.Len() {
				e.WriteElement()
				e.writeValue(v.Index(i))
			}
		})
		return
	}
	if fn, ok := r.encoders.lookup(t); ok {
		e.check(t, fn(e, v.Interface()))
		return
	}
	e.check(t, fmt.Errorf("%w: cannot encode %v", ErrUnknownType, t))
}

// writeMap writes the members of a map in order of their keys.
func (e *Encoder) writeMap(v reflect.Value) {
	type member struct {
		key string
		val reflect.Value
	}
	kt := v.Type().Key()
	var ms []member
	for it := v.MapRange(); it.Next(); {
		ms = append(ms, member{key: e.mapKey(kt, it.Key()), val: it.Value()})
	}
	slices.SortFunc(ms, func(a, b member) int { return cmp.Compare(a.key, b.key) })
	e.writeBlock(objectBlock, func() {
		for _, m := range ms {
			e.WriteKey(m.key)
			e.writeValue(m.val)
		}
	})
}

// mapKey renders a map key as an object key.
func (e *Encoder) mapKey(kt reflect.Type, k reflect.Value) string {
	if en := e.reg.enums[kt]; en != nil {
		if name, ok := en.byValue[k.Interface()]; ok {
			return name
		}
		e.check(kt, fmt.Errorf("%v is not a member of %v", k.Interface(), kt))
	}
	if kt.Implements(textMarshalerType) {
		text, err := k.Interface().(encoding.TextMarshaler).MarshalText()
		e.check(kt, err)
		return string(text)
	}
	switch kt.Kind() {
	case reflect.String:
		return k.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(k.Uint(), 10)
	case reflect.Interface:
		if s, ok := k.Interface().(string); ok {
			return s
		}
		e.check(kt, fmt.Errorf("%w: map key %T", ErrUnknownType, k.Interface()))
	}
	e.check(kt, fmt.Errorf("%w: map key %v", ErrUnknownType, kt))
	panic("unreachable")
}

// writeMembers writes the members of inst, a pointer to a value of a type
// bound by b, as an object.
func (e *Encoder) writeMembers(b *bind.Type, inst any) (err error) {
	defer e.recover(&err)
	if h, ok := inst.(BeforeSaver); ok {
		e.check(nil, h.BeforeSave(e))
	}
	e.writeBlock(objectBlock, func() {
		for _, m := range b.Members {
			e.WriteKey(m.Key)
			e.writeValue(reflect.ValueOf(m.Get(inst)))
		}
	})
	if h, ok := inst.(AfterSaver); ok {
		e.check(nil, h.AfterSave(e))
	}
	return nil
}

// writeBlock writes an array or object whose members are written by f.
// The opening delimiter is written by the first member, so that an empty
// block has no interior whitespace.
func (e *Encoder) writeBlock(kind blockKind, f func()) {
	saveKind, saveWrote := e.block, e.wrote
	e.block, e.wrote = kind, false

	f()

	if e.wrote {
		e.depth--
		e.newline()
		e.w.WriteByte(closer(kind))
	} else {
		e.w.WriteByte(opener(kind))
		e.w.WriteByte(closer(kind))
	}
	e.bol = false
	e.block, e.wrote = saveKind, saveWrote
}

// beginMember starts a new member of the current block, which must have the
// given kind.
func (e *Encoder) beginMember(kind blockKind) {
	if e.block != kind {
		panic(fmt.Errorf("%w: %v member in %v", ErrBlockKind, kind, e.block))
	}
	if e.wrote {
		e.w.WriteByte(',')
	} else {
		e.w.WriteByte(opener(kind))
		e.depth++
		e.wrote = true
	}
	e.bol = false
	e.newline()
}

// newline starts a new indented line, in pretty mode only.
func (e *Encoder) newline() {
	if !e.pretty || e.bol {
		return
	}
	e.w.WriteByte('\n')
	for range e.depth {
		e.w.WriteByte('\t')
	}
	e.bol = true
}

func opener(kind blockKind) byte {
	if kind == arrayBlock {
		return '['
	}
	return '{'
}

func closer(kind blockKind) byte {
	if kind == arrayBlock {
		return ']'
	}
	return '}'
}
