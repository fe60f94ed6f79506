// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

package jcodec

import (
	"encoding"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"

	"github.com/creachadair/jcodec/bind"
)

var (
	anyType      = reflect.TypeFor[any]()
	anyMapType   = reflect.TypeFor[map[string]any]()
	anySliceType = reflect.TypeFor[[]any]()

	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// A Decoder reads values from an input stream, using the handlers of a
// Registry to construct values of Go types.
//
// The methods of a Decoder may be called by handlers while a decode is in
// progress. A Decoder is not safe for concurrent use.
type Decoder struct {
	s   *Scanner
	reg *Registry

	primed bool
	perr   error // error from priming the first token
}

// NewDecoder constructs a Decoder that reads from r and uses the handlers of
// reg. If reg == nil, the Default registry is used.
func NewDecoder(r io.Reader, reg *Registry, opts ...Option) *Decoder {
	if reg == nil {
		reg = Default()
	}
	set := resolveOptions(opts)
	s := NewScanner(r)
	s.SetStrict(set.strict)
	return &Decoder{s: s, reg: reg}
}

// Registry returns the registry used by d.
func (d *Decoder) Registry() *Registry { return d.reg }

// Scanner returns the underlying scanner. Advancing the scanner directly
// changes the current token of d.
func (d *Decoder) Scanner() *Scanner { d.prime(); return d.s }

// Token returns the current token of the input and, if it is a literal, its
// kind. It does not advance the input.
func (d *Decoder) Token() (Token, LiteralKind) {
	d.prime()
	return d.s.Token(), d.s.Kind()
}

// Pos returns the position of the current token.
func (d *Decoder) Pos() Position { d.prime(); return d.s.Pos() }

// More reports whether any input remains.
func (d *Decoder) More() bool {
	d.prime()
	return d.perr != nil || d.s.Token() != EndOfInput
}

// Decode decodes a value of type t from the input. If the input holds a
// null, Decode returns nil. A nil t is the same as the type of any.
func (d *Decoder) Decode(t reflect.Type) (_ any, err error) {
	defer d.recover(&err)
	d.start()
	if t == nil {
		t = anyType
	}
	if v := d.decodeValue(t); v.IsValid() {
		return v.Interface(), nil
	}
	return nil, nil
}

// DecodeAs decodes a value of type T from d. A null in the input decodes as
// the zero value of T.
func DecodeAs[T any](d *Decoder) (T, error) {
	var zero T
	v, err := d.Decode(reflect.TypeFor[T]())
	if err != nil || v == nil {
		return zero, err
	}
	return v.(T), nil
}

// DecodeInto decodes a value from the input into the value that ptr points
// to. Maps and slices are cleared and refilled, and bound types have the
// members named by the input replaced. Other types are decoded as by Decode
// and stored. A null in the input stores the zero value.
func (d *Decoder) DecodeInto(ptr any) (err error) {
	defer d.recover(&err)
	d.start()
	v := reflect.ValueOf(ptr)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		d.check(fmt.Errorf("decode into %T: not a non-nil pointer", ptr))
	}
	d.decodeInto(v.Elem())
	return nil
}

// ReadLiteral requires that the current token is a literal, and calls convert
// with its kind and text. If convert succeeds, the literal is consumed and
// its result is returned. If convert fails, the error is reported at the
// position of the literal.
func (d *Decoder) ReadLiteral(convert func(kind LiteralKind, text string) (any, error)) (_ any, err error) {
	defer d.recover(&err)
	d.start()
	return d.readLiteral(convert), nil
}

// ReadString reads a string literal.
func (d *Decoder) ReadString() (string, error) {
	v, err := d.ReadLiteral(func(kind LiteralKind, text string) (any, error) {
		if kind != String {
			return nil, fmt.Errorf("expected string, got %v", kind)
		}
		return text, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// ReadBool reads a true or false literal.
func (d *Decoder) ReadBool() (bool, error) {
	v, err := d.ReadLiteral(func(kind LiteralKind, _ string) (any, error) {
		switch kind {
		case True:
			return true, nil
		case False:
			return false, nil
		}
		return nil, fmt.Errorf("expected bool, got %v", kind)
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// ReadInt64 reads an integer literal as an int64.
func (d *Decoder) ReadInt64() (int64, error) {
	v, err := d.ReadLiteral(func(kind LiteralKind, text string) (any, error) {
		return parseInt(kind, text, 64)
	})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

// ReadInt reads an integer literal as an int.
func (d *Decoder) ReadInt() (int, error) {
	v, err := d.ReadLiteral(func(kind LiteralKind, text string) (any, error) {
		return parseInt(kind, text, strconv.IntSize)
	})
	if err != nil {
		return 0, err
	}
	return int(v.(int64)), nil
}

// ReadUint64 reads a non-negative integer literal as a uint64.
func (d *Decoder) ReadUint64() (uint64, error) {
	v, err := d.ReadLiteral(func(kind LiteralKind, text string) (any, error) {
		return parseUint(kind, text, 64)
	})
	if err != nil {
		return 0, err
	}
	return v.(uint64), nil
}

// ReadFloat64 reads any numeric literal as a float64.
func (d *Decoder) ReadFloat64() (float64, error) {
	v, err := d.ReadLiteral(func(kind LiteralKind, text string) (any, error) {
		return parseFloat(kind, text, 64)
	})
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

// DecodeObject decodes an object, calling f once for each key. When f is
// called the current token is the value for key. If f does not consume the
// value, it is skipped when f returns.
func (d *Decoder) DecodeObject(f func(key string) error) (err error) {
	defer d.recover(&err)
	d.start()
	d.decodeMembers(func(key string) bool {
		d.check(f(key))
		return false
	})
	return nil
}

// DecodeArray decodes an array, calling f once for each element. When f is
// called the current token is the start of the element. If f does not
// consume the element, it is skipped when f returns.
func (d *Decoder) DecodeArray(f func() error) (err error) {
	defer d.recover(&err)
	d.start()
	d.decodeElements(func() { d.check(f()) })
	return nil
}

// Skip consumes and discards the next value.
func (d *Decoder) Skip() error {
	_, err := d.Decode(anyType)
	return err
}

// Finish reports an error if any input other than whitespace and comments
// remains.
func (d *Decoder) Finish() (err error) {
	defer d.recover(&err)
	d.start()
	if d.s.Token() != EndOfInput {
		d.failf("unexpected %s after value", d.s.describe())
	}
	return nil
}

func (d *Decoder) prime() {
	if !d.primed {
		d.primed = true
		d.perr = d.s.Next()
	}
}

// start primes the first token, and reports any error from doing so.
func (d *Decoder) start() {
	d.prime()
	if err := d.perr; err != nil {
		d.perr = nil
		d.check(err)
	}
}

// recover converts a decoding failure into an error at the API boundary.
func (d *Decoder) recover(errp *error) {
	if x := recover(); x != nil {
		f, ok := x.(decodeFailure)
		if !ok {
			panic(x)
		}
		*errp = f.err
	}
}

// check aborts the decode if err != nil. An error from a nested decode or
// encode is passed through; a syntax error is reported where it was
// detected; any other error is reported at the current token.
func (d *Decoder) check(err error) {
	if err == nil {
		return
	}
	switch err.(type) {
	case *DecodeError, *EncodeError:
		panic(decodeFailure{err})
	}
	var se *SyntaxError
	if errors.As(err, &se) {
		d.failAt(se.Pos, err)
	}
	d.failAt(d.s.Pos(), err)
}

func (d *Decoder) failAt(pos Position, err error) {
	panic(decodeFailure{&DecodeError{Pos: pos, Err: err}})
}

// failf aborts with a syntax error at the current token.
func (d *Decoder) failf(msg string, args ...any) {
	pos := d.s.Pos()
	d.failAt(pos, &SyntaxError{Pos: pos, Message: fmt.Sprintf(msg, args...)})
}

func (d *Decoder) next() { d.check(d.s.Next()) }

func (d *Decoder) isNull() bool { return d.s.Token() == Literal && d.s.Kind() == Null }

func (d *Decoder) readLiteral(convert func(LiteralKind, string) (any, error)) any {
	if d.s.Token() != Literal {
		d.failf("expected literal, got %s", d.s.describe())
	}
	v, err := convert(d.s.Kind(), d.s.Text())
	d.check(err)
	d.next()
	return v
}

// decodeValue decodes a value of type t. The result is assignable to t, or
// is invalid if the input held a null.
func (d *Decoder) decodeValue(t reflect.Type) reflect.Value {
	if d.isNull() {
		d.next()
		return reflect.Value{}
	}
	if t.Kind() == reflect.Pointer {
		v := d.decodeValue(t.Elem())
		if !v.IsValid() {
			return v
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(v)
		return p
	}

	r := d.reg
	if fn, ok := r.decoders.exact(t); ok {
		v, err := fn(d)
		d.check(err)
		return d.result(t, v)
	}
	if fn, ok := r.factories.lookup(t); ok {
		return d.decodeFactory(t, fn)
	}
	if _, ok := r.intos.exact(t); ok {
		p := reflect.New(t)
		d.decodeInto(p.Elem())
		return p.Elem()
	}
	if e := r.enums[t]; e != nil {
		return d.decodeEnum(t, e)
	}
	if t.Kind() == reflect.Array {
		return d.decodeArray(t)
	}

	switch tok := d.s.Token(); {
	case tok == OpenBrace && anyMapType.AssignableTo(t):
		m := make(map[string]any)
		d.decodeMembers(func(key string) bool {
			if v := d.decodeValue(anyType); v.IsValid() {
				m[key] = v.Interface()
			} else {
				m[key] = nil
			}
			return false
		})
		return reflect.ValueOf(m)

	case tok == OpenBracket && anySliceType.AssignableTo(t):
		a := make([]any, 0)
		d.decodeElements(func() {
			if v := d.decodeValue(anyType); v.IsValid() {
				a = append(a, v.Interface())
			} else {
				a = append(a, nil)
			}
		})
		return reflect.ValueOf(a)

	case tok == Literal && naturalFits(d.s.Kind(), t):
		v, err := naturalValue(d.s.Kind(), d.s.Text())
		d.check(err)
		if reflect.TypeOf(v).AssignableTo(t) {
			d.next()
			return reflect.ValueOf(v)
		}
	}

	if isValueKind(t) {
		if fn, ok := r.decoders.lookup(t); ok {
			v, err := fn(d)
			d.check(err)
			return d.result(t, v)
		}
		d.check(fmt.Errorf("%w: cannot decode %v", ErrUnknownType, t))
	}
	if k := t.Kind(); k == reflect.Map || k == reflect.Slice {
		p := reflect.New(t)
		d.decodeInto(p.Elem())
		return p.Elem()
	}
	d.failf("unexpected %s", d.s.describe())
	panic("unreachable")
}

// isValueKind reports whether values of t are constructed whole, rather than
// allocated and filled in.
func isValueKind(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Map, reflect.Slice, reflect.Interface, reflect.Pointer,
		reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return false
	}
	return true
}

// result converts v, returned by a handler for t, to a value of t.
// A pointer to a value of t is accepted in place of the value.
func (d *Decoder) result(t reflect.Type, v any) reflect.Value {
	if v == nil {
		return reflect.Value{}
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv
	}
	if rv.Kind() == reflect.Pointer && rv.Type().Elem().AssignableTo(t) {
		if rv.IsNil() {
			return reflect.Value{}
		}
		return rv.Elem()
	}
	d.check(fmt.Errorf("handler for %v returned %T", t, v))
	panic("unreachable")
}

// decodeFactory decodes a value of polymorphic type t, using fn to choose
// the concrete type. If fn cannot choose without seeing the keys of the
// object, the keys are scanned and the input rewound to the start of the
// object before decoding it.
func (d *Decoder) decodeFactory(t reflect.Type, fn FactoryFunc) reflect.Value {
	start := d.s.Pos()
	inst, err := fn(d, nil)
	d.check(err)
	if inst == nil {
		d.s.Bookmark()
		rewound := false
		defer func() {
			if !rewound {
				d.s.DiscardBookmark()
			}
		}()
		d.decodeMembers(func(key string) bool {
			inst, err = fn(d, &key)
			d.check(err)
			return inst != nil
		})
		d.s.Rewind()
		rewound = true
		if inst == nil {
			d.failAt(start, fmt.Errorf("%w %v: no key selected a type", ErrFactory, t))
		}
	}
	pv := reflect.ValueOf(inst)
	if pv.Kind() != reflect.Pointer || pv.IsNil() {
		d.failAt(start, fmt.Errorf("%w %v: factory returned %T, want a non-nil pointer", ErrFactory, t, inst))
	}
	d.decodeInto(pv.Elem())
	return d.result(t, inst)
}

func (d *Decoder) decodeEnum(t reflect.Type, e *enumInfo) reflect.Value {
	v := d.readLiteral(func(kind LiteralKind, text string) (any, error) {
		if kind != String {
			return nil, fmt.Errorf("expected %v name, got %v", t, kind)
		}
		if v, ok := e.byName[text]; ok {
			return v, nil
		}
		return nil, fmt.Errorf("invalid %v name %q", t, text)
	})
	return reflect.ValueOf(v)
}

// decodeArray decodes a fixed-length array. Missing elements are zero.
func (d *Decoder) decodeArray(t reflect.Type) reflect.Value {
	start := d.s.Pos()
	elts := reflect.New(reflect.SliceOf(t.Elem())).Elem()
	d.decodeSliceInto(elts)
	if elts.Len() > t.Len() {
		d.failAt(start, fmt.Errorf("too many elements for %v: got %d", t, elts.Len()))
	}
	out := reflect.New(t).Elem()
	reflect.Copy(out, elts)
	return out
}

// decodeInto decodes into v, which must be addressable to retain the result.
func (d *Decoder) decodeInto(v reflect.Value) {
	if !v.CanAddr() {
		p := reflect.New(v.Type())
		p.Elem().Set(v)
		v = p.Elem()
	}
	if d.isNull() {
		d.next()
		v.SetZero()
		return
	}
	t := v.Type()
	if t.Kind() == reflect.Pointer {
		if v.IsNil() {
			v.Set(reflect.New(t.Elem()))
		}
		d.decodeInto(v.Elem())
		return
	}

	r := d.reg
	if fn, ok := r.intos.exact(t); ok {
		d.check(fn(d, v.Addr().Interface()))
		return
	}
	if _, ok := r.decoders.registered(t); !ok {
		switch t.Kind() {
		case reflect.Map:
			d.decodeMapInto(v)
			return
		case reflect.Slice:
			d.decodeSliceInto(v)
			return
		}
		if fn, ok := r.intos.lookup(t); ok {
			d.check(fn(d, v.Addr().Interface()))
			return
		}
	}
	if nv := d.decodeValue(t); nv.IsValid() {
		v.Set(nv)
	} else {
		v.SetZero()
	}
}

func (d *Decoder) decodeMapInto(v reflect.Value) {
	t := v.Type()
	if v.IsNil() {
		v.Set(reflect.MakeMap(t))
	} else {
		v.Clear()
	}
	kt, et := t.Key(), t.Elem()
	d.decodeMembers(func(key string) bool {
		k := d.mapKey(kt, key)
		ev := d.decodeValue(et)
		if !ev.IsValid() {
			ev = reflect.Zero(et)
		}
		v.SetMapIndex(k, ev)
		return false
	})
}

// mapKey converts an object key to a map key of type kt.
func (d *Decoder) mapKey(kt reflect.Type, key string) reflect.Value {
	if e := d.reg.enums[kt]; e != nil {
		if v, ok := e.byName[key]; ok {
			return reflect.ValueOf(v)
		}
		d.check(fmt.Errorf("invalid %v name %q", kt, key))
	}
	if reflect.PointerTo(kt).Implements(textUnmarshalerType) {
		p := reflect.New(kt)
		d.check(p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(key)))
		return p.Elem()
	}
	k := reflect.New(kt).Elem()
	switch kt.Kind() {
	case reflect.String:
		k.SetString(key)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(key, 10, kt.Bits())
		if err != nil {
			d.check(fmt.Errorf("invalid %v key %q", kt, key))
		}
		k.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, err := strconv.ParseUint(key, 10, kt.Bits())
		if err != nil {
			d.check(fmt.Errorf("invalid %v key %q", kt, key))
		}
		k.SetUint(n)
	case reflect.Interface:
		if kt.NumMethod() != 0 {
			d.check(fmt.Errorf("%w: map key %v", ErrUnknownType, kt))
		}
		k.Set(reflect.ValueOf(key))
	default:
		d.check(fmt.Errorf("%w: map key %v", ErrUnknownType, kt))
	}
	return k
}

func (d *Decoder) decodeSliceInto(v reflect.Value) {
	t := v.Type()
	if v.IsNil() {
		v.Set(reflect.MakeSlice(t, 0, 0))
	} else {
		v.SetLen(0)
	}
	et := t.Elem()
	d.decodeElements(func() {
		ev := d.decodeValue(et)
		if !ev.IsValid() {
			ev = reflect.Zero(et)
		}
		v.Set(reflect.Append(v, ev))
	})
}

// decodeMembersInto decodes an object into inst, a pointer to a value of a
// type bound by b.
func (d *Decoder) decodeMembersInto(b *bind.Type, inst any) (err error) {
	defer d.recover(&err)
	if h, ok := inst.(BeforeLoader); ok {
		d.check(h.BeforeLoad(d))
	}
	fl, _ := inst.(FieldLoader)
	last := -1
	d.decodeMembers(func(key string) bool {
		if fl != nil {
			ok, err := fl.LoadField(d, key)
			d.check(err)
			if ok {
				return false
			}
		}
		i := findMember(b.Members, key, last+1)
		if i < 0 {
			return false // skipped
		}
		last = i
		m := &b.Members[i]
		if m.KeepInstance && !d.isNull() {
			if cur := reflect.ValueOf(m.Get(inst)); cur.IsValid() && !cur.IsNil() {
				d.decodeInto(cur)
				return false
			}
		}
		v := d.decodeValue(m.Type)
		if !v.IsValid() {
			v = reflect.Zero(m.Type)
		}
		m.Set(inst, v.Interface())
		return false
	})
	if h, ok := inst.(AfterLoader); ok {
		d.check(h.AfterLoad(d))
	}
	return nil
}

// findMember returns the index of the member with the given key, searching
// from start and wrapping around, or -1.
func findMember(ms []bind.Member, key string, start int) int {
	n := len(ms)
	for j := range n {
		if i := (start + j) % n; ms[i].Key == key {
			return i
		}
	}
	return -1
}

// decodeMembers decodes an object, calling f for each key with the current
// token at the corresponding value. If f reports true, decodeMembers returns
// at once, leaving the rest of the object unread. If f does not consume the
// value, it is skipped.
func (d *Decoder) decodeMembers(f func(key string) bool) {
	s := d.s
	d.check(s.Check(OpenBrace))
	d.next()
	for s.Token() != CloseBrace {
		switch {
		case s.Token() == Literal && s.Kind() == String:
		case s.Token() == Identifier:
			if s.Strict() {
				d.failf("unquoted keys are not allowed in strict mode")
			}
		default:
			d.failf("expected object key, got %s", s.describe())
		}
		key := s.Text()
		d.next()
		d.check(s.Check(Colon))
		d.next()

		before := s.Pos()
		if f(key) {
			return
		}
		if s.Pos() == before {
			d.decodeValue(anyType)
		}
		if !d.separator(CloseBrace) {
			break
		}
	}
	d.next()
}

// decodeElements decodes an array, calling f for each element. If f does
// not consume the element, it is skipped.
func (d *Decoder) decodeElements(f func()) {
	s := d.s
	d.check(s.Check(OpenBracket))
	d.next()
	for s.Token() != CloseBracket {
		before := s.Pos()
		f()
		if s.Pos() == before {
			d.decodeValue(anyType)
		}
		if !d.separator(CloseBracket) {
			break
		}
	}
	d.next()
}

// separator consumes the comma after a member, if present, and reports
// whether another member may follow. Otherwise the current token must be
// the closing delimiter.
func (d *Decoder) separator(end Token) bool {
	s := d.s
	if s.Token() == Comma {
		pos := s.Pos()
		d.next()
		if s.Token() == end && s.Strict() {
			d.failAt(pos, &SyntaxError{Pos: pos, Message: "trailing commas are not allowed in strict mode"})
		}
		return true
	}
	if s.Token() != end {
		d.failf("expected %v or %v, got %s", Comma, end, s.describe())
	}
	return false
}
