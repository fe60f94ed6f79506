// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

package jcodec_test

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/creachadair/jcodec"
	"github.com/creachadair/jcodec/internal/testutil"
	"github.com/google/go-cmp/cmp"
	"github.com/tailscale/hujson"
)

func newDecoder(r *jcodec.Registry, input string, opts ...jcodec.Option) *jcodec.Decoder {
	return jcodec.NewDecoder(strings.NewReader(input), r, opts...)
}

func TestDecodeAny(t *testing.T) {
	tests := []struct {
		input string
		want  any
	}{
		{`null`, nil},
		{`true`, true},
		{`false`, false},
		{`"a"`, "a"},
		{`'b'`, "b"},
		{`5`, uint64(5)},
		{`-5`, int64(-5)},
		{`5.0`, 5.0},
		{`5e1`, 50.0},
		{`0x1F`, uint64(31)},
		{`-0x10`, int64(-16)},
		{`007`, uint64(7)},
		{`18446744073709551616`, 18446744073709551616.0},
		{`[1, "a", null, []]`, []any{uint64(1), "a", nil, []any{}}},
		{`{}`, map[string]any{}},
		{`{"a": {"b": [true]}, c: 'd',}`, map[string]any{
			"a": map[string]any{"b": []any{true}},
			"c": "d",
		}},
		{`/* lead */ [1, 2, /* mid */ 3,] // trail`, []any{uint64(1), uint64(2), uint64(3)}},
	}
	for _, tc := range tests {
		d := newDecoder(nil, tc.input)
		got, err := d.Decode(nil)
		if err != nil {
			t.Errorf("Decode %#q: unexpected error: %v", tc.input, err)
			continue
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("Decode %#q: (-want, +got)\n%s", tc.input, diff)
		}
		if err := d.Finish(); err != nil {
			t.Errorf("Finish %#q: %v", tc.input, err)
		}
	}
}

type celsius float64

type label string

// checkDecode verifies that input decodes as want when unmarshaled into a
// value of type T.
func checkDecode[T any](t *testing.T, r *jcodec.Registry, input string, want T) {
	t.Helper()
	var got T
	if err := r.Unmarshal([]byte(input), &got); err != nil {
		t.Errorf("Unmarshal %#q into %T: unexpected error: %v", input, got, err)
		return
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Unmarshal %#q into %T: (-want, +got)\n%s", input, got, diff)
	}
}

// checkDecodeError verifies that unmarshaling input into a value of type T
// fails with an error matching target, whose text contains want.
func checkDecodeError[T any](t *testing.T, r *jcodec.Registry, input string, target error, want string) {
	t.Helper()
	var got T
	err := r.Unmarshal([]byte(input), &got)
	if err == nil {
		t.Errorf("Unmarshal %#q into %T: got %v, want error", input, got, got)
		return
	}
	var derr *jcodec.DecodeError
	if !errors.As(err, &derr) {
		t.Errorf("Unmarshal %#q into %T: got %T, want *DecodeError", input, got, err)
	}
	if target != nil && !errors.Is(err, target) {
		t.Errorf("Unmarshal %#q into %T: got %v, want %v", input, got, err, target)
	}
	if !strings.Contains(err.Error(), want) {
		t.Errorf("Unmarshal %#q into %T: got %q, want %q", input, got, err, want)
	}
}

func ptr[T any](v T) *T { return &v }

func TestDecodeTyped(t *testing.T) {
	r := testutil.NewRegistry()

	t.Run("Scalars", func(t *testing.T) {
		checkDecode(t, r, `-12`, -12)
		checkDecode(t, r, `127`, int8(127))
		checkDecode(t, r, `0xff`, uint16(255))
		checkDecode(t, r, `1.5`, float32(1.5))
		checkDecode(t, r, `3`, 3.0)
		checkDecode(t, r, `-0x8000000000000000`, int64(-1<<63))
		checkDecode(t, r, `'hi'`, "hi")
		checkDecode(t, r, `false`, false)
		checkDecode(t, r, `21.5`, celsius(21.5))
		checkDecode(t, r, `"warm"`, label("warm"))
		checkDecode(t, r, `"green"`, testutil.Green)
	})
	t.Run("Special", func(t *testing.T) {
		checkDecode(t, r, `"aGVsbG8="`, []byte("hello"))
		checkDecode(t, r, `1700000000123`, time.UnixMilli(1700000000123).UTC())
		checkDecode(t, r, `-1000`, time.Unix(-1, 0).UTC())
		checkDecode(t, r, `1500000000`, 1500*time.Millisecond)
	})
	t.Run("Pointers", func(t *testing.T) {
		checkDecode(t, r, `7`, ptr(7))
		checkDecode(t, r, `null`, (*int)(nil))
		checkDecode(t, r, `"x"`, ptr(ptr("x")))
		checkDecode(t, r, `{"name": "p"}`, &testutil.Node{Name: "p"})
	})
	t.Run("Sequences", func(t *testing.T) {
		checkDecode(t, r, `[1, 2, 3]`, []int{1, 2, 3})
		checkDecode(t, r, `[]`, []int{})
		checkDecode(t, r, `null`, []int(nil))
		checkDecode(t, r, `[1, null, 3]`, []*int{ptr(1), nil, ptr(3)})
		checkDecode(t, r, `[1, 2]`, [3]int{1, 2, 0})
		checkDecode(t, r, `[[1], [2, 3]]`, [][]uint{{1}, {2, 3}})
		checkDecode(t, r, `["red", "blue"]`, []testutil.Color{testutil.Red, testutil.Blue})
		checkDecode(t, r, `[1, "a"]`, []any{uint64(1), "a"})
	})
	t.Run("Maps", func(t *testing.T) {
		checkDecode(t, r, `{"a": 1, b: 2}`, map[string]int{"a": 1, "b": 2})
		checkDecode(t, r, `{"1": "x", "-2": "y"}`, map[int]string{1: "x", -2: "y"})
		checkDecode(t, r, `{"7": true}`, map[uint8]bool{7: true})
		checkDecode(t, r, `{"red": 1, "blue": 3}`, map[testutil.Color]int{testutil.Red: 1, testutil.Blue: 3})
		checkDecode(t, r, `{"a": null}`, map[string]*int{"a": nil})
		checkDecode(t, r, `{"k": [1]}`, map[label][]int{"k": {1}})
		checkDecode(t, r, `{"x": {"y": "z"}}`, map[string]any{"x": map[string]any{"y": "z"}})
	})
	t.Run("Structs", func(t *testing.T) {
		checkDecode(t, r, `{
  "name": "root",
  "tags": ["a", "b"],
  "next": {"name": "second", "attrs": {"k": "v"}},
}`, testutil.Node{
			Name: "root",
			Tags: []string{"a", "b"},
			Next: &testutil.Node{Name: "second", Attrs: map[string]string{"k": "v"}},
		})
		checkDecode(t, r, `[4, -5]`, testutil.Point{X: 4, Y: -5})
		checkDecode(t, r, `[[1, 2], null]`, []*testutil.Point{{X: 1, Y: 2}, nil})
	})
	t.Run("Null", func(t *testing.T) {
		// A null decodes to the zero value even for non-nullable types.
		checkDecode(t, r, `null`, 0)
		checkDecode(t, r, `null`, "")
		checkDecode(t, r, `null`, testutil.Node{})

		d := newDecoder(r, `null`)
		if v, err := d.Decode(reflect.TypeFor[int]()); err != nil || v != nil {
			t.Errorf("Decode null as int: got %v, %v; want nil, nil", v, err)
		}
	})
}

func TestDecodeErrors(t *testing.T) {
	r := testutil.NewRegistry()

	// The position of an error is that of the token being decoded.
	checkDecodeError[any](t, r, "{\n  \"a\": ,\n}", jcodec.ErrSyntax, `unexpected "," (line 2, character 8)`)
	checkDecodeError[any](t, r, `[1, 2`, jcodec.ErrSyntax, `expected "," or "]", got end of input (line 1, character 6)`)
	checkDecodeError[any](t, r, `{"a" 1}`, jcodec.ErrSyntax, `expected ":", got number 1`)
	checkDecodeError[any](t, r, `{"a": 1 "b": 2}`, jcodec.ErrSyntax, `expected "," or "}", got string "b"`)
	checkDecodeError[any](t, r, `{1: 2}`, jcodec.ErrSyntax, "expected object key, got number 1")
	checkDecodeError[any](t, r, `[1 2]`, jcodec.ErrSyntax, `expected "," or "]"`)
	checkDecodeError[any](t, r, `1 2`, jcodec.ErrSyntax, "unexpected number 2 after value (line 1, character 3)")
	checkDecodeError[any](t, r, `"abc`, jcodec.ErrSyntax, "unterminated string (line 1, character 1)")
	checkDecodeError[any](t, r, `foo`, jcodec.ErrSyntax, `unexpected identifier "foo"`)
	checkDecodeError[any](t, r, ``, jcodec.ErrSyntax, "unexpected end of input")

	// Conversion errors are reported at the literal.
	checkDecodeError[[]int8](t, r, `[1, 2, 300]`, nil, "number 300 out of range (line 1, character 8)")
	checkDecodeError[[]int](t, r, `[1, "x"]`, nil, "expected integer, got string (line 1, character 5)")
	checkDecodeError[uint](t, r, `-1`, nil, "invalid number -1")
	checkDecodeError[bool](t, r, `1`, nil, "expected bool, got unsigned integer")
	checkDecodeError[[]byte](t, r, `"!!"`, nil, "illegal base64")
	checkDecodeError[testutil.Color](t, r, `"Green"`, nil, `invalid testutil.Color name "Green"`)
	checkDecodeError[testutil.Color](t, r, `2`, nil, "expected testutil.Color name, got unsigned integer")
	checkDecodeError[map[int]bool](t, r, `{"x": true}`, nil, `invalid int key "x"`)
	checkDecodeError[[2]int](t, r, `[1, 2, 3]`, nil, "too many elements for [2]int: got 3 (line 1, character 1)")
	checkDecodeError[testutil.Point](t, r, `[1]`, nil, "point has 1 coordinates, want 2")
	checkDecodeError[testutil.Node](t, r, `[]`, jcodec.ErrSyntax, `expected "{", got "["`)

	// Types with no handler.
	bare := jcodec.NewRegistry(nil)
	checkDecodeError[testutil.Node](t, bare, `{}`, jcodec.ErrUnknownType, "cannot decode testutil.Node")
	checkDecodeError[complex128](t, bare, `1`, jcodec.ErrUnknownType, "cannot decode complex128")
	checkDecodeError[map[float64]int](t, bare, `{"1": 1}`, jcodec.ErrUnknownType, "map key float64")
	checkDecodeError[chan int](t, bare, `[]`, jcodec.ErrSyntax, `unexpected "["`)

	// A literal that cannot be stored in the target is unexpected, even if
	// its natural value is out of range.
	checkDecodeError[io.Reader](t, r, `1e999`, jcodec.ErrSyntax, "unexpected number 1e999 (line 1, character 1)")
	checkDecodeError[fmt.Stringer](t, r, `"x"`, jcodec.ErrSyntax, `unexpected string "x"`)
	checkDecodeError[any](t, r, `1e999`, nil, "number 1e999 out of range")

	// Decoding requires a non-nil pointer.
	for _, arg := range []any{5, testutil.Point{}, (*int)(nil)} {
		err := newDecoder(r, ` 1`).DecodeInto(arg)
		var derr *jcodec.DecodeError
		if !errors.As(err, &derr) {
			t.Errorf("DecodeInto(%T): got %v, want *DecodeError", arg, err)
			continue
		}
		if want := (jcodec.Position{Line: 0, Offset: 1}); derr.Pos != want {
			t.Errorf("DecodeInto(%T): error at %v, want %v", arg, derr.Pos, want)
		}
	}
}

type entry struct {
	A int `jcodec:"a"`
}

type entries struct {
	First entry            `jcodec:"first"`
	Rest  []entry          `jcodec:"rest"`
	ByKey map[string]entry `jcodec:"byKey"`
}

func TestFreshRegistry(t *testing.T) {
	// Each entry point reaches a bound type before anything else has used
	// it, so the registry resolves its handlers in a different order.
	tests := []struct {
		name  string
		input string
		run   func(*jcodec.Decoder) (any, error)
		want  any
	}{
		{"Slice", `[{"a": 1}, {"a": 2}]`, func(d *jcodec.Decoder) (any, error) {
			return jcodec.DecodeAs[[]entry](d)
		}, []entry{{A: 1}, {A: 2}}},
		{"Value", `{"a": 3}`, func(d *jcodec.Decoder) (any, error) {
			return jcodec.DecodeAs[entry](d)
		}, entry{A: 3}},
		{"Pointer", `{"a": 4}`, func(d *jcodec.Decoder) (any, error) {
			return d.Decode(reflect.TypeFor[*entry]())
		}, &entry{A: 4}},
		{"Map", `{"x": {"a": 5}}`, func(d *jcodec.Decoder) (any, error) {
			return jcodec.DecodeAs[map[string]entry](d)
		}, map[string]entry{"x": {A: 5}}},
		{"Array", `[{"a": 6}]`, func(d *jcodec.Decoder) (any, error) {
			return jcodec.DecodeAs[[1]entry](d)
		}, [1]entry{{A: 6}}},
		{"Fields", `{"first": {"a": 7}, "rest": [{"a": 8}], "byKey": {"k": {"a": 9}}}`,
			func(d *jcodec.Decoder) (any, error) {
				var v entries
				err := d.DecodeInto(&v)
				return v, err
			}, entries{First: entry{A: 7}, Rest: []entry{{A: 8}}, ByKey: map[string]entry{"k": {A: 9}}}},
		{"Factory", `{"shapes": [{"kind": "circle", "r": 1}]}`, func(d *jcodec.Decoder) (any, error) {
			return jcodec.DecodeAs[testutil.Drawing](d)
		}, testutil.Drawing{Shapes: []testutil.Shape{&testutil.Circle{Kind: "circle", R: 1}}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.run(newDecoder(testutil.NewRegistry(), tc.input))
			if err != nil {
				t.Fatalf("Decode %#q: unexpected error: %v", tc.input, err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Decode %#q: (-want, +got)\n%s", tc.input, diff)
			}
		})
	}

	// Decoding a value first and then in place uses the same handlers.
	r := testutil.NewRegistry()
	first, err := jcodec.DecodeAs[entry](newDecoder(r, `{"a": 10}`))
	if err != nil {
		t.Fatalf("DecodeAs: unexpected error: %v", err)
	}
	second := entry{A: -1}
	if err := r.Unmarshal([]byte(`{"a": 11}`), &second); err != nil {
		t.Fatalf("Unmarshal: unexpected error: %v", err)
	}
	if first.A != 10 || second.A != 11 {
		t.Errorf("Decoded %+v, %+v; want {A:10}, {A:11}", first, second)
	}
}

func TestStrict(t *testing.T) {
	tests := []struct {
		input string
		want  any
		error string
	}{
		{`{ a: 1 }`, map[string]any{"a": uint64(1)}, "unquoted keys are not allowed"},
		{`[1,2,]`, []any{uint64(1), uint64(2)}, "trailing commas are not allowed"},
		{`{"a": 1,}`, map[string]any{"a": uint64(1)}, "trailing commas are not allowed"},
		{"// comment\n[]", []any{}, "comments are not allowed"},
		{`'single quoted'`, "single quoted", "single-quoted strings are not allowed"},
		{`0x10`, uint64(16), "hexadecimal numbers are not allowed"},
		{`[00]`, []any{uint64(0)}, "extra leading zeroes"},
	}
	for _, tc := range tests {
		got, err := newDecoder(nil, tc.input).Decode(nil)
		if err != nil {
			t.Errorf("Decode %#q: unexpected error: %v", tc.input, err)
		} else if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("Decode %#q: (-want, +got)\n%s", tc.input, diff)
		}

		_, err = newDecoder(nil, tc.input, jcodec.Strict(true)).Decode(nil)
		if !errors.Is(err, jcodec.ErrSyntax) {
			t.Errorf("Decode %#q (strict): got %v, want syntax error", tc.input, err)
		} else if !strings.Contains(err.Error(), tc.error) {
			t.Errorf("Decode %#q (strict): got %q, want %q", tc.input, err, tc.error)
		}
	}
}

func TestStandardizedInput(t *testing.T) {
	// Input with comments and trailing commas decodes the same in permissive
	// mode as its standardized form does in strict mode.
	inputs := []string{
		`[]`,
		`{"a": 1, /* two */ "b": [true, false,],}`,
		"// header\n{\n  \"list\": [1, 2.5, -3, \"x\",], // trailing\n  \"nested\": {\"k\": null,},\n}\n",
		`[{"a": {"b": {"c": [[], {}, /* empty */],},},},]`,
	}
	for _, input := range inputs {
		std, err := hujson.Standardize([]byte(input))
		if err != nil {
			t.Fatalf("Standardize %#q: %v", input, err)
		}
		want, err := newDecoder(nil, string(std), jcodec.Strict(true)).Decode(nil)
		if err != nil {
			t.Errorf("Decode %#q (strict): %v", std, err)
			continue
		}
		got, err := newDecoder(nil, input).Decode(nil)
		if err != nil {
			t.Errorf("Decode %#q: %v", input, err)
			continue
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Decode %#q: (-standard, +permissive)\n%s", input, diff)
		}
	}
}

func TestFactory(t *testing.T) {
	r := testutil.NewRegistry()
	shapeType := reflect.TypeFor[testutil.Shape]()

	t.Run("KeyOrder", func(t *testing.T) {
		want := &testutil.Square{Kind: "square", Side: 2, X: 1}
		for _, input := range []string{
			`{"kind": "square", "x": 1, "side": 2}`,
			`{"x": 1, "kind": "square", "side": 2}`,
			`{"x": 1, "side": 2, "kind": "square"}`,
			"{\n  x: 1,\n  side: 2,\n  // discriminator last\n  kind: 'square',\n}",
		} {
			got, err := newDecoder(r, input).Decode(shapeType)
			if err != nil {
				t.Errorf("Decode %#q: unexpected error: %v", input, err)
				continue
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("Decode %#q: (-want, +got)\n%s", input, diff)
			}
		}
	})

	t.Run("Nested", func(t *testing.T) {
		got, err := jcodec.DecodeAs[testutil.Drawing](newDecoder(r, `{
  "title": "demo",
  "shapes": [
    {"r": 1.5, "kind": "circle"},
    null,
    {"kind": "square", "side": 3},
  ],
  "byName": {"c": {"x": 9, "kind": "circle"}},
}`))
		if err != nil {
			t.Fatalf("Decode: unexpected error: %v", err)
		}
		want := testutil.Drawing{
			Title: "demo",
			Shapes: []testutil.Shape{
				&testutil.Circle{Kind: "circle", R: 1.5},
				nil,
				&testutil.Square{Kind: "square", Side: 3},
			},
			ByName: map[string]testutil.Shape{"c": &testutil.Circle{Kind: "circle", X: 9}},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Decode: (-want, +got)\n%s", diff)
		}
	})

	t.Run("Errors", func(t *testing.T) {
		checkDecodeError[testutil.Shape](t, r, `{"x": 1}`, jcodec.ErrFactory, "(line 1, character 1)")
		checkDecodeError[testutil.Shape](t, r, `{}`, jcodec.ErrFactory, "no key selected a type")
		checkDecodeError[testutil.Shape](t, r, `{"x": 1, "kind": "hexagon"}`, nil,
			`unknown shape kind "hexagon" (line 1, character 18)`)
		checkDecodeError[testutil.Shape](t, r, `[1]`, jcodec.ErrSyntax, `expected "{", got "["`)
		checkDecodeError[testutil.Shape](t, r, `{"x": 1, "kind": "circle", "r": }`, jcodec.ErrSyntax, `expected literal, got "}"`)
	})
}

// A labeled value is polymorphic; its concrete type is chosen by the type of
// the shape it contains.
type labeled interface{ Label() string }

type roundLabel struct {
	Name  string         `jcodec:"label"`
	Inner testutil.Shape `jcodec:"inner"`
}

func (r *roundLabel) Label() string { return "round " + r.Name }

type squareLabel struct {
	Name  string         `jcodec:"label"`
	Inner testutil.Shape `jcodec:"inner"`
}

func (s *squareLabel) Label() string { return "square " + s.Name }

func labeledFactory(d *jcodec.Decoder, key *string) (labeled, error) {
	if key == nil || *key != "inner" {
		return nil, nil
	}
	s, err := jcodec.DecodeAs[testutil.Shape](d)
	if err != nil {
		return nil, err
	}
	switch s.(type) {
	case *testutil.Circle:
		return new(roundLabel), nil
	case *testutil.Square:
		return new(squareLabel), nil
	}
	return nil, fmt.Errorf("unexpected shape %T", s)
}

func TestFactoryNestedRewind(t *testing.T) {
	// Choosing the labeled type decodes a shape, which in turn rewinds the
	// input while the bookmark for the labeled value is still active.
	r := testutil.NewRegistry()
	jcodec.RegisterFactory(r, labeledFactory)

	const input = `[
  {"label": "a", "inner": {"x": 3, "kind": "circle"}},
  {"inner": {"side": 2, "kind": "square"}, "label": "b"}
]`
	got, err := jcodec.DecodeAs[[]labeled](newDecoder(r, input))
	if err != nil {
		t.Fatalf("Decode: unexpected error: %v", err)
	}
	want := []labeled{
		&roundLabel{Name: "a", Inner: &testutil.Circle{Kind: "circle", X: 3}},
		&squareLabel{Name: "b", Inner: &testutil.Square{Kind: "square", Side: 2}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Decode: (-want, +got)\n%s", diff)
	}
	var labels []string
	for _, v := range got {
		labels = append(labels, v.Label())
	}
	if diff := cmp.Diff([]string{"round a", "square b"}, labels); diff != "" {
		t.Errorf("Labels: (-want, +got)\n%s", diff)
	}
}

func TestFactoryFirstCall(t *testing.T) {
	// A factory that chooses without seeing any keys does not rewind.
	r := jcodec.NewRegistry(nil)
	var keys []string
	jcodec.RegisterFactory(r, func(d *jcodec.Decoder, key *string) (testutil.Shape, error) {
		if key != nil {
			keys = append(keys, *key)
		}
		return new(testutil.Circle), nil
	})
	jcodec.RegisterDecodeInto(r, func(d *jcodec.Decoder, c *testutil.Circle) error {
		return d.DecodeObject(func(key string) error {
			if key == "r" {
				v, err := d.ReadFloat64()
				c.R = v
				return err
			}
			return nil
		})
	})
	got, err := jcodec.DecodeAs[testutil.Shape](newDecoder(r, `{"kind": "x", "r": 4}`))
	if err != nil {
		t.Fatalf("Decode: unexpected error: %v", err)
	}
	if diff := cmp.Diff(&testutil.Circle{R: 4}, got); diff != "" {
		t.Errorf("Decode: (-want, +got)\n%s", diff)
	}
	if len(keys) != 0 {
		t.Errorf("Factory keys: got %q, want none", keys)
	}
}

func TestKeepInstance(t *testing.T) {
	r := testutil.NewRegistry()

	t.Run("Present", func(t *testing.T) {
		child := &testutil.Node{Name: "kid", Tags: []string{"t"}}
		attrs := map[string]string{"old": "x"}
		next := &testutil.Node{Name: "old next"}
		n := &testutil.Node{Name: "root", Child: child, Attrs: attrs, Next: next}

		err := r.Unmarshal([]byte(`{
  "child": {"name": "new kid"},
  "attrs": {"k": "v"},
  "next": {"name": "new next"}
}`), n)
		if err != nil {
			t.Fatalf("Unmarshal: unexpected error: %v", err)
		}
		if n.Child != child {
			t.Error("Child was replaced, want it reused")
		}
		if diff := cmp.Diff(&testutil.Node{Name: "new kid", Tags: []string{"t"}}, child); diff != "" {
			t.Errorf("Child: (-want, +got)\n%s", diff)
		}
		if diff := cmp.Diff(map[string]string{"k": "v"}, attrs); diff != "" {
			t.Errorf("Attrs: (-want, +got)\n%s", diff)
		}
		if n.Next == next {
			t.Error("Next was reused, want it replaced")
		}
		if next.Name != "old next" || n.Next.Name != "new next" {
			t.Errorf("Next: got old %q new %q", next.Name, n.Next.Name)
		}
		if n.Name != "root" {
			t.Errorf("Name: got %q, want root", n.Name)
		}
	})

	t.Run("Absent", func(t *testing.T) {
		var n testutil.Node
		if err := r.Unmarshal([]byte(`{"child": {"name": "c"}, "attrs": {"a": "b"}}`), &n); err != nil {
			t.Fatalf("Unmarshal: unexpected error: %v", err)
		}
		want := testutil.Node{Child: &testutil.Node{Name: "c"}, Attrs: map[string]string{"a": "b"}}
		if diff := cmp.Diff(want, n); diff != "" {
			t.Errorf("Unmarshal: (-want, +got)\n%s", diff)
		}
	})

	t.Run("Null", func(t *testing.T) {
		n := testutil.Node{Child: &testutil.Node{Name: "c"}, Attrs: map[string]string{"a": "b"}}
		if err := r.Unmarshal([]byte(`{"child": null, "attrs": null}`), &n); err != nil {
			t.Fatalf("Unmarshal: unexpected error: %v", err)
		}
		if n.Child != nil || n.Attrs != nil {
			t.Errorf("Unmarshal: got %+v, want empty", n)
		}
	})
}

func TestUnmatchedKeys(t *testing.T) {
	var n testutil.Node
	err := jcodec.Unmarshal([]byte(`{
  "name": "a",
  "bogus": {"deep": [1, 2, {"x": null}], "more": 'yes'},
  "tags": ["t"],
  "Name": "wrong case",
}`), &n)
	if err != nil {
		t.Fatalf("Unmarshal: unexpected error: %v", err)
	}
	if diff := cmp.Diff(testutil.Node{Name: "a", Tags: []string{"t"}}, n); diff != "" {
		t.Errorf("Unmarshal: (-want, +got)\n%s", diff)
	}
}

func TestDecodeHooks(t *testing.T) {
	var log []string
	h := testutil.Hooked{Log: &log}
	if err := jcodec.Unmarshal([]byte(`{"value": 3, "extra": "hi", "other": [1]}`), &h); err != nil {
		t.Fatalf("Unmarshal: unexpected error: %v", err)
	}
	if h.Value != 3 || h.Extra != "hi" {
		t.Errorf("Unmarshal: got %+v", h)
	}
	want := []string{"before-load", "field value", "field extra", "field other", "after-load"}
	if diff := cmp.Diff(want, log); diff != "" {
		t.Errorf("Hooks: (-want, +got)\n%s", diff)
	}
}

func TestDecodeObject(t *testing.T) {
	t.Run("Skip", func(t *testing.T) {
		// Values not consumed by the callback are skipped.
		d := newDecoder(nil, `{"a": [1, {"b": 2}], c: 3, "d": {}} [4, [5], {"f": 6}]`)
		var keys []string
		if err := d.DecodeObject(func(key string) error {
			keys = append(keys, key)
			return nil
		}); err != nil {
			t.Fatalf("DecodeObject: unexpected error: %v", err)
		}
		if diff := cmp.Diff([]string{"a", "c", "d"}, keys); diff != "" {
			t.Errorf("Keys: (-want, +got)\n%s", diff)
		}
		var n int
		if err := d.DecodeArray(func() error { n++; return nil }); err != nil {
			t.Fatalf("DecodeArray: unexpected error: %v", err)
		}
		if n != 3 {
			t.Errorf("DecodeArray: got %d elements, want 3", n)
		}
		if d.More() {
			t.Error("More: got true, want false")
		}
		if err := d.Finish(); err != nil {
			t.Errorf("Finish: %v", err)
		}
	})

	t.Run("Consume", func(t *testing.T) {
		d := newDecoder(nil, `{"n": 5, "s": "x", "skip": [1], "f": 2.5}`)
		var n int
		var s string
		var f float64
		err := d.DecodeObject(func(key string) (err error) {
			switch key {
			case "n":
				n, err = d.ReadInt()
			case "s":
				s, err = d.ReadString()
			case "f":
				f, err = d.ReadFloat64()
			}
			return
		})
		if err != nil {
			t.Fatalf("DecodeObject: unexpected error: %v", err)
		}
		if n != 5 || s != "x" || f != 2.5 {
			t.Errorf("DecodeObject: got n=%d s=%q f=%v", n, s, f)
		}
	})

	t.Run("CallbackError", func(t *testing.T) {
		bad := errors.New("bad key")
		d := newDecoder(nil, "{\n \"ok\": 1,\n \"bad\": 2}")
		err := d.DecodeObject(func(key string) error {
			if key == "bad" {
				return bad
			}
			return nil
		})
		if !errors.Is(err, bad) {
			t.Fatalf("DecodeObject: got %v, want %v", err, bad)
		}
		var derr *jcodec.DecodeError
		if !errors.As(err, &derr) || derr.Pos != (jcodec.Position{Line: 2, Offset: 8}) {
			t.Errorf("DecodeObject: got %v, want error at line 3 character 9", err)
		}
	})

	t.Run("WrongToken", func(t *testing.T) {
		d := newDecoder(nil, `[1]`)
		if err := d.DecodeObject(func(string) error { return nil }); !errors.Is(err, jcodec.ErrSyntax) {
			t.Errorf("DecodeObject: got %v, want syntax error", err)
		}
	})
}

func TestDecoderStream(t *testing.T) {
	d := newDecoder(nil, "1 'two' [3] {\"four\": 4}\n")
	var got []any
	for d.More() {
		v, err := d.Decode(nil)
		if err != nil {
			t.Fatalf("Decode: unexpected error: %v", err)
		}
		got = append(got, v)
	}
	want := []any{uint64(1), "two", []any{uint64(3)}, map[string]any{"four": uint64(4)}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Values: (-want, +got)\n%s", diff)
	}
	if tok, _ := d.Token(); tok != jcodec.EndOfInput {
		t.Errorf("Token: got %v, want end of input", tok)
	}
}

func TestReadLiteral(t *testing.T) {
	d := newDecoder(nil, `[0x2A, "x", true]`)
	if err := d.Skip(); err != nil {
		t.Fatalf("Skip: %v", err)
	}
	if d.More() {
		t.Error("More: got true after skipping the only value")
	}

	d = newDecoder(nil, `0x2A "x"`)
	if tok, kind := d.Token(); tok != jcodec.Literal || kind != jcodec.UnsignedInteger {
		t.Errorf("Token: got %v/%v, want unsigned integer literal", tok, kind)
	}
	v, err := d.ReadLiteral(func(kind jcodec.LiteralKind, text string) (any, error) {
		return kind.String() + ":" + text, nil
	})
	if err != nil || v != "unsigned integer:0x2A" {
		t.Errorf("ReadLiteral: got %v, %v", v, err)
	}
	pos := d.Pos()
	_, err = d.ReadLiteral(func(jcodec.LiteralKind, string) (any, error) {
		return nil, errors.New("no thanks")
	})
	var derr *jcodec.DecodeError
	if !errors.As(err, &derr) || derr.Pos != pos {
		t.Errorf("ReadLiteral: got %v, want error at %v", err, pos)
	}
	if got, err := d.ReadString(); err != nil || got != "x" {
		t.Errorf("ReadString after failure: got %q, %v", got, err)
	}
}
