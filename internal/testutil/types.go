// Package testutil defines support code for unit tests.
package testutil

import (
	"fmt"

	"github.com/creachadair/jcodec"
	"github.com/creachadair/jcodec/structbind"
)

// Shape is a polymorphic type whose concrete type is chosen by the "kind"
// key of its object.
type Shape interface {
	Area() float64
}

// Circle is a Shape.
type Circle struct {
	Kind string  `jcodec:"kind"`
	R    float64 `jcodec:"r"`
	X    int     `jcodec:"x"`
}

// Area implements Shape.
func (c *Circle) Area() float64 { return 3 * c.R * c.R }

// Square is a Shape.
type Square struct {
	Kind string  `jcodec:"kind"`
	Side float64 `jcodec:"side"`
	X    int     `jcodec:"x"`
}

// Area implements Shape.
func (s *Square) Area() float64 { return s.Side * s.Side }

// ShapeFactory chooses a Shape by the value of its "kind" key.
// It consumes the value of the key.
func ShapeFactory(d *jcodec.Decoder, key *string) (Shape, error) {
	if key == nil || *key != "kind" {
		return nil, nil
	}
	v, err := d.ReadLiteral(func(kind jcodec.LiteralKind, text string) (any, error) {
		if kind != jcodec.String {
			return nil, fmt.Errorf("shape kind is %v, not a string", kind)
		}
		switch text {
		case "circle":
			return new(Circle), nil
		case "square":
			return new(Square), nil
		}
		return nil, fmt.Errorf("unknown shape kind %q", text)
	})
	if err != nil {
		return nil, err
	}
	return v.(Shape), nil
}

// Drawing holds shapes.
type Drawing struct {
	Title  string           `jcodec:"title"`
	Shapes []Shape          `jcodec:"shapes"`
	ByName map[string]Shape `jcodec:"byName"`
}

// Node is a recursive type whose child and attributes are decoded in place
// when present.
type Node struct {
	Name  string            `jcodec:"name"`
	Child *Node             `jcodec:"child,keep"`
	Attrs map[string]string `jcodec:"attrs,keep"`
	Tags  []string          `jcodec:"tags"`
	Next  *Node             `jcodec:"next"`
}

// Color is an enumeration.
type Color int

// The members of Color.
const (
	Red Color = iota + 1
	Green
	Blue
)

// ColorNames are the names of the Color members.
var ColorNames = map[Color]string{Red: "red", Green: "green", Blue: "blue"}

// Point encodes itself as a two-element array.
type Point struct{ X, Y int }

// MarshalTo implements jcodec.Marshaler.
func (p Point) MarshalTo(e *jcodec.Encoder) error {
	return e.WriteArray(func() error {
		e.WriteElement()
		if err := e.WriteValue(p.X); err != nil {
			return err
		}
		e.WriteElement()
		return e.WriteValue(p.Y)
	})
}

// UnmarshalFrom implements jcodec.Unmarshaler.
func (p *Point) UnmarshalFrom(d *jcodec.Decoder) error {
	var xy []int
	if err := d.DecodeInto(&xy); err != nil {
		return err
	}
	if len(xy) != 2 {
		return fmt.Errorf("point has %d coordinates, want 2", len(xy))
	}
	p.X, p.Y = xy[0], xy[1]
	return nil
}

// Hooked records the hooks called on it in Log.
type Hooked struct {
	Value int       `jcodec:"value"`
	Extra string    `jcodec:"-"`
	Log   *[]string `jcodec:"-"`
}

func (h *Hooked) log(s string) {
	if h.Log != nil {
		*h.Log = append(*h.Log, s)
	}
}

// BeforeLoad implements jcodec.BeforeLoader.
func (h *Hooked) BeforeLoad(*jcodec.Decoder) error { h.log("before-load"); return nil }

// LoadField implements jcodec.FieldLoader. It handles the key "extra".
func (h *Hooked) LoadField(d *jcodec.Decoder, key string) (bool, error) {
	h.log("field " + key)
	if key != "extra" {
		return false, nil
	}
	s, err := d.ReadString()
	h.Extra = s
	return true, err
}

// AfterLoad implements jcodec.AfterLoader.
func (h *Hooked) AfterLoad(*jcodec.Decoder) error { h.log("after-load"); return nil }

// BeforeSave implements jcodec.BeforeSaver.
func (h *Hooked) BeforeSave(*jcodec.Encoder) error { h.log("before-save"); return nil }

// AfterSave implements jcodec.AfterSaver.
func (h *Hooked) AfterSave(*jcodec.Encoder) error { h.log("after-save"); return nil }

// NewRegistry returns a registry that binds structs by their fields, with
// ShapeFactory registered for Shape and Color registered as an enumeration.
func NewRegistry() *jcodec.Registry {
	r := jcodec.NewRegistry(structbind.Binder{})
	jcodec.RegisterFactory(r, ShapeFactory)
	jcodec.RegisterEnum(r, ColorNames)
	return r
}
