// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

package jcodec

// Marshaler is implemented by types that encode themselves.
// MarshalTo must write exactly one value to e.
type Marshaler interface {
	MarshalTo(e *Encoder) error
}

// Unmarshaler is implemented by pointer types that decode themselves.
// UnmarshalFrom must consume exactly one value from d.
type Unmarshaler interface {
	UnmarshalFrom(d *Decoder) error
}

// BeforeLoader is implemented by bound types that need to be notified before
// their members are decoded.
type BeforeLoader interface {
	BeforeLoad(d *Decoder) error
}

// FieldLoader is implemented by bound types that decode some keys
// themselves. LoadField is called for each key of the object before the
// key's member is looked up. If it reports true, the key is handled; if it
// did not consume the value, the value is skipped.
type FieldLoader interface {
	LoadField(d *Decoder, key string) (bool, error)
}

// AfterLoader is implemented by bound types that need to be notified after
// their members are decoded.
type AfterLoader interface {
	AfterLoad(d *Decoder) error
}

// BeforeSaver is implemented by bound types that need to be notified before
// their members are encoded.
type BeforeSaver interface {
	BeforeSave(e *Encoder) error
}

// AfterSaver is implemented by bound types that need to be notified after
// their members are encoded.
type AfterSaver interface {
	AfterSave(e *Encoder) error
}
