package operation

import (
	"fmt"
	"time"
)

// Kind discriminates the closed set of metadata value types. Keeping the
// set closed keeps serialization to the telemetry sink deterministic.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindTime
)

// Value is one loosely-typed metadata value on an Operation.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
	t    time.Time
}

// String builds a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Int builds an integer value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float builds a floating-point value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Bool builds a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Time builds a timestamp value.
func Time(t time.Time) Value { return Value{kind: KindTime, t: t} }

// Kind returns the value's discriminator.
func (v Value) Kind() Kind { return v.kind }

// Any returns the underlying value as an interface for sinks.
func (v Value) Any() interface{} {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	case KindTime:
		return v.t
	default:
		return v.s
	}
}

// GoString makes test failures readable.
func (v Value) GoString() string {
	return fmt.Sprintf("operation.Value(%v)", v.Any())
}
