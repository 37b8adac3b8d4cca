package script

import (
	"strconv"
)

// Kind identifies which representation of a Value is active.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindInt
	KindDouble
	KindString
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	}
	return "undefined"
}

// Value is the tagged union carried across the native/script boundary.
// Exactly one representation is active at a time. Conversions are total
// and never panic; a conversion with no meaningful result yields the
// zero value of the target kind. The zero Value is undefined.
//
// An OBJECT value does not own the referenced ScriptObject; its lifetime
// is governed by the object, not by the Value.
type Value struct {
	kind Kind
	i    int64
	d    float64
	s    string
	obj  *ScriptObject
}

func NewInt(i int64) Value       { return Value{kind: KindInt, i: i} }
func NewFloat(f float64) Value   { return Value{kind: KindDouble, d: f} }
func NewString(s string) Value   { return Value{kind: KindString, s: s} }
func NewBool(b bool) Value       { return Value{kind: KindInt, i: boolInt(b)} }
func NewObject(o *ScriptObject) Value {
	if o == nil {
		return Value{}
	}
	return Value{kind: KindObject, obj: o}
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func (v Value) Kind() Kind        { return v.kind }
func (v Value) IsUndefined() bool { return v.kind == KindUndefined }

// Int narrows to a signed integer. Strings parse leniently; anything
// unparseable is 0.
func (v Value) Int() int64 {
	switch v.kind {
	case KindInt:
		return v.i
	case KindDouble:
		return int64(v.d)
	case KindString:
		if i, err := strconv.ParseInt(v.s, 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(v.s, 64); err == nil {
			return int64(f)
		}
	}
	return 0
}

// Float widens to a double.
func (v Value) Float() float64 {
	switch v.kind {
	case KindInt:
		return float64(v.i)
	case KindDouble:
		return v.d
	case KindString:
		if f, err := strconv.ParseFloat(v.s, 64); err == nil {
			return f
		}
	}
	return 0
}

// Bool reports the truthiness of the value: nonzero numbers, non-empty
// strings and non-nil objects are true.
func (v Value) Bool() bool {
	switch v.kind {
	case KindInt:
		return v.i != 0
	case KindDouble:
		return v.d != 0
	case KindString:
		return v.s != ""
	case KindObject:
		return v.obj != nil
	}
	return false
}

// Str renders the value as text. Numbers use their shortest decimal
// form, so a double holding 4 renders as "4".
func (v Value) Str() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindDouble:
		return strconv.FormatFloat(v.d, 'g', -1, 64)
	case KindString:
		return v.s
	case KindObject:
		if v.obj != nil {
			return "[" + v.obj.Name() + "]"
		}
	}
	return ""
}

// Object returns the referenced ScriptObject, or nil for every other kind.
func (v Value) Object() *ScriptObject {
	if v.kind == KindObject {
		return v.obj
	}
	return nil
}
