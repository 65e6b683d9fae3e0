package fieldbind

import (
	"fmt"
	"reflect"
)

// Vector2 is a two component float vector.
type Vector2 struct {
	X, Y float64
}

// Vector3 is a three component float vector.
type Vector3 struct {
	X, Y, Z float64
}

// Value is a tagged union holding exactly one payload of a bindable kind.
// The zero Value is the absence marker returned for invalid bindings and
// missing persisted entries.
type Value struct {
	kind ValueKind
	b    bool
	i    int64
	f    float64
	s    string
	vec  [3]float64
	enum *EnumType
}

func Bool(b bool) Value       { return Value{kind: KindBool, b: b} }
func Int(i int64) Value       { return Value{kind: KindInt, i: i} }
func Float(f float64) Value   { return Value{kind: KindFloat, f: f} }
func String(s string) Value   { return Value{kind: KindString, s: s} }
func Vec2(x, y float64) Value { return Value{kind: KindVector2, vec: [3]float64{x, y}} }

func Vec3(x, y, z float64) Value {
	return Value{kind: KindVector3, vec: [3]float64{x, y, z}}
}

// EnumValue builds an enum value of type t holding ordinal. The ordinal is
// not checked against t; use EnumType.Value for a checked constructor.
func EnumValue(t *EnumType, ordinal int64) Value {
	return Value{kind: KindEnum, i: ordinal, enum: t}
}

// Kind reports the tag of v.
func (v Value) Kind() ValueKind { return v.kind }

// IsAbsent reports whether v is the absence marker.
func (v Value) IsAbsent() bool { return v.kind == KindUnsupported }

// Type returns the value type v carries.
func (v Value) Type() ValueType { return ValueType{Kind: v.kind, Enum: v.enum} }

func (v Value) AsBool() bool        { return v.b }
func (v Value) AsInt() int64        { return v.i }
func (v Value) AsFloat() float64    { return v.f }
func (v Value) AsString() string    { return v.s }
func (v Value) AsVector2() Vector2  { return Vector2{X: v.vec[0], Y: v.vec[1]} }
func (v Value) AsVector3() Vector3  { return Vector3{X: v.vec[0], Y: v.vec[1], Z: v.vec[2]} }
func (v Value) Ordinal() int64      { return v.i }
func (v Value) EnumType() *EnumType { return v.enum }

// EnumName returns the member name of an enum value, or "" when the ordinal
// is not defined.
func (v Value) EnumName() string {
	if v.kind != KindEnum || v.enum == nil {
		return ""
	}
	name, _ := v.enum.NameOf(v.i)
	return name
}

// Interface returns the payload as a plain Go value.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindEnum:
		if name := v.EnumName(); name != "" {
			return name
		}
		return v.i
	case KindVector2:
		return v.AsVector2()
	case KindVector3:
		return v.AsVector3()
	default:
		return nil
	}
}

// String renders v with Format.
func (v Value) String() string {
	return Format(v)
}

// GoString helps test failure output.
func (v Value) GoString() string {
	if v.IsAbsent() {
		return "fieldbind.Value{absent}"
	}
	return fmt.Sprintf("fieldbind.Value{%s %q}", v.kind, Format(v))
}

// ValueOf converts a native Go value into a Value. Named integer types that
// implement EnumNamer become enum values.
func ValueOf(native any) (Value, error) {
	switch typed := native.(type) {
	case nil:
		return Value{}, fmt.Errorf("%w: nil value", ErrUnsupported)
	case Value:
		return typed, nil
	case Vector2:
		return Vec2(typed.X, typed.Y), nil
	case Vector3:
		return Vec3(typed.X, typed.Y, typed.Z), nil
	}
	rv := reflect.ValueOf(native)
	vt, ok := Classify(rv.Type())
	if !ok {
		return Value{}, fmt.Errorf("%w: %T", ErrUnsupported, native)
	}
	return fromReflect(rv, vt), nil
}

// ValueType is the declared type of a member: a kind plus, for enums, the
// enum definition.
type ValueType struct {
	Kind ValueKind
	Enum *EnumType
}

func (t ValueType) String() string {
	if t.Kind == KindEnum && t.Enum != nil && t.Enum.Name != "" {
		return "Enum(" + t.Enum.Name + ")"
	}
	return t.Kind.String()
}

// Supported reports whether t is bindable.
func (t ValueType) Supported() bool {
	if t.Kind == KindEnum {
		return t.Enum != nil
	}
	return t.Kind.Supported()
}

// accepts reports whether v can be written without coercion.
func (t ValueType) accepts(v Value) bool {
	if v.kind != t.Kind {
		return false
	}
	if t.Kind == KindEnum {
		return sameEnum(t.Enum, v.enum)
	}
	return true
}

func fromReflect(rv reflect.Value, vt ValueType) Value {
	switch vt.Kind {
	case KindBool:
		return Bool(rv.Bool())
	case KindInt:
		return Int(integerOf(rv))
	case KindFloat:
		return Float(rv.Float())
	case KindString:
		return String(rv.String())
	case KindEnum:
		return EnumValue(vt.Enum, integerOf(rv))
	case KindVector2:
		return Vec2(rv.Field(0).Float(), rv.Field(1).Float())
	case KindVector3:
		return Vec3(rv.Field(0).Float(), rv.Field(1).Float(), rv.Field(2).Float())
	default:
		return Value{}
	}
}

func integerOf(rv reflect.Value) int64 {
	if rv.CanInt() {
		return rv.Int()
	}
	return int64(rv.Uint())
}
