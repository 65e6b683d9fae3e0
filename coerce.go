package fieldbind

import (
	"fmt"
	"math"
	"reflect"
)

// coerce converts v into a reflect.Value of the member's declared type. Rules
// apply in order: identity, enum from name, enum from defined ordinal, then
// numeric conversion between Int and Float.
func coerce(v Value, desc MemberDescriptor, strict bool) (reflect.Value, error) {
	if v.IsAbsent() {
		return reflect.Value{}, fmt.Errorf("%w: absent value", ErrCoercion)
	}
	target := desc.Type
	out := reflect.New(desc.DeclaredType).Elem()

	switch {
	case target.accepts(v):
		return out, assign(out, v, strict)
	case target.Kind == KindEnum && v.kind == KindString:
		ordinal, ok := target.Enum.Ordinal(v.s)
		if !ok {
			return reflect.Value{}, fmt.Errorf("%w: %q is not a member of %s", ErrCoercion, v.s, target.Enum.label())
		}
		return out, setInteger(out, ordinal, strict)
	case target.Kind == KindEnum && v.kind == KindInt:
		if _, ok := target.Enum.NameOf(v.i); !ok {
			return reflect.Value{}, fmt.Errorf("%w: %d is not an ordinal of %s", ErrCoercion, v.i, target.Enum.label())
		}
		return out, setInteger(out, v.i, strict)
	case target.Kind.Numeric() && v.kind.Numeric():
		return out, convertNumeric(out, v, strict)
	default:
		return reflect.Value{}, fmt.Errorf("%w: cannot write %s into %s", ErrCoercion, v.Type(), target)
	}
}

func assign(out reflect.Value, v Value, strict bool) error {
	switch v.kind {
	case KindBool:
		out.SetBool(v.b)
	case KindInt, KindEnum:
		return setInteger(out, v.i, strict)
	case KindFloat:
		return setFloat(out, v.f, strict)
	case KindString:
		out.SetString(v.s)
	case KindVector2:
		out.Field(0).SetFloat(v.vec[0])
		out.Field(1).SetFloat(v.vec[1])
	case KindVector3:
		out.Field(0).SetFloat(v.vec[0])
		out.Field(1).SetFloat(v.vec[1])
		out.Field(2).SetFloat(v.vec[2])
	}
	return nil
}

func setInteger(out reflect.Value, i int64, strict bool) error {
	if out.CanInt() {
		if strict && out.OverflowInt(i) {
			return fmt.Errorf("%w: %d overflows %s", ErrCoercion, i, out.Type())
		}
		out.SetInt(i)
		return nil
	}
	if strict && (i < 0 || out.OverflowUint(uint64(i))) {
		return fmt.Errorf("%w: %d overflows %s", ErrCoercion, i, out.Type())
	}
	out.SetUint(uint64(i))
	return nil
}

func setFloat(out reflect.Value, f float64, strict bool) error {
	if strict && out.OverflowFloat(f) {
		return fmt.Errorf("%w: %g overflows %s", ErrCoercion, f, out.Type())
	}
	out.SetFloat(f)
	return nil
}

func convertNumeric(out reflect.Value, v Value, strict bool) error {
	if v.kind == KindInt {
		f := float64(v.i)
		if strict && (!exactInt(f, v.i) || (out.Kind() == reflect.Float32 && float64(float32(f)) != f)) {
			return fmt.Errorf("%w: %d is not exactly representable as %s", ErrCoercion, v.i, out.Type())
		}
		return setFloat(out, f, strict)
	}

	f := v.f
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("%w: %g has no integer value", ErrCoercion, f)
	}
	if strict {
		if f != math.Trunc(f) {
			return fmt.Errorf("%w: %g has a fractional part", ErrCoercion, f)
		}
		if f < math.MinInt64 || f >= math.MaxInt64 {
			return fmt.Errorf("%w: %g overflows %s", ErrCoercion, f, out.Type())
		}
	}
	return setInteger(out, int64(f), strict)
}

// exactInt reports whether f holds i without rounding.
func exactInt(f float64, i int64) bool {
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return false
	}
	return int64(f) == i
}

// Convert applies the write coercion rules to v as if it were written into a
// member of type t, honouring the resolver's narrowing mode. Int and Enum
// targets are held as int64, Float targets as float64.
func (r *Resolver) Convert(v Value, t ValueType) (Value, error) {
	declared, ok := storageType(t)
	if !ok {
		return Value{}, fmt.Errorf("%w: %s", ErrUnsupported, t)
	}
	desc := MemberDescriptor{DeclaredType: declared, Type: t}
	rv, err := coerce(v, desc, orDefault(r).strict)
	if err != nil {
		return Value{}, err
	}
	return fromReflect(rv, t), nil
}

func storageType(t ValueType) (reflect.Type, bool) {
	if !t.Supported() {
		return nil, false
	}
	switch t.Kind {
	case KindBool:
		return reflect.TypeFor[bool](), true
	case KindInt, KindEnum:
		return reflect.TypeFor[int64](), true
	case KindFloat:
		return reflect.TypeFor[float64](), true
	case KindString:
		return reflect.TypeFor[string](), true
	case KindVector2:
		return vector2Type, true
	case KindVector3:
		return vector3Type, true
	default:
		return nil, false
	}
}
