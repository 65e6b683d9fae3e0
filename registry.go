package fieldbind

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// DefaultEpsilon is the tolerance Equal applies to float kinds and vector
// components. It is relative for magnitudes above one.
const DefaultEpsilon = 1e-5

var (
	vector2Type = reflect.TypeFor[Vector2]()
	vector3Type = reflect.TypeFor[Vector3]()
)

// Classify maps a Go type onto the bindable value set. Pointers, slices,
// maps, structs other than Vector2/Vector3, interfaces, funcs, channels and
// complex numbers are unsupported.
func Classify(t reflect.Type) (ValueType, bool) {
	if t == nil {
		return ValueType{}, false
	}
	switch t {
	case vector2Type:
		return ValueType{Kind: KindVector2}, true
	case vector3Type:
		return ValueType{Kind: KindVector3}, true
	}
	switch t.Kind() {
	case reflect.Bool:
		return ValueType{Kind: KindBool}, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if enum, ok := EnumTypeOf(t); ok {
			return ValueType{Kind: KindEnum, Enum: enum}, true
		}
		return ValueType{Kind: KindInt}, true
	case reflect.Float32, reflect.Float64:
		return ValueType{Kind: KindFloat}, true
	case reflect.String:
		return ValueType{Kind: KindString}, true
	default:
		return ValueType{}, false
	}
}

// Format renders v in its canonical flat text encoding. Vectors are comma
// joined component lists. The absence marker formats as "".
func Format(v Value) string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return formatFloat(v.f)
	case KindString:
		return v.s
	case KindEnum:
		if name, ok := v.enum.NameOf(v.i); ok {
			return name
		}
		return strconv.FormatInt(v.i, 10)
	case KindVector2:
		return formatFloat(v.vec[0]) + "," + formatFloat(v.vec[1])
	case KindVector3:
		return formatFloat(v.vec[0]) + "," + formatFloat(v.vec[1]) + "," + formatFloat(v.vec[2])
	default:
		return ""
	}
}

// Parse decodes text produced by Format back into a value of type t.
// Malformed text fails with an error matching ErrFormat.
func Parse(t ValueType, text string) (Value, error) {
	trimmed := strings.TrimSpace(text)
	switch t.Kind {
	case KindBool:
		b, err := strconv.ParseBool(trimmed)
		if err != nil {
			return Value{}, formatError(t.Kind, text, unwrapNum(err))
		}
		return Bool(b), nil
	case KindInt:
		i, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return Value{}, formatError(t.Kind, text, unwrapNum(err))
		}
		return Int(i), nil
	case KindFloat:
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return Value{}, formatError(t.Kind, text, unwrapNum(err))
		}
		return Float(f), nil
	case KindString:
		return String(text), nil
	case KindEnum:
		return parseEnum(t.Enum, text)
	case KindVector2:
		parts, err := parseComponents(t.Kind, text, 2)
		if err != nil {
			return Value{}, err
		}
		return Vec2(parts[0], parts[1]), nil
	case KindVector3:
		parts, err := parseComponents(t.Kind, text, 3)
		if err != nil {
			return Value{}, err
		}
		return Vec3(parts[0], parts[1], parts[2]), nil
	default:
		return Value{}, formatError(t.Kind, text, ErrUnsupported)
	}
}

// ParseKind is Parse for kinds that need no further type information. Enum
// kinds fail because the member names are unknown.
func ParseKind(kind ValueKind, text string) (Value, error) {
	if kind == KindEnum {
		return Value{}, formatError(kind, text, errors.New("enum type required"))
	}
	return Parse(ValueType{Kind: kind}, text)
}

func parseEnum(enum *EnumType, text string) (Value, error) {
	if enum == nil {
		return Value{}, formatError(KindEnum, text, errors.New("enum type required"))
	}
	if ordinal, ok := enum.Ordinal(text); ok {
		return EnumValue(enum, ordinal), nil
	}
	if ordinal, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64); err == nil {
		if v, ok := enum.Value(ordinal); ok {
			return v, nil
		}
	}
	return Value{}, formatError(KindEnum, text, fmt.Errorf("not a member of %s", enum.label()))
}

func parseComponents(kind ValueKind, text string, want int) ([]float64, error) {
	fields := strings.Split(text, ",")
	if len(fields) != want {
		return nil, formatError(kind, text, fmt.Errorf("expected %d components, got %d", want, len(fields)))
	}
	out := make([]float64, want)
	for i, field := range fields {
		f, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return nil, formatError(kind, text, unwrapNum(err))
		}
		out[i] = f
	}
	return out, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func unwrapNum(err error) error {
	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		return numErr.Err
	}
	return err
}

// Equal compares two values of the same kind: exact for discrete kinds,
// within DefaultEpsilon for floats and per component for vectors. Two absence
// markers are equal.
func Equal(a, b Value) bool {
	return EqualWithin(a, b, DefaultEpsilon)
}

// EqualWithin is Equal with an explicit tolerance.
func EqualWithin(a, b Value, epsilon float64) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindUnsupported:
		return true
	case KindBool:
		return a.b == b.b
	case KindInt:
		return a.i == b.i
	case KindString:
		return a.s == b.s
	case KindEnum:
		return a.i == b.i && sameEnum(a.enum, b.enum)
	case KindFloat:
		return approximately(a.f, b.f, epsilon)
	case KindVector2:
		return approximately(a.vec[0], b.vec[0], epsilon) &&
			approximately(a.vec[1], b.vec[1], epsilon)
	case KindVector3:
		return approximately(a.vec[0], b.vec[0], epsilon) &&
			approximately(a.vec[1], b.vec[1], epsilon) &&
			approximately(a.vec[2], b.vec[2], epsilon)
	default:
		return false
	}
}

func approximately(a, b, epsilon float64) bool {
	if a == b {
		return true
	}
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	if math.IsInf(a, 0) || math.IsInf(b, 0) {
		return false
	}
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= epsilon*scale
}
