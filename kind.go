package fieldbind

import (
	"fmt"
	"strings"
)

// ValueKind identifies one of the closed set of bindable value kinds. The
// zero value, KindUnsupported, marks types outside that set and absent values.
type ValueKind int

const (
	KindUnsupported ValueKind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindEnum
	KindVector2
	KindVector3
)

var kindNames = [...]string{
	KindUnsupported: "Unsupported",
	KindBool:        "Bool",
	KindInt:         "Int",
	KindFloat:       "Float",
	KindString:      "String",
	KindEnum:        "Enum",
	KindVector2:     "Vector2",
	KindVector3:     "Vector3",
}

// Kinds lists every supported kind in declaration order.
func Kinds() []ValueKind {
	return []ValueKind{KindBool, KindInt, KindFloat, KindString, KindEnum, KindVector2, KindVector3}
}

func (k ValueKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("ValueKind(%d)", int(k))
	}
	return kindNames[k]
}

// Supported reports whether k is part of the bindable set.
func (k ValueKind) Supported() bool {
	return k > KindUnsupported && int(k) < len(kindNames)
}

// Numeric reports whether k takes part in numeric coercion.
func (k ValueKind) Numeric() bool {
	return k == KindInt || k == KindFloat
}

// ParseValueKind resolves a kind from its name, ignoring case.
func ParseValueKind(name string) (ValueKind, error) {
	trimmed := strings.TrimSpace(name)
	for i, candidate := range kindNames {
		if i == int(KindUnsupported) {
			continue
		}
		if strings.EqualFold(candidate, trimmed) {
			return ValueKind(i), nil
		}
	}
	return KindUnsupported, fmt.Errorf("%w: unknown value kind %q", ErrUnsupported, name)
}

// MarshalText implements encoding.TextMarshaler.
func (k ValueKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ValueKind) UnmarshalText(text []byte) error {
	kind, err := ParseValueKind(string(text))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// MemberKind distinguishes fields from properties. MemberNone marks a binding
// whose member has not been chosen yet.
type MemberKind int

const (
	MemberNone MemberKind = iota
	MemberField
	MemberProperty
)

func (k MemberKind) String() string {
	switch k {
	case MemberField:
		return "Field"
	case MemberProperty:
		return "Property"
	default:
		return "None"
	}
}

// ParseMemberKind resolves a member kind from its name, ignoring case.
func ParseMemberKind(name string) (MemberKind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "field":
		return MemberField, nil
	case "property":
		return MemberProperty, nil
	case "", "none":
		return MemberNone, nil
	default:
		return MemberNone, fmt.Errorf("fieldbind: unknown member kind %q", name)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k MemberKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *MemberKind) UnmarshalText(text []byte) error {
	kind, err := ParseMemberKind(string(text))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}
