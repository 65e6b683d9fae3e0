package fieldbind

import (
	"fmt"
	"reflect"
	"slices"
	"sync"
)

// EnumNamer is implemented by named integer types that should bind as enums.
// Ordinals default to the index of each name.
type EnumNamer interface {
	EnumNames() []string
}

// EnumOrdinaler optionally supplies explicit ordinals, parallel to EnumNames.
type EnumOrdinaler interface {
	EnumOrdinals() []int64
}

// EnumType describes the members of one enum.
type EnumType struct {
	Name     string
	names    []string
	ordinals []int64
}

// NewEnumType builds an enum definition. When ordinals is empty or does not
// match names in length, ordinals default to name indexes.
func NewEnumType(name string, names []string, ordinals ...int64) *EnumType {
	t := &EnumType{
		Name:  name,
		names: slices.Clone(names),
	}
	if len(ordinals) == len(names) {
		t.ordinals = slices.Clone(ordinals)
		return t
	}
	t.ordinals = make([]int64, len(names))
	for i := range names {
		t.ordinals[i] = int64(i)
	}
	return t
}

// Names returns the member names in declaration order.
func (t *EnumType) Names() []string {
	if t == nil {
		return nil
	}
	return slices.Clone(t.names)
}

// Len reports the number of members.
func (t *EnumType) Len() int {
	if t == nil {
		return 0
	}
	return len(t.names)
}

// Ordinal returns the ordinal for name. Matching is exact.
func (t *EnumType) Ordinal(name string) (int64, bool) {
	if t == nil {
		return 0, false
	}
	for i, candidate := range t.names {
		if candidate == name {
			return t.ordinals[i], true
		}
	}
	return 0, false
}

// NameOf returns the member name declared for ordinal.
func (t *EnumType) NameOf(ordinal int64) (string, bool) {
	if t == nil {
		return "", false
	}
	for i, candidate := range t.ordinals {
		if candidate == ordinal {
			return t.names[i], true
		}
	}
	return "", false
}

// Index returns the declaration position of ordinal, for dropdown style
// consumers.
func (t *EnumType) Index(ordinal int64) int {
	if t == nil {
		return -1
	}
	return slices.Index(t.ordinals, ordinal)
}

// Value returns the enum value for a defined ordinal.
func (t *EnumType) Value(ordinal int64) (Value, bool) {
	if _, ok := t.NameOf(ordinal); !ok {
		return Value{}, false
	}
	return EnumValue(t, ordinal), true
}

// Named returns the enum value for name.
func (t *EnumType) Named(name string) (Value, error) {
	ordinal, ok := t.Ordinal(name)
	if !ok {
		return Value{}, formatError(KindEnum, name, fmt.Errorf("not a member of %s", t.label()))
	}
	return EnumValue(t, ordinal), nil
}

func (t *EnumType) label() string {
	if t == nil || t.Name == "" {
		return "enum"
	}
	return t.Name
}

func sameEnum(a, b *EnumType) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a.Name == b.Name && slices.Equal(a.names, b.names) && slices.Equal(a.ordinals, b.ordinals)
}

var (
	enumNamerType     = reflect.TypeFor[EnumNamer]()
	enumOrdinalerType = reflect.TypeFor[EnumOrdinaler]()
	enumTypes         sync.Map // reflect.Type -> *EnumType
)

// EnumTypeOf returns the enum definition for a named integer type, reusing
// one *EnumType per Go type.
func EnumTypeOf(t reflect.Type) (*EnumType, bool) {
	if t == nil || !isInteger(t.Kind()) || !t.Implements(enumNamerType) {
		return nil, false
	}
	if cached, ok := enumTypes.Load(t); ok {
		return cached.(*EnumType), true
	}
	zero := reflect.Zero(t).Interface()
	names := zero.(EnumNamer).EnumNames()
	var ordinals []int64
	if t.Implements(enumOrdinalerType) {
		ordinals = zero.(EnumOrdinaler).EnumOrdinals()
	}
	actual, _ := enumTypes.LoadOrStore(t, NewEnumType(t.Name(), names, ordinals...))
	return actual.(*EnumType), true
}

// EnumTypeFor is EnumTypeOf for a static type parameter.
func EnumTypeFor[T EnumNamer]() *EnumType {
	t, _ := EnumTypeOf(reflect.TypeFor[T]())
	return t
}

func isInteger(kind reflect.Kind) bool {
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	default:
		return false
	}
}
