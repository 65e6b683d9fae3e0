package fieldbind

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"unicode"
)

// MemberDescriptor is the immutable metadata for one member of a type. It is
// not tied to any instance.
type MemberDescriptor struct {
	Name string
	// Owner is the struct (or exposer) type declaring the member.
	Owner reflect.Type
	// DeclaredType is the Go type of the member.
	DeclaredType reflect.Type
	// Type is the bindable value type; Type.Kind is KindUnsupported when the
	// declared type is outside the closed set.
	Type     ValueType
	Kind     MemberKind
	CanRead  bool
	CanWrite bool
}

// Supported reports whether the member's declared type is bindable.
func (d MemberDescriptor) Supported() bool {
	return d.Type.Supported()
}

func (d MemberDescriptor) String() string {
	typeName := "<nil>"
	if d.DeclaredType != nil {
		typeName = d.DeclaredType.Name()
		if typeName == "" {
			typeName = d.DeclaredType.String()
		}
	}
	return fmt.Sprintf("%s : %s (%s)", d.Name, typeName, d.Kind)
}

// MemberFilter selects members during enumeration.
type MemberFilter func(MemberDescriptor) bool

// OfKind keeps members whose value kind is one of kinds.
func OfKind(kinds ...ValueKind) MemberFilter {
	return func(d MemberDescriptor) bool {
		return slices.Contains(kinds, d.Type.Kind)
	}
}

// Writable keeps members that can be written.
func Writable() MemberFilter {
	return func(d MemberDescriptor) bool { return d.CanWrite }
}

// Readable keeps members that can be read.
func Readable() MemberFilter {
	return func(d MemberDescriptor) bool { return d.CanRead }
}

// OfMemberKind keeps fields or properties only.
func OfMemberKind(kind MemberKind) MemberFilter {
	return func(d MemberDescriptor) bool { return d.Kind == kind }
}

func matchesAll(d MemberDescriptor, filters []MemberFilter) bool {
	for _, filter := range filters {
		if filter != nil && !filter(d) {
			return false
		}
	}
	return true
}

type memberKey struct {
	name string
	kind MemberKind
}

// sortMembers orders by name, fields before properties on equal names.
func sortMembers(members []MemberDescriptor) {
	slices.SortStableFunc(members, func(a, b MemberDescriptor) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return int(a.Kind) - int(b.Kind)
	})
}

// DisplayLabel turns a member name into a display label: the first letter is
// upper cased and a space is inserted before every later upper case letter.
func DisplayLabel(name string) string {
	if name == "" {
		return name
	}
	runes := []rune(name)
	var b strings.Builder
	b.Grow(len(name) + 4)
	b.WriteRune(unicode.ToUpper(runes[0]))
	for _, r := range runes[1:] {
		if unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}
