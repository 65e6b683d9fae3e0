package fieldbind

import (
	"fmt"
	"reflect"
)

// Exposer is implemented by types that register their bindable members
// explicitly. Registration is statically typed through Field, ReadOnlyField
// and Property, so no struct introspection is involved. The resolver calls
// ExposeMembers on a zero value of the type to enumerate it, so
// implementations must not dereference pointers that may be nil.
type Exposer interface {
	ExposeMembers(set *MemberSet)
}

// Bindable is the set of Go types a member can be registered with.
type Bindable interface {
	~bool |
		~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64 |
		~string |
		Vector2 | Vector3
}

// MemberSet collects the members an Exposer registers. The first registration
// of a (name, kind) pair wins.
type MemberSet struct {
	owner   reflect.Type
	entries []exposedMember
	index   map[memberKey]int
}

type exposedMember struct {
	desc MemberDescriptor
	get  func() reflect.Value
	set  func(reflect.Value) error
}

func newMemberSet(owner reflect.Type) *MemberSet {
	return &MemberSet{owner: owner, index: map[memberKey]int{}}
}

func (s *MemberSet) add(member exposedMember) {
	if s == nil || member.desc.Name == "" {
		return
	}
	key := memberKey{name: member.desc.Name, kind: member.desc.Kind}
	if _, exists := s.index[key]; exists {
		return
	}
	member.desc.Owner = s.owner
	s.index[key] = len(s.entries)
	s.entries = append(s.entries, member)
}

func (s *MemberSet) lookup(name string, kind MemberKind) (exposedMember, bool) {
	if s == nil {
		return exposedMember{}, false
	}
	i, ok := s.index[memberKey{name: name, kind: kind}]
	if !ok {
		return exposedMember{}, false
	}
	return s.entries[i], true
}

// Len reports how many members were registered.
func (s *MemberSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

func (s *MemberSet) descriptors() []MemberDescriptor {
	out := make([]MemberDescriptor, len(s.entries))
	for i, entry := range s.entries {
		out[i] = entry.desc
	}
	return out
}

// Field registers a readable and writable field backed by ptr.
func Field[T Bindable](set *MemberSet, name string, ptr *T) {
	exposeField(set, name, ptr, true)
}

// ReadOnlyField registers a field that can be read but not written.
func ReadOnlyField[T Bindable](set *MemberSet, name string, ptr *T) {
	exposeField(set, name, ptr, false)
}

func exposeField[T Bindable](set *MemberSet, name string, ptr *T, writable bool) {
	if set == nil || ptr == nil {
		return
	}
	declared := reflect.TypeFor[T]()
	vt, _ := Classify(declared)
	target := reflect.ValueOf(ptr).Elem()
	set.add(exposedMember{
		desc: MemberDescriptor{
			Name:         name,
			DeclaredType: declared,
			Type:         vt,
			Kind:         MemberField,
			CanRead:      true,
			CanWrite:     writable,
		},
		get: func() reflect.Value { return target },
		set: func(rv reflect.Value) error {
			target.Set(rv)
			return nil
		},
	})
}

// Property registers a property from a getter and a setter. Either may be
// nil for write-only or read-only properties, but not both.
func Property[T Bindable](set *MemberSet, name string, get func() T, put func(T)) {
	if set == nil || (get == nil && put == nil) {
		return
	}
	declared := reflect.TypeFor[T]()
	vt, _ := Classify(declared)
	member := exposedMember{
		desc: MemberDescriptor{
			Name:         name,
			DeclaredType: declared,
			Type:         vt,
			Kind:         MemberProperty,
			CanRead:      get != nil,
			CanWrite:     put != nil,
		},
	}
	if get != nil {
		member.get = func() reflect.Value { return reflect.ValueOf(get()) }
	}
	if put != nil {
		member.set = func(rv reflect.Value) error {
			put(rv.Interface().(T))
			return nil
		}
	}
	set.add(member)
}

var exposerType = reflect.TypeFor[Exposer]()

// exposes reports whether values of base register members explicitly.
func exposes(base reflect.Type) bool {
	return reflect.PointerTo(base).Implements(exposerType)
}

// collectMembers asks exposer for its members. A panicking ExposeMembers
// yields an empty set.
func collectMembers(owner reflect.Type, exposer Exposer) (set *MemberSet, err error) {
	set = newMemberSet(owner)
	defer func() {
		if recovered := recover(); recovered != nil {
			set = newMemberSet(owner)
			err = &MemberError{Op: "expose", Type: owner.String(), Err: panicError{value: recovered}}
		}
	}()
	exposer.ExposeMembers(set)
	return set, nil
}

type panicError struct {
	value any
}

func (p panicError) Error() string {
	return fmt.Sprintf("panic: %v", p.value)
}

// Getter registers a read-only property.
func Getter[T Bindable](set *MemberSet, name string, get func() T) {
	Property(set, name, get, nil)
}

// Setter registers a write-only property.
func Setter[T Bindable](set *MemberSet, name string, put func(T)) {
	Property[T](set, name, nil, put)
}
