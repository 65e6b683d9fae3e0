package fieldbind

import (
	"reflect"
	"strings"
	"unsafe"
)

// Struct tags understood by the reflection member table:
//
//	bind:"-"          skip the field
//	bind:"name=rate"  bind the field under another name
//	bind:",readonly"  the field can be read but not written
const tagName = "bind"

var errorType = reflect.TypeFor[error]()

type reflectedMember struct {
	desc   MemberDescriptor
	index  []int
	getter int
	setter int
}

// bind returns accessors operating on the struct ptr points to.
func (m reflectedMember) bind(ptr reflect.Value) (func() reflect.Value, func(reflect.Value) error) {
	if m.desc.Kind == MemberField {
		fv := ptr.Elem().FieldByIndex(m.index)
		if !fv.CanSet() {
			fv = reflect.NewAt(fv.Type(), unsafe.Pointer(fv.UnsafeAddr())).Elem()
		}
		return func() reflect.Value { return fv },
			func(rv reflect.Value) error {
				fv.Set(rv)
				return nil
			}
	}

	var get func() reflect.Value
	var set func(reflect.Value) error
	if m.getter >= 0 {
		method := ptr.Method(m.getter)
		get = func() reflect.Value { return method.Call(nil)[0] }
	}
	if m.setter >= 0 {
		method := ptr.Method(m.setter)
		set = func(rv reflect.Value) error {
			out := method.Call([]reflect.Value{rv})
			if len(out) == 1 && !out[0].IsNil() {
				return out[0].Interface().(error)
			}
			return nil
		}
	}
	return get, set
}

type fieldTag struct {
	skip     bool
	name     string
	readonly bool
}

func parseFieldTag(tag string) fieldTag {
	if tag == "-" {
		return fieldTag{skip: true}
	}
	var out fieldTag
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "":
		case part == "readonly":
			out.readonly = true
		case strings.HasPrefix(part, "name="):
			out.name = strings.TrimPrefix(part, "name=")
		}
	}
	return out
}

// reflectFields lists the instance fields of a struct, including unexported
// ones and those promoted from embedded values. Fields reached through an
// embedded pointer are skipped since they need not be allocated.
func reflectFields(base reflect.Type) []reflectedMember {
	var out []reflectedMember
	for _, field := range reflect.VisibleFields(base) {
		if field.Anonymous && isEmbeddedStruct(field.Type) {
			continue
		}
		if throughPointer(base, field.Index) {
			continue
		}
		tag := parseFieldTag(field.Tag.Get(tagName))
		if tag.skip {
			continue
		}
		name := field.Name
		if tag.name != "" {
			name = tag.name
		}
		vt, _ := Classify(field.Type)
		out = append(out, reflectedMember{
			desc: MemberDescriptor{
				Name:         name,
				Owner:        base,
				DeclaredType: field.Type,
				Type:         vt,
				Kind:         MemberField,
				CanRead:      true,
				CanWrite:     !tag.readonly,
			},
			index:  field.Index,
			getter: -1,
			setter: -1,
		})
	}
	return out
}

func isEmbeddedStruct(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}

func throughPointer(base reflect.Type, index []int) bool {
	t := base
	for _, i := range index[:len(index)-1] {
		t = t.Field(i).Type
		if t.Kind() == reflect.Pointer {
			return true
		}
	}
	return false
}

// reflectProperties pairs accessor methods on *base. GetX() T and SetX(T)
// form property X; a plain X() T only counts when SetX exists. Setters may
// return an error.
func reflectProperties(base reflect.Type) []reflectedMember {
	ptrType := reflect.PointerTo(base)
	getters := map[string]reflect.Method{}
	plain := map[string]reflect.Method{}
	setters := map[string]reflect.Method{}

	for i := 0; i < ptrType.NumMethod(); i++ {
		method := ptrType.Method(i)
		mt := method.Type
		switch {
		case isSetter(method.Name, mt):
			setters[method.Name[3:]] = method
		case mt.NumIn() == 1 && mt.NumOut() == 1 && mt.Out(0) != errorType:
			if strings.HasPrefix(method.Name, "Get") && len(method.Name) > 3 {
				getters[method.Name[3:]] = method
			} else {
				plain[method.Name] = method
			}
		}
	}

	names := map[string]struct{}{}
	for name := range getters {
		names[name] = struct{}{}
	}
	for name := range setters {
		names[name] = struct{}{}
	}

	var out []reflectedMember
	for name := range names {
		getter, hasGet := getters[name]
		setter, hasSet := setters[name]
		if !hasGet && hasSet {
			getter, hasGet = plain[name]
		}
		if hasGet && hasSet && setter.Type.In(1) != getter.Type.Out(0) {
			hasSet = false
		}
		var declared reflect.Type
		if hasGet {
			declared = getter.Type.Out(0)
		} else {
			declared = setter.Type.In(1)
		}
		vt, _ := Classify(declared)
		member := reflectedMember{
			desc: MemberDescriptor{
				Name:         name,
				Owner:        base,
				DeclaredType: declared,
				Type:         vt,
				Kind:         MemberProperty,
				CanRead:      hasGet,
				CanWrite:     hasSet,
			},
			getter: -1,
			setter: -1,
		}
		if hasGet {
			member.getter = getter.Index
		}
		if hasSet {
			member.setter = setter.Index
		}
		out = append(out, member)
	}
	return out
}

func isSetter(name string, mt reflect.Type) bool {
	if !strings.HasPrefix(name, "Set") || len(name) <= 3 || mt.NumIn() != 2 {
		return false
	}
	switch mt.NumOut() {
	case 0:
		return true
	case 1:
		return mt.Out(0) == errorType
	default:
		return false
	}
}
