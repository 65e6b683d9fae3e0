package filter

import (
	"reflect"

	"github.com/goliatone/go-fieldbind"
)

// Variables lists the member attributes bound for every expression:
//
//	name      member name
//	kind      value kind ("Bool", "Int", "Float", "String", "Enum", "Vector2", "Vector3")
//	member    "Field" or "Property"
//	canRead   member has a getter
//	canWrite  member has a setter
//	goType    declared Go type name
//	enumType  enum type name, empty for other kinds
//	owner     declaring type name
//	supported declared type is bindable
var Variables = []string{"name", "kind", "member", "canRead", "canWrite", "goType", "enumType", "owner", "supported"}

// Environment renders d as expression variables.
func Environment(d fieldbind.MemberDescriptor) map[string]any {
	var enumName string
	if d.Type.Enum != nil {
		enumName = d.Type.Enum.Name
	}
	return map[string]any{
		"name":      d.Name,
		"kind":      d.Type.Kind.String(),
		"member":    d.Kind.String(),
		"canRead":   d.CanRead,
		"canWrite":  d.CanWrite,
		"goType":    typeName(d.DeclaredType),
		"enumType":  enumName,
		"owner":     typeName(d.Owner),
		"supported": d.Supported(),
	}
}

func typeName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	if name := t.Name(); name != "" {
		return name
	}
	return t.String()
}
