package fieldbind

import (
	"reflect"
	"strings"
)

const (
	// DefaultScope prefixes keys when a binding has no scope.
	DefaultScope = "fieldbind"
	// DefaultSuffix marks the parallel default snapshot slot of a key.
	DefaultSuffix = "_default"
)

// Labeler lets a target contribute a display name to its persistence label.
type Labeler interface {
	BindingLabel() string
}

// TargetLabel derives the label of a target: "BindingLabel:TypeName" for
// Labelers with a non empty label, otherwise the type name. Two targets with
// equal labels share persisted slots.
func TargetLabel(target any) string {
	if isNilTarget(target) {
		return ""
	}
	t := baseType(reflect.TypeOf(target))
	typeName := t.Name()
	if typeName == "" {
		typeName = t.String()
	}
	if labeler, ok := target.(Labeler); ok {
		if name := strings.TrimSpace(labeler.BindingLabel()); name != "" {
			return name + ":" + typeName
		}
	}
	return typeName
}

// PersistenceKey joins scope, label and member into "scope.label.member".
func PersistenceKey(scope, label, member string) string {
	if scope = strings.TrimSpace(scope); scope == "" {
		scope = DefaultScope
	}
	return scope + "." + label + "." + member
}

// DefaultKey returns the default snapshot slot for key.
func DefaultKey(key string) string {
	return key + DefaultSuffix
}
