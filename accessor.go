package fieldbind

import (
	"reflect"

	"go.uber.org/zap"
)

// Accessor reads and writes one member of one target instance. Accessors are
// produced by Resolver.Resolve; using the zero Accessor panics.
type Accessor struct {
	desc   MemberDescriptor
	get    func() reflect.Value
	set    func(reflect.Value) error
	strict bool
	logger *zap.Logger
	bound  bool
	// exposed accessors come from ExposeMembers and must be re-resolved to
	// observe the member set of the live instance.
	exposed bool
}

// Descriptor returns the member metadata.
func (a *Accessor) Descriptor() MemberDescriptor {
	a.mustBeResolved("Descriptor")
	return a.desc
}

// Type returns the member's value type.
func (a *Accessor) Type() ValueType {
	a.mustBeResolved("Type")
	return a.desc.Type
}

// CanWrite reports whether Set may succeed.
func (a *Accessor) CanWrite() bool {
	a.mustBeResolved("CanWrite")
	return a.desc.CanWrite && a.set != nil
}

// Get reads the current member value. Write-only members and panicking
// getters yield the absence marker.
func (a *Accessor) Get() (out Value) {
	a.mustBeResolved("Get")
	if !a.desc.CanRead || a.get == nil {
		return Value{}
	}
	defer func() {
		if recovered := recover(); recovered != nil {
			a.logger.Warn("member getter panicked",
				zap.String("member", a.desc.Name),
				zap.Any("panic", recovered),
			)
			out = Value{}
		}
	}()
	return fromReflect(a.get(), a.desc.Type)
}

// Set writes v after coercing it to the member's declared type. A panicking
// setter is reported as an error.
func (a *Accessor) Set(v Value) error {
	a.mustBeResolved("Set")
	if !a.CanWrite() {
		return memberError("set", a.desc, ErrReadOnly)
	}
	rv, err := coerce(v, a.desc, a.strict)
	if err != nil {
		return memberError("set", a.desc, err)
	}
	if err := a.write(rv); err != nil {
		return memberError("set", a.desc, err)
	}
	return nil
}

func (a *Accessor) write(rv reflect.Value) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = panicError{value: recovered}
		}
	}()
	return a.set(rv)
}

// Preview formats the current value for display.
func (a *Accessor) Preview() string {
	return Format(a.Get())
}

func (a *Accessor) mustBeResolved(op string) {
	if a == nil || !a.bound {
		panic("fieldbind: " + op + " on unresolved accessor")
	}
}
