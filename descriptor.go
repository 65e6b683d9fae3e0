package fieldbind

import (
	"errors"
	"fmt"
)

// Descriptor is the identity of a binding: which member of which live target
// it reads and writes, and the value kind it was authored against.
type Descriptor struct {
	Target       any
	MemberName   string
	MemberKind   MemberKind
	ExpectedKind ValueKind
}

// Validate reports nil when the descriptor is valid against the live target.
// It resolves the member on every call; nothing is cached.
func (d Descriptor) Validate(r *Resolver) error {
	_, err := d.resolve(r)
	return err
}

// IsValid is Validate reduced to a bool.
func (d Descriptor) IsValid(r *Resolver) bool {
	return d.Validate(r) == nil
}

func (d Descriptor) resolve(r *Resolver) (*Accessor, error) {
	switch {
	case isNilTarget(d.Target):
		return nil, d.invalid(errors.New("no target"))
	case d.MemberName == "":
		return nil, d.invalid(errors.New("no member name"))
	case d.MemberKind == MemberNone:
		return nil, d.invalid(errors.New("no member kind"))
	case !d.ExpectedKind.Supported():
		return nil, d.invalid(fmt.Errorf("expected kind %s is not bindable", d.ExpectedKind))
	}
	accessor, err := orDefault(r).Resolve(d.Target, d.MemberName, d.MemberKind)
	if err != nil {
		return nil, d.invalid(err)
	}
	if actual := accessor.Type().Kind; actual != d.ExpectedKind {
		return nil, d.invalid(fmt.Errorf("member is %s, expected %s", actual, d.ExpectedKind))
	}
	return accessor, nil
}

func (d Descriptor) invalid(cause error) error {
	return fmt.Errorf("%w: %s.%s: %w", ErrInvalid, d.Label(), d.MemberName, cause)
}

// Label returns the target label used in persistence keys.
func (d Descriptor) Label() string {
	return TargetLabel(d.Target)
}

// Key derives the persistence key for scope. It is computed without
// validation; an empty string is returned when the target or member name is
// missing.
func (d Descriptor) Key(scope string) string {
	label := d.Label()
	if label == "" || d.MemberName == "" {
		return ""
	}
	return PersistenceKey(scope, label, d.MemberName)
}

// WithTarget returns a copy of d bound to target.
func (d Descriptor) WithTarget(target any) Descriptor {
	d.Target = target
	return d
}
