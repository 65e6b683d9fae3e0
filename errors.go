package fieldbind

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports that a target exposes no member with the requested
	// name and kind.
	ErrNotFound = errors.New("fieldbind: member not found")
	// ErrUnsupported reports a value type outside the bindable set.
	ErrUnsupported = errors.New("fieldbind: unsupported value kind")
	// ErrCoercion reports a write value that cannot be converted to the
	// member's declared type.
	ErrCoercion = errors.New("fieldbind: value cannot be coerced")
	// ErrFormat reports persisted text that cannot be parsed back to its kind.
	ErrFormat = errors.New("fieldbind: malformed value text")
	// ErrInvalid reports a binding descriptor that fails validation.
	ErrInvalid = errors.New("fieldbind: invalid binding")
	// ErrReadOnly reports a write through a member that has no setter.
	ErrReadOnly = errors.New("fieldbind: member is read-only")
)

// MemberError captures the operation and member alongside the originating
// error.
type MemberError struct {
	Op     string
	Type   string
	Member string
	Kind   MemberKind
	Err    error
}

func (e *MemberError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("fieldbind: %s %s.%s (%s): %v", e.Op, describeType(e.Type), e.Member, e.Kind, e.Err)
}

func (e *MemberError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeType(name string) string {
	if name == "" {
		return "<unknown>"
	}
	return name
}

// FormatError reports text that could not be decoded into a value of Kind.
// It always matches ErrFormat under errors.Is.
type FormatError struct {
	Kind ValueKind
	Text string
	Err  error
}

func (e *FormatError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err == nil {
		return fmt.Sprintf("fieldbind: parse %s %q", e.Kind, e.Text)
	}
	return fmt.Sprintf("fieldbind: parse %s %q: %v", e.Kind, e.Text, e.Err)
}

func (e *FormatError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

func formatError(kind ValueKind, text string, err error) error {
	return &FormatError{Kind: kind, Text: text, Err: err}
}

func memberError(op string, desc MemberDescriptor, err error) error {
	if err == nil {
		return nil
	}
	var typeName string
	if desc.Owner != nil {
		typeName = desc.Owner.String()
	}
	return &MemberError{
		Op:     op,
		Type:   typeName,
		Member: desc.Name,
		Kind:   desc.Kind,
		Err:    err,
	}
}
