package fieldbind

import (
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"
)

// memberTable is the per type member list. Exposer types keep descriptors
// only; accessors come from the live instance at resolve time. buildErr holds
// the failure of ExposeMembers on the zero value, which leaves the table empty.
type memberTable struct {
	typ       reflect.Type
	exposed   bool
	members   []MemberDescriptor
	index     map[memberKey]int
	reflected map[memberKey]reflectedMember
	buildErr  error
}

func (t *memberTable) lookup(name string, kind MemberKind) (MemberDescriptor, bool) {
	i, ok := t.index[memberKey{name: name, kind: kind}]
	if !ok {
		return MemberDescriptor{}, false
	}
	return t.members[i], true
}

// missing is the error for a member absent from the table.
func (t *memberTable) missing() error {
	if t.buildErr != nil {
		return fmt.Errorf("%w: %w", ErrNotFound, t.buildErr)
	}
	return ErrNotFound
}

func (t *memberTable) finish() {
	sortMembers(t.members)
	t.index = make(map[memberKey]int, len(t.members))
	for i, member := range t.members {
		t.index[memberKey{name: member.Name, kind: member.Kind}] = i
	}
}

// Resolver enumerates and resolves members. Member tables are built once per
// type and shared by every accessor resolved through the resolver.
type Resolver struct {
	mu     sync.RWMutex
	tables map[reflect.Type]*memberTable
	strict bool
	logger *zap.Logger
}

// ResolverOption customises a Resolver.
type ResolverOption func(*Resolver)

// WithLogger sets the logger used for table builds and recovered panics.
func WithLogger(logger *zap.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithStrictNarrowing makes numeric writes that overflow or lose precision
// fail with ErrCoercion instead of truncating.
func WithStrictNarrowing(strict bool) ResolverOption {
	return func(r *Resolver) {
		r.strict = strict
	}
}

// NewResolver constructs a Resolver.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		tables: map[reflect.Type]*memberTable{},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	r.logger = r.logger.Named("resolver")
	return r
}

var defaultResolver = sync.OnceValue(func() *Resolver { return NewResolver() })

// DefaultResolver returns the process wide resolver used when none is given.
func DefaultResolver() *Resolver {
	return defaultResolver()
}

func orDefault(r *Resolver) *Resolver {
	if r == nil {
		return DefaultResolver()
	}
	return r
}

// StrictNarrowing reports whether lossy numeric writes are rejected.
func (r *Resolver) StrictNarrowing() bool {
	return orDefault(r).strict
}

func baseType(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func (r *Resolver) table(t reflect.Type) *memberTable {
	base := baseType(t)
	if base == nil {
		return &memberTable{index: map[memberKey]int{}}
	}

	r.mu.RLock()
	tbl := r.tables[base]
	r.mu.RUnlock()
	if tbl != nil {
		return tbl
	}

	tbl = r.build(base)

	r.mu.Lock()
	if existing := r.tables[base]; existing != nil {
		tbl = existing
	} else {
		r.tables[base] = tbl
	}
	r.mu.Unlock()
	return tbl
}

func (r *Resolver) build(base reflect.Type) *memberTable {
	tbl := &memberTable{typ: base}
	switch {
	case exposes(base):
		tbl.exposed = true
		zero := reflect.New(base).Interface().(Exposer)
		set, err := collectMembers(base, zero)
		if err != nil {
			r.logger.Warn("expose members failed on zero value",
				zap.Stringer("type", base),
				zap.Error(err),
			)
			tbl.buildErr = err
		}
		tbl.members = set.descriptors()
	case base.Kind() == reflect.Struct:
		tbl.reflected = map[memberKey]reflectedMember{}
		members := append(reflectFields(base), reflectProperties(base)...)
		for _, member := range members {
			key := memberKey{name: member.desc.Name, kind: member.desc.Kind}
			if _, exists := tbl.reflected[key]; exists {
				continue
			}
			tbl.reflected[key] = member
			tbl.members = append(tbl.members, member.desc)
		}
	}
	tbl.finish()
	r.logger.Debug("member table built",
		zap.Stringer("type", base),
		zap.Bool("exposed", tbl.exposed),
		zap.Int("members", len(tbl.members)),
	)
	return tbl
}

// Enumerate lists the supported members of t sorted by name, fields before
// properties on equal names. Pointer types are dereferenced.
func (r *Resolver) Enumerate(t reflect.Type, filters ...MemberFilter) []MemberDescriptor {
	return orDefault(r).enumerate(t, true, filters)
}

// EnumerateAll is Enumerate including members whose type is not bindable.
func (r *Resolver) EnumerateAll(t reflect.Type, filters ...MemberFilter) []MemberDescriptor {
	return orDefault(r).enumerate(t, false, filters)
}

// EnumerateOf enumerates the dynamic type of target.
func (r *Resolver) EnumerateOf(target any, filters ...MemberFilter) []MemberDescriptor {
	if target == nil {
		return nil
	}
	return r.Enumerate(reflect.TypeOf(target), filters...)
}

func (r *Resolver) enumerate(t reflect.Type, supportedOnly bool, filters []MemberFilter) []MemberDescriptor {
	tbl := r.table(t)
	out := make([]MemberDescriptor, 0, len(tbl.members))
	for _, member := range tbl.members {
		if supportedOnly && !member.Supported() {
			continue
		}
		if !matchesAll(member, filters) {
			continue
		}
		out = append(out, member)
	}
	return out
}

// Describe returns the type level descriptor of a member of target.
func (r *Resolver) Describe(target any, name string, kind MemberKind) (MemberDescriptor, error) {
	r = orDefault(r)
	if isNilTarget(target) {
		return MemberDescriptor{}, &MemberError{Op: "describe", Member: name, Kind: kind, Err: fmt.Errorf("%w: nil target", ErrInvalid)}
	}
	t := reflect.TypeOf(target)
	tbl := r.table(t)
	desc, ok := tbl.lookup(name, kind)
	if !ok {
		return MemberDescriptor{}, &MemberError{Op: "describe", Type: baseType(t).String(), Member: name, Kind: kind, Err: tbl.missing()}
	}
	return desc, nil
}

// Resolve builds an accessor for the named member of target. Targets passed
// by value are copied and resolve to read-only accessors.
func (r *Resolver) Resolve(target any, name string, kind MemberKind) (*Accessor, error) {
	r = orDefault(r)
	if name == "" || kind == MemberNone {
		return nil, &MemberError{Op: "resolve", Member: name, Kind: kind, Err: fmt.Errorf("%w: member name and kind are required", ErrInvalid)}
	}
	ptr, writable, err := addressable(target)
	if err != nil {
		return nil, &MemberError{Op: "resolve", Member: name, Kind: kind, Err: err}
	}
	tbl := r.table(ptr.Type())
	desc, ok := tbl.lookup(name, kind)
	if !ok {
		return nil, &MemberError{Op: "resolve", Type: tbl.typ.String(), Member: name, Kind: kind, Err: tbl.missing()}
	}
	if !desc.Supported() {
		return nil, memberError("resolve", desc, fmt.Errorf("%w: %s", ErrUnsupported, desc.DeclaredType))
	}

	var get func() reflect.Value
	var set func(reflect.Value) error
	if tbl.exposed {
		members, err := collectMembers(tbl.typ, ptr.Interface().(Exposer))
		if err != nil {
			return nil, memberError("resolve", desc, err)
		}
		entry, ok := members.lookup(name, kind)
		if !ok || !sameDeclaration(entry.desc, desc) {
			return nil, memberError("resolve", desc, ErrNotFound)
		}
		desc = entry.desc
		get, set = entry.get, entry.set
	} else {
		get, set = tbl.reflected[memberKey{name: name, kind: kind}].bind(ptr)
	}

	if !writable {
		desc.CanWrite = false
		set = nil
	}
	return &Accessor{
		desc:    desc,
		get:     get,
		set:     set,
		strict:  r.strict,
		logger:  r.logger,
		bound:   true,
		exposed: tbl.exposed,
	}, nil
}

func sameDeclaration(a, b MemberDescriptor) bool {
	return a.DeclaredType == b.DeclaredType
}

// addressable returns a pointer to target's struct. Non pointer targets are
// copied into fresh storage and reported as not writable.
func addressable(target any) (reflect.Value, bool, error) {
	rv := reflect.ValueOf(target)
	if !rv.IsValid() {
		return reflect.Value{}, false, fmt.Errorf("%w: nil target", ErrInvalid)
	}
	if rv.Kind() != reflect.Pointer {
		ptr := reflect.New(rv.Type())
		ptr.Elem().Set(rv)
		return ptr, false, nil
	}
	for {
		if rv.IsNil() {
			return reflect.Value{}, false, fmt.Errorf("%w: nil target", ErrInvalid)
		}
		if rv.Elem().Kind() != reflect.Pointer {
			return rv, true, nil
		}
		rv = rv.Elem()
	}
}

func isNilTarget(target any) bool {
	if target == nil {
		return true
	}
	rv := reflect.ValueOf(target)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// Enumerate lists the supported members of t with the default resolver.
func Enumerate(t reflect.Type, filters ...MemberFilter) []MemberDescriptor {
	return DefaultResolver().Enumerate(t, filters...)
}

// EnumerateFor lists the supported members of T with the default resolver.
func EnumerateFor[T any](filters ...MemberFilter) []MemberDescriptor {
	return DefaultResolver().Enumerate(reflect.TypeFor[T](), filters...)
}

// Resolve resolves a member with the default resolver.
func Resolve(target any, name string, kind MemberKind) (*Accessor, error) {
	return DefaultResolver().Resolve(target, name, kind)
}
