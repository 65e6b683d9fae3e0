package fieldbind

import (
	"context"
	"reflect"

	"github.com/goliatone/go-fieldbind/pkg/activity"
	"go.uber.org/zap"
)

// Binding connects a Descriptor to an optional Persister. It re-validates the
// descriptor on every access, resolves its accessor lazily, saves each
// successful write and captures a default snapshot the first time it is
// observed valid. A Binding is meant to be driven from one goroutine.
type Binding struct {
	desc     Descriptor
	resolver *Resolver
	store    Persister
	scope    string
	label    string
	logger   *zap.Logger
	emitter  *activity.Emitter

	accessor    *Accessor
	boundTo     targetIdentity
	capturedKey string
}

// BindingOption customises a Binding.
type BindingOption func(*Binding)

// WithResolver sets the resolver; the default resolver is used otherwise.
func WithResolver(r *Resolver) BindingOption {
	return func(b *Binding) {
		if r != nil {
			b.resolver = r
		}
	}
}

// WithPersister enables persistence through store.
func WithPersister(store Persister) BindingOption {
	return func(b *Binding) {
		b.store = store
	}
}

// WithScope sets the first segment of persistence keys.
func WithScope(scope string) BindingOption {
	return func(b *Binding) {
		b.scope = scope
	}
}

// WithLabel overrides the display label derived from the member name.
func WithLabel(label string) BindingOption {
	return func(b *Binding) {
		b.label = label
	}
}

// WithBindingLogger sets the logger for persistence failures and captures.
func WithBindingLogger(logger *zap.Logger) BindingOption {
	return func(b *Binding) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithEmitter publishes activity events for writes and default changes.
func WithEmitter(emitter *activity.Emitter) BindingOption {
	return func(b *Binding) {
		b.emitter = emitter
	}
}

// New constructs a Binding for desc.
func New(desc Descriptor, opts ...BindingOption) *Binding {
	b := &Binding{
		desc:   desc,
		scope:  DefaultScope,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	b.resolver = orDefault(b.resolver)
	b.logger = b.logger.Named("binding")
	return b
}

// Descriptor returns the current descriptor.
func (b *Binding) Descriptor() Descriptor {
	return b.desc
}

// SetDescriptor replaces the descriptor and drops the cached accessor.
func (b *Binding) SetDescriptor(desc Descriptor) {
	b.desc = desc
	b.invalidate()
}

// Retarget points the binding at another target, keeping the member.
func (b *Binding) Retarget(target any) {
	b.SetDescriptor(b.desc.WithTarget(target))
}

// Label returns the display label: the WithLabel override or the member name
// split on upper case letters.
func (b *Binding) Label() string {
	if b.label != "" {
		return b.label
	}
	return DisplayLabel(b.desc.MemberName)
}

// Err reports why the binding is invalid, or nil.
func (b *Binding) Err() error {
	_, err := b.resolve()
	return err
}

// Valid reports whether the descriptor currently resolves against its target.
func (b *Binding) Valid() bool {
	return b.Err() == nil
}

// Key returns the persistence key. Invalid bindings have no key.
func (b *Binding) Key() (string, bool) {
	if !b.Valid() {
		return "", false
	}
	key := b.desc.Key(b.scope)
	return key, key != ""
}

// Type returns the member's value type, or the zero ValueType when invalid.
func (b *Binding) Type() ValueType {
	accessor, err := b.resolve()
	if err != nil {
		return ValueType{}
	}
	return accessor.Type()
}

// Get reads the member. Invalid bindings return the absence marker.
func (b *Binding) Get(ctx context.Context) (Value, bool) {
	accessor, err := b.ready(ctx)
	if err != nil {
		return Value{}, false
	}
	v := accessor.Get()
	return v, !v.IsAbsent()
}

// Set coerces and writes v, then persists the value read back from the
// member. A failed write leaves the member and the store untouched; when the
// save fails the previous value is written back.
func (b *Binding) Set(ctx context.Context, v Value) error {
	accessor, err := b.ready(ctx)
	if err != nil {
		return err
	}
	previous := accessor.Get()
	if err := accessor.Set(v); err != nil {
		return err
	}
	if b.store == nil {
		return nil
	}
	key := b.desc.Key(b.scope)
	current := accessor.Get()
	if err := b.store.Save(ctx, key, current); err != nil {
		b.logger.Warn("save failed", zap.String("key", key), zap.Error(err))
		if !previous.IsAbsent() {
			if rollbackErr := accessor.Set(previous); rollbackErr != nil {
				b.logger.Warn("rollback failed", zap.String("key", key), zap.Error(rollbackErr))
			}
		}
		return err
	}
	b.emit(ctx, b.event(activity.VerbValueUpdated, key, accessor, previous, current))
	return nil
}

// Restore applies the persisted current value to the member without saving
// it again. It reports false when nothing is stored.
func (b *Binding) Restore(ctx context.Context) (bool, error) {
	accessor, err := b.ready(ctx)
	if err != nil {
		return false, err
	}
	if b.store == nil {
		return false, nil
	}
	v, ok, err := b.store.Load(ctx, b.desc.Key(b.scope), accessor.Type())
	if err != nil || !ok {
		return false, err
	}
	if err := accessor.Set(v); err != nil {
		return false, err
	}
	return true, nil
}

// RestoreDefault returns the stored default snapshot. It does not write the
// member; pass the value to Set, or call ApplyDefault, to re-apply it.
func (b *Binding) RestoreDefault(ctx context.Context) (Value, bool, error) {
	accessor, err := b.ready(ctx)
	if err != nil {
		return Value{}, false, err
	}
	if b.store == nil {
		return Value{}, false, nil
	}
	key := b.desc.Key(b.scope)
	v, ok, err := b.store.RestoreDefault(ctx, key, accessor.Type())
	if err != nil || !ok {
		return Value{}, false, err
	}
	b.emit(ctx, b.event(activity.VerbDefaultRestored, key, accessor, Value{}, v))
	return v, true, nil
}

// ApplyDefault restores the default snapshot and writes it through Set.
func (b *Binding) ApplyDefault(ctx context.Context) (bool, error) {
	v, ok, err := b.RestoreDefault(ctx)
	if err != nil || !ok {
		return false, err
	}
	if err := b.Set(ctx, v); err != nil {
		return false, err
	}
	return true, nil
}

// ResetDefault overwrites the default snapshot with the member's current
// value. The old snapshot survives a failed write.
func (b *Binding) ResetDefault(ctx context.Context) error {
	accessor, err := b.ready(ctx)
	if err != nil {
		return err
	}
	if b.store == nil {
		return nil
	}
	key := b.desc.Key(b.scope)
	previous, _, err := b.store.RestoreDefault(ctx, key, accessor.Type())
	if err != nil {
		return err
	}
	current := accessor.Get()
	if err := b.store.SaveDefault(ctx, key, current); err != nil {
		return err
	}
	b.capturedKey = key
	b.emit(ctx, b.event(activity.VerbDefaultReset, key, accessor, previous, current))
	return nil
}

// ready resolves the accessor and captures the default on the first valid
// observation of the current key.
func (b *Binding) ready(ctx context.Context) (*Accessor, error) {
	accessor, err := b.resolve()
	if err != nil {
		return nil, err
	}
	if b.store != nil {
		b.captureDefault(ctx, accessor)
	}
	return accessor, nil
}

func (b *Binding) captureDefault(ctx context.Context, accessor *Accessor) {
	key := b.desc.Key(b.scope)
	if key == b.capturedKey {
		return
	}
	has, err := b.store.HasDefault(ctx, key)
	if err != nil {
		b.logger.Warn("default lookup failed", zap.String("key", key), zap.Error(err))
		return
	}
	b.capturedKey = key
	if has {
		return
	}
	current := accessor.Get()
	if current.IsAbsent() {
		return
	}
	if err := b.store.SaveDefault(ctx, key, current); err != nil {
		b.logger.Warn("default capture failed", zap.String("key", key), zap.Error(err))
		b.capturedKey = ""
		return
	}
	b.logger.Debug("default captured", zap.String("key", key), zap.Stringer("value", current))
	b.emit(ctx, b.event(activity.VerbDefaultCaptured, key, accessor, Value{}, current))
}

// resolve validates the descriptor and returns an accessor for it, reusing
// the cached one while the target identity is unchanged.
func (b *Binding) resolve() (*Accessor, error) {
	identity := identityOf(b.desc.Target)
	if b.accessor != nil && !b.accessor.exposed && identity.valid && identity == b.boundTo {
		if b.accessor.desc.Type.Kind == b.desc.ExpectedKind {
			return b.accessor, nil
		}
	}
	b.invalidate()
	accessor, err := b.desc.resolve(b.resolver)
	if err != nil {
		return nil, err
	}
	b.accessor = accessor
	b.boundTo = identity
	return accessor, nil
}

func (b *Binding) invalidate() {
	b.accessor = nil
	b.boundTo = targetIdentity{}
}

func (b *Binding) emit(ctx context.Context, event activity.Event) {
	if !b.emitter.Enabled() {
		return
	}
	if err := b.emitter.Emit(ctx, event); err != nil {
		b.logger.Warn("activity emit failed", zap.String("verb", event.Verb), zap.Error(err))
	}
}

func (b *Binding) event(verb, key string, accessor *Accessor, previous, current Value) activity.Event {
	desc := accessor.Descriptor()
	return activity.Event{
		Verb:       verb,
		Key:        key,
		Target:     b.desc.Label(),
		Member:     desc.Name,
		MemberKind: desc.Kind.String(),
		ValueKind:  desc.Type.String(),
		OldValue:   Format(previous),
		NewValue:   Format(current),
	}
}

// targetIdentity identifies a pointer target without comparing values.
// Targets held by value have no identity and are re-resolved on every access.
type targetIdentity struct {
	typ   reflect.Type
	ptr   uintptr
	valid bool
}

// identityOf keys on the innermost pointer of a pointer chain, the same one
// the resolver binds to, so swapping an inner pointer is noticed.
func identityOf(target any) targetIdentity {
	if isNilTarget(target) {
		return targetIdentity{}
	}
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer {
		return targetIdentity{}
	}
	for rv.Elem().Kind() == reflect.Pointer {
		rv = rv.Elem()
		if rv.IsNil() {
			return targetIdentity{}
		}
	}
	return targetIdentity{typ: rv.Type(), ptr: rv.Pointer(), valid: true}
}
