package activity

import "context"

// Verbs emitted by bindings.
const (
	VerbValueUpdated    = "binding.value.updated"
	VerbDefaultCaptured = "binding.default.captured"
	VerbDefaultRestored = "binding.default.restored"
	VerbDefaultReset    = "binding.default.reset"
)

// ObjectTypeBinding is the object type sinks record binding events under.
const ObjectTypeBinding = "binding"

// Verbs lists every binding verb.
func Verbs() []string {
	return []string{VerbValueUpdated, VerbDefaultCaptured, VerbDefaultRestored, VerbDefaultReset}
}

type actorKey struct{}

// WithActor returns a context whose emitted events are attributed to actor.
func WithActor(ctx context.Context, actor string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the actor stored by WithActor.
func ActorFrom(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	actor, ok := ctx.Value(actorKey{}).(string)
	return actor, ok && actor != ""
}

// Data flattens the binding fields of event into a record payload. Metadata
// entries never override binding fields.
func (e Event) Data() map[string]any {
	data := cloneMap(e.Metadata)
	if data == nil {
		data = map[string]any{}
	}
	set := func(key, value string) {
		if value != "" {
			data[key] = value
		}
	}
	set("binding_key", e.Key)
	set("target", e.Target)
	set("member", e.Member)
	set("member_kind", e.MemberKind)
	set("value_kind", e.ValueKind)
	set("old_value", e.OldValue)
	set("new_value", e.NewValue)
	if len(data) == 0 {
		return nil
	}
	return data
}
