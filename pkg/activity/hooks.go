package activity

import (
	"context"
	"errors"
	"maps"
	"strings"
	"time"
)

// Event records one change to a persisted binding. Key is the persistence
// key and identifies the binding; values are in their persisted text form.
type Event struct {
	Verb       string
	Key        string
	Target     string
	Member     string
	MemberKind string
	ValueKind  string
	OldValue   string
	NewValue   string
	// ActorID names who caused the change. Emitters fill it from the context.
	ActorID    string
	Channel    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// Complete reports whether the event names a verb and a binding key.
func (e Event) Complete() bool {
	return e.Verb != "" && e.Key != ""
}

// ActivityHook receives binding events.
type ActivityHook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc adapts a function to ActivityHook.
type HookFunc func(ctx context.Context, event Event) error

func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Hooks notifies each hook in order.
type Hooks []ActivityHook

// Enabled reports whether there is at least one hook.
func (h Hooks) Enabled() bool {
	return len(h) > 0
}

// Notify normalizes event and hands it to every hook. Incomplete events are
// dropped. Hook failures do not stop the fan-out and come back joined.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	if len(h) == 0 {
		return nil
	}
	event = NormalizeEvent(event)
	if !event.Complete() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var errs []error
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NormalizeEvent trims identifying fields, copies metadata and stamps a
// missing OccurredAt. Value texts are kept verbatim.
func NormalizeEvent(event Event) Event {
	out := event
	out.Verb = strings.TrimSpace(event.Verb)
	out.Key = strings.TrimSpace(event.Key)
	out.Target = strings.TrimSpace(event.Target)
	out.Member = strings.TrimSpace(event.Member)
	out.MemberKind = strings.TrimSpace(event.MemberKind)
	out.ValueKind = strings.TrimSpace(event.ValueKind)
	out.ActorID = strings.TrimSpace(event.ActorID)
	out.Channel = strings.TrimSpace(event.Channel)
	out.Metadata = cloneMap(event.Metadata)
	if out.OccurredAt.IsZero() {
		out.OccurredAt = time.Now()
	}
	return out
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	return maps.Clone(src)
}
