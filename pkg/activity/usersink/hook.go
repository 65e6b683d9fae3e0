package usersink

import (
	"context"
	"slices"
	"strings"

	"github.com/goliatone/go-fieldbind/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook forwards binding events to a go-users ActivitySink.
type Hook struct {
	Sink usertypes.ActivitySink
	// Verbs restricts forwarding to the listed verbs. Empty forwards all.
	Verbs []string
}

// Notify records the event as an ActivityRecord of object type "binding"
// keyed by the persistence key. Actor IDs that are not UUIDs map to uuid.Nil.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}

	normalized := activity.NormalizeEvent(event)
	if !normalized.Complete() {
		return nil
	}
	if len(h.Verbs) > 0 && !slices.Contains(h.Verbs, normalized.Verb) {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	record := usertypes.ActivityRecord{
		ActorID:    parseUUID(normalized.ActorID),
		Verb:       normalized.Verb,
		ObjectType: activity.ObjectTypeBinding,
		ObjectID:   normalized.Key,
		Channel:    normalized.Channel,
		Data:       normalized.Data(),
		OccurredAt: normalized.OccurredAt,
	}

	return h.Sink.Log(ctx, record)
}

func parseUUID(input string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(input))
	if err != nil {
		return uuid.Nil
	}
	return id
}
