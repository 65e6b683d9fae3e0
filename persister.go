package fieldbind

import "context"

// Persister stores current values and default snapshots by persistence key.
// Values are kept as text produced by Format. Implementations treat text
// that no longer parses as absent.
type Persister interface {
	Save(ctx context.Context, key string, value Value) error
	Load(ctx context.Context, key string, t ValueType) (Value, bool, error)
	// SaveDefault writes unconditionally; callers check HasDefault first.
	SaveDefault(ctx context.Context, key string, value Value) error
	HasDefault(ctx context.Context, key string) (bool, error)
	RestoreDefault(ctx context.Context, key string, t ValueType) (Value, bool, error)
	// ResetDefault forgets the default so the next capture writes it again.
	ResetDefault(ctx context.Context, key string) error
}
