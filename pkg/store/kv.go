package store

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-fieldbind"
)

// ErrKeyRequired reports an empty persistence key.
var ErrKeyRequired = errors.New("store: key is required")

// KV is the raw text backend behind a Store. Get reports absence through its
// boolean result; Delete of a missing key is not an error.
type KV interface {
	Get(ctx context.Context, key string) (text string, ok bool, err error)
	Set(ctx context.Context, key, text string) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// Ref identifies one persisted slot by its key segments.
type Ref struct {
	Scope  string
	Label  string
	Member string
}

// Identifier renders the persistence key of r. An empty scope falls back to
// fieldbind.DefaultScope.
func (r Ref) Identifier() (string, error) {
	if strings.TrimSpace(r.Label) == "" {
		return "", errors.New("store: label is required")
	}
	if strings.TrimSpace(r.Member) == "" {
		return "", errors.New("store: member is required")
	}
	return fieldbind.PersistenceKey(r.Scope, r.Label, r.Member), nil
}

// MemoryKV is an in-memory KV for tests and examples.
type MemoryKV struct {
	mu      sync.RWMutex
	records map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{records: map[string]string{}}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrKeyRequired
	}
	m.mu.RLock()
	text, ok := m.records[key]
	m.mu.RUnlock()
	return text, ok, nil
}

func (m *MemoryKV) Set(_ context.Context, key, text string) error {
	if key == "" {
		return ErrKeyRequired
	}
	m.mu.Lock()
	m.records[key] = text
	m.mu.Unlock()
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, key string) error {
	if key == "" {
		return ErrKeyRequired
	}
	m.mu.Lock()
	delete(m.records, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryKV) Keys(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedKeys(m.records), nil
}

func sortedKeys(records map[string]string) []string {
	keys := make([]string, 0, len(records))
	for k := range records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
