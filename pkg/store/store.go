package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-fieldbind"
	"go.uber.org/zap"
)

// Store implements fieldbind.Persister over a KV backend.
type Store struct {
	kv     KV
	logger *zap.Logger
}

var _ fieldbind.Persister = (*Store)(nil)

// Option customises a Store.
type Option func(*Store)

// WithLogger sets the logger; it is named "store".
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func New(kv KV, opts ...Option) (*Store, error) {
	if kv == nil {
		return nil, errors.New("store: backend is required")
	}
	s := &Store{kv: kv, logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.logger = s.logger.Named("store")
	return s, nil
}

// Backend returns the KV behind s.
func (s *Store) Backend() KV { return s.kv }

// Save writes the canonical text of value under key.
func (s *Store) Save(ctx context.Context, key string, value fieldbind.Value) error {
	if value.IsAbsent() {
		return fmt.Errorf("store: save %q: %w", key, fieldbind.ErrUnsupported)
	}
	if err := s.kv.Set(ctx, key, fieldbind.Format(value)); err != nil {
		return err
	}
	s.logger.Debug("value saved", zap.String("key", key), zap.Stringer("kind", value.Kind()))
	return nil
}

// Load reads key as a value of type t. Missing entries and text that does
// not parse as t are both reported as absent.
func (s *Store) Load(ctx context.Context, key string, t fieldbind.ValueType) (fieldbind.Value, bool, error) {
	return s.load(ctx, key, t)
}

// SaveDefault writes the default snapshot of key. It overwrites any existing
// snapshot; bindings call it only after HasDefault reports false.
func (s *Store) SaveDefault(ctx context.Context, key string, value fieldbind.Value) error {
	return s.Save(ctx, fieldbind.DefaultKey(key), value)
}

func (s *Store) HasDefault(ctx context.Context, key string) (bool, error) {
	_, ok, err := s.kv.Get(ctx, fieldbind.DefaultKey(key))
	return ok, err
}

// RestoreDefault reads the default snapshot of key.
func (s *Store) RestoreDefault(ctx context.Context, key string, t fieldbind.ValueType) (fieldbind.Value, bool, error) {
	return s.load(ctx, fieldbind.DefaultKey(key), t)
}

// ResetDefault removes the default snapshot of key.
func (s *Store) ResetDefault(ctx context.Context, key string) error {
	return s.kv.Delete(ctx, fieldbind.DefaultKey(key))
}

// Delete removes the current value of key and its default snapshot.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.kv.Delete(ctx, key); err != nil {
		return err
	}
	return s.kv.Delete(ctx, fieldbind.DefaultKey(key))
}

// Text returns the raw persisted text of key.
func (s *Store) Text(ctx context.Context, key string) (string, bool, error) {
	return s.kv.Get(ctx, key)
}

// Entry is one persisted slot.
type Entry struct {
	Key     string
	Text    string
	Default bool
}

// Entries lists every slot ordered by key.
func (s *Store) Entries(ctx context.Context) ([]Entry, error) {
	keys, err := s.kv.Keys(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(keys))
	for _, key := range keys {
		text, ok, err := s.kv.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		entries = append(entries, Entry{
			Key:     key,
			Text:    text,
			Default: strings.HasSuffix(key, fieldbind.DefaultSuffix),
		})
	}
	return entries, nil
}

func (s *Store) load(ctx context.Context, key string, t fieldbind.ValueType) (fieldbind.Value, bool, error) {
	text, ok, err := s.kv.Get(ctx, key)
	if err != nil || !ok {
		return fieldbind.Value{}, false, err
	}
	value, err := fieldbind.Parse(t, text)
	if err != nil {
		s.logger.Warn("persisted value ignored",
			zap.String("key", key),
			zap.Stringer("type", t),
			zap.Error(err),
		)
		return fieldbind.Value{}, false, nil
	}
	return value, true, nil
}
