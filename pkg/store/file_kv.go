package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// Format names the document encoding of a FileKV.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat accepts "yaml", "yml" and "json" in any case. Empty text
// selects YAML.
func ParseFormat(text string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "", "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("store: unsupported file format %q", text)
	}
}

// FormatForPath picks the encoding from the file extension.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

func (f Format) marshal(records map[string]string) ([]byte, error) {
	switch f {
	case FormatJSON:
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	default:
		return yaml.Marshal(records)
	}
}

func (f Format) unmarshal(data []byte) (map[string]string, error) {
	records := map[string]string{}
	if len(bytes.TrimSpace(data)) == 0 {
		return records, nil
	}
	var err error
	switch f {
	case FormatJSON:
		err = json.Unmarshal(data, &records)
	default:
		err = yaml.Unmarshal(data, &records)
	}
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = map[string]string{}
	}
	return records, nil
}

// FileKV keeps every entry in one document on disk. Each write rewrites the
// whole document through a temporary file and a rename, so a crash leaves
// either the old or the new document in place.
type FileKV struct {
	mu      sync.RWMutex
	path    string
	format  Format
	perm    fs.FileMode
	records map[string]string
}

// FileOption customises a FileKV.
type FileOption func(*FileKV)

// WithFormat overrides the encoding chosen from the file extension.
func WithFormat(format Format) FileOption {
	return func(f *FileKV) {
		if format != "" {
			f.format = format
		}
	}
}

// WithFileMode sets the permissions of the written document.
func WithFileMode(perm fs.FileMode) FileOption {
	return func(f *FileKV) {
		if perm != 0 {
			f.perm = perm
		}
	}
}

// OpenFileKV loads the document at path, expanding a leading "~". A missing
// file is an empty store; it is created on the first write.
func OpenFileKV(path string, opts ...FileOption) (*FileKV, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("store: file path is required")
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("store: expand %q: %w", path, err)
	}

	kv := &FileKV{
		path:   expanded,
		format: FormatForPath(expanded),
		perm:   0o600,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(kv)
		}
	}

	data, err := os.ReadFile(kv.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		kv.records = map[string]string{}
	case err != nil:
		return nil, fmt.Errorf("store: read %q: %w", kv.path, err)
	default:
		records, err := kv.format.unmarshal(data)
		if err != nil {
			return nil, fmt.Errorf("store: decode %q: %w", kv.path, err)
		}
		kv.records = records
	}
	return kv, nil
}

// Path returns the expanded document path.
func (f *FileKV) Path() string { return f.path }

func (f *FileKV) Get(_ context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrKeyRequired
	}
	f.mu.RLock()
	text, ok := f.records[key]
	f.mu.RUnlock()
	return text, ok, nil
}

func (f *FileKV) Set(_ context.Context, key, text string) error {
	if key == "" {
		return ErrKeyRequired
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	previous, existed := f.records[key]
	f.records[key] = text
	if err := f.flush(); err != nil {
		if existed {
			f.records[key] = previous
		} else {
			delete(f.records, key)
		}
		return err
	}
	return nil
}

func (f *FileKV) Delete(_ context.Context, key string) error {
	if key == "" {
		return ErrKeyRequired
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	previous, existed := f.records[key]
	if !existed {
		return nil
	}
	delete(f.records, key)
	if err := f.flush(); err != nil {
		f.records[key] = previous
		return err
	}
	return nil
}

func (f *FileKV) Keys(_ context.Context) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return sortedKeys(f.records), nil
}

// flush writes the document; the caller holds the write lock.
func (f *FileKV) flush() error {
	data, err := f.format.marshal(f.records)
	if err != nil {
		return fmt.Errorf("store: encode %q: %w", f.path, err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: create %q: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("store: write %q: %w", f.path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("store: write %q: %w", f.path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("store: sync %q: %w", f.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store: write %q: %w", f.path, err)
	}
	if err := os.Chmod(tmpName, f.perm); err != nil {
		return fmt.Errorf("store: chmod %q: %w", f.path, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("store: replace %q: %w", f.path, err)
	}
	return nil
}
