package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
)

// Store is a key-value settings collaborator. Set persists immediately.
type Store interface {
	Get(key string) (any, bool)
	Set(key string, value any) error
	Settings() Settings
}

// values is the in-memory map shared by FileStore and MemStore. Unknown
// keys found on disk are kept and written back.
type values map[string]any

func (v values) typed() Settings {
	s := Defaults()
	if lang, ok := v[KeyLanguage].(string); ok && lang != "" {
		s.Language = lang
	}
	if n, ok := asInt(v[KeyPWMStep]); ok {
		s.PWMStep = n
	}
	if n, ok := asInt(v[KeyDebounceMs]); ok {
		s.DebounceMs = n
	}
	return s
}

func asInt(x any) (int, bool) {
	switch n := x.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	}
	return 0, false
}

func checkValue(key string, value any) error {
	switch key {
	case KeyLanguage:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("setting %s: expected string, got %T", key, value)
		}
	case KeyPWMStep, KeyDebounceMs:
		if _, ok := asInt(value); !ok {
			return fmt.Errorf("setting %s: expected integer, got %T", key, value)
		}
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}

// FileStore persists settings as a JSON object in a single file.
type FileStore struct {
	path string

	mu   sync.RWMutex
	vals values
}

// Open loads the settings file at path. The returned store is always usable:
// a missing file yields defaults and a nil error, an unreadable or corrupt
// file yields defaults and a non-nil error for the caller to log.
func Open(path string) (*FileStore, error) {
	fs := &FileStore{path: path, vals: values{}}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fs, nil
	}
	if err != nil {
		return fs, fmt.Errorf("read settings: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fs, fmt.Errorf("parse settings %s: %w", path, err)
	}
	for k, v := range raw {
		fs.vals[k] = v
	}
	return fs, nil
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

// Get returns the raw stored value for key.
func (f *FileStore) Get(key string) (any, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.vals[key]
	return v, ok
}

// Set stores value under key and rewrites the file. The in-memory value is
// updated even when the write fails.
func (f *FileStore) Set(key string, value any) error {
	if err := checkValue(key, value); err != nil {
		return err
	}

	f.mu.Lock()
	f.vals[key] = value
	data, err := json.MarshalIndent(f.vals, "", "  ")
	f.mu.Unlock()
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	if err := writeFileAtomic(f.path, data); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// Settings returns the typed view with defaults for missing keys.
func (f *FileStore) Settings() Settings {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.vals.typed()
}

// writeFileAtomic replaces path via a synced temp file and rename in the
// same directory.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// MemStore is an in-memory Store for tests and the simulator.
type MemStore struct {
	mu       sync.Mutex
	vals     values
	Sets     []string // keys in Set order
	SetError error    // returned by Set after storing, if non-nil
}

// NewMemStore creates a MemStore seeded with initial raw values.
func NewMemStore(initial map[string]any) *MemStore {
	m := &MemStore{vals: values{}}
	for k, v := range initial {
		m.vals[k] = v
	}
	return m
}

// Get returns the raw stored value for key.
func (m *MemStore) Get(key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vals[key]
	return v, ok
}

// Set stores value under key.
func (m *MemStore) Set(key string, value any) error {
	if err := checkValue(key, value); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vals[key] = value
	m.Sets = append(m.Sets, key)
	return m.SetError
}

// Settings returns the typed view with defaults for missing keys.
func (m *MemStore) Settings() Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.vals.typed()
}
