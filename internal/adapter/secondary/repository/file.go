package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"micros-shell/internal/config"
	"micros-shell/internal/domain"
)

// NodeConfigFile implements domain.ConfigGateway on a JSON file.
// This is a secondary adapter.
type NodeConfigFile struct {
	path string

	mu     sync.RWMutex
	values map[string]any
}

var _ domain.ConfigGateway = (*NodeConfigFile)(nil)

// NewNodeConfigFile opens the node configuration at path, creating parent
// directories. A missing file starts from the defaults.
func NewNodeConfigFile(path string) (*NodeConfigFile, error) {
	if path == "" {
		return nil, errors.New("path is required")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	values, err := readNodeFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		values = config.DefaultNode()
	}

	return &NodeConfigFile{path: path, values: values}, nil
}

func readNodeFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return config.Normalize(raw)
}

// Get returns the value stored under key.
func (f *NodeConfigFile) Get(key string) (any, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.values[key]
	return v, ok
}

// Put stores value under an existing key and persists the file.
func (f *NodeConfigFile) Put(key, value string, typeCheck bool) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	current, ok := f.values[key]
	if !ok {
		return false, nil
	}

	var next any = value
	if typeCheck {
		coerced, err := config.Coerce(current, value)
		if err != nil {
			return false, fmt.Errorf("%w: %s: %v", domain.ErrConfigWrite, key, err)
		}
		next = coerced
	}

	f.values[key] = next
	if err := f.save(); err != nil {
		f.values[key] = current
		return false, fmt.Errorf("%w: %v", domain.ErrConfigWrite, err)
	}
	return true, nil
}

// Dump returns every key/value pair sorted by key.
func (f *NodeConfigFile) Dump() []domain.ConfigEntry {
	f.mu.RLock()
	defer f.mu.RUnlock()

	keys := make([]string, 0, len(f.values))
	for k := range f.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]domain.ConfigEntry, 0, len(keys))
	for _, k := range keys {
		out = append(out, domain.ConfigEntry{Key: k, Value: f.values[k]})
	}
	return out
}

// EnsureUniqueID returns the device unique id, generating and persisting one
// when the configuration has none.
func (f *NodeConfigFile) EnsureUniqueID() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if uid := strings.TrimSpace(config.String(f.values[domain.KeyUniqueID])); uid != "" {
		return uid, nil
	}
	uid := uuid.NewString()
	f.values[domain.KeyUniqueID] = uid
	if err := f.save(); err != nil {
		return "", err
	}
	return uid, nil
}

// Save writes the current values to disk atomically.
func (f *NodeConfigFile) Save() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.save()
}

func (f *NodeConfigFile) save() error {
	data, err := json.MarshalIndent(f.values, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	// Atomic write
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write tmp: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("rename tmp: %w", err)
	}
	return nil
}

// NodePortSource reads socport from a node configuration file without
// taking ownership of it. It implements domain.PortSource.
type NodePortSource struct {
	Path string
}

// ReadPort returns the configured socket port.
func (s NodePortSource) ReadPort() (int, error) {
	values, err := readNodeFile(s.Path)
	if err != nil {
		return 0, err
	}
	raw, ok := values[domain.KeySocketPort]
	if !ok {
		return 0, fmt.Errorf("%s has no %s field", s.Path, domain.KeySocketPort)
	}
	port := config.Int(raw)
	if port <= 0 {
		return 0, fmt.Errorf("port %v from %s invalid, must be integer", raw, s.Path)
	}
	return port, nil
}
