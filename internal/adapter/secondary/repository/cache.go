package repository

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"micros-shell/internal/domain"
)

// DeviceCacheFile implements domain.DeviceCacheRepository on a YAML document
// mapping unique id -> [address, metadata, friendly_id].
type DeviceCacheFile struct {
	path string
	mu   sync.Mutex
}

var _ domain.DeviceCacheRepository = (*DeviceCacheFile)(nil)

// NewDeviceCacheFile creates a cache repository stored at path.
func NewDeviceCacheFile(path string) *DeviceCacheFile {
	return &DeviceCacheFile{path: path}
}

// Path returns the cache file location.
func (c *DeviceCacheFile) Path() string {
	return c.path
}

// Exists reports whether the cache file is present.
func (c *DeviceCacheFile) Exists() bool {
	info, err := os.Stat(c.path)
	return err == nil && !info.IsDir()
}

// Load reads the whole cache. A missing file yields an empty cache.
func (c *DeviceCacheFile) Load() (*domain.DeviceCache, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cache := domain.NewDeviceCache()
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cache, nil
		}
		return nil, fmt.Errorf("read device cache: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal device cache: %w", err)
	}
	if len(doc.Content) == 0 {
		return cache, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("device cache %s: expected a mapping", c.path)
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		var fields []string
		if err := val.Decode(&fields); err != nil {
			return nil, fmt.Errorf("device cache entry %q: %w", key.Value, err)
		}
		rec := domain.DeviceRecord{UniqueID: key.Value}
		if len(fields) > 0 {
			rec.Address = fields[0]
		}
		if len(fields) > 1 {
			rec.Metadata = fields[1]
		}
		if len(fields) > 2 {
			rec.FriendlyID = fields[2]
		}
		cache.Put(rec)
	}
	return cache, nil
}

// Save rewrites the whole cache file.
func (c *DeviceCacheFile) Save(cache *domain.DeviceCache) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	root := &yaml.Node{Kind: yaml.MappingNode}
	if cache != nil {
		for _, rec := range cache.Records() {
			val := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
			for _, field := range []string{rec.Address, rec.Metadata, rec.FriendlyID} {
				val.Content = append(val.Content, strNode(field))
			}
			root.Content = append(root.Content, strNode(rec.UniqueID), val)
		}
	}

	data, err := yaml.Marshal(root)
	if err != nil {
		return fmt.Errorf("marshal device cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write tmp: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("rename tmp: %w", err)
	}
	return nil
}

func strNode(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}
