// Package cache stores immutable API responses, such as commit timestamps,
// across resolution runs.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Store is a byte-oriented key/value cache.
type Store interface {
	// Get retrieves a cached value by key.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores a value in the cache.
	Set(ctx context.Context, key string, data []byte) error
}

// Cache provides a memory cache with optional file persistence and TTL.
type Cache struct {
	dir    string
	ttl    time.Duration
	mu     sync.RWMutex
	memory map[string]*cacheEntry
}

type cacheEntry struct {
	data      []byte
	expiresAt time.Time
}

type fileMeta struct {
	ExpiresAt time.Time `json:"expiresAt"`
}

// Config configures the cache behavior.
type Config struct {
	// Dir is the directory for file-based cache. If empty, uses the user
	// cache directory.
	Dir string

	// TTL is the time-to-live for cached entries. Default is 30 days;
	// commit metadata does not change.
	TTL time.Duration

	// MemoryOnly disables file-based caching.
	MemoryOnly bool
}

// DefaultTTL is used when Config.TTL is zero.
const DefaultTTL = 30 * 24 * time.Hour

// DefaultDir returns the default cache directory.
func DefaultDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "versionrewind")
}

// New creates a new cache with the given configuration.
func New(cfg Config) (*Cache, error) {
	if cfg.TTL == 0 {
		cfg.TTL = DefaultTTL
	}

	dir := cfg.Dir
	if dir == "" && !cfg.MemoryOnly {
		dir = DefaultDir()
	}
	if cfg.MemoryOnly {
		dir = ""
	}

	if dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	return &Cache{
		dir:    dir,
		ttl:    cfg.TTL,
		memory: make(map[string]*cacheEntry),
	}, nil
}

// Dir returns the cache directory, or "" for a memory-only cache.
func (c *Cache) Dir() string { return c.dir }

// Get retrieves a cached value by key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	hash := hashKey(key)

	c.mu.RLock()
	if entry, ok := c.memory[hash]; ok {
		if time.Now().Before(entry.expiresAt) {
			c.mu.RUnlock()
			return entry.data, true
		}
	}
	c.mu.RUnlock()

	if c.dir != "" {
		data, expiresAt, err := c.getFromFile(hash)
		if err == nil {
			c.mu.Lock()
			c.memory[hash] = &cacheEntry{
				data:      data,
				expiresAt: expiresAt,
			}
			c.mu.Unlock()
			return data, true
		}
	}

	return nil, false
}

// Set stores a value in the cache.
func (c *Cache) Set(ctx context.Context, key string, data []byte) error {
	hash := hashKey(key)
	expiresAt := time.Now().Add(c.ttl)

	c.mu.Lock()
	c.memory[hash] = &cacheEntry{
		data:      data,
		expiresAt: expiresAt,
	}
	c.mu.Unlock()

	if c.dir != "" {
		if err := c.setToFile(hash, data, expiresAt); err != nil {
			return err
		}
	}

	return nil
}

// Delete removes a value from the cache.
func (c *Cache) Delete(ctx context.Context, key string) error {
	hash := hashKey(key)

	c.mu.Lock()
	delete(c.memory, hash)
	c.mu.Unlock()

	if c.dir != "" {
		path := filepath.Join(c.dir, hash+".json")
		_ = os.Remove(path)
		_ = os.Remove(filepath.Join(c.dir, hash+".meta"))
	}

	return nil
}

// Clear removes all entries from the cache.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.memory = make(map[string]*cacheEntry)
	c.mu.Unlock()

	if c.dir != "" {
		entries, err := os.ReadDir(c.dir)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if strings.HasSuffix(entry.Name(), ".json") || strings.HasSuffix(entry.Name(), ".meta") {
				_ = os.Remove(filepath.Join(c.dir, entry.Name()))
			}
		}
	}

	return nil
}

func (c *Cache) getFromFile(hash string) ([]byte, time.Time, error) {
	metaPath := filepath.Join(c.dir, hash+".meta")
	dataPath := filepath.Join(c.dir, hash+".json")

	meta, err := readMeta(metaPath)
	if err != nil {
		return nil, time.Time{}, err
	}

	if time.Now().After(meta.ExpiresAt) {
		_ = os.Remove(metaPath)
		_ = os.Remove(dataPath)
		return nil, time.Time{}, fmt.Errorf("cache expired")
	}

	data, err := os.ReadFile(dataPath)
	if err != nil {
		return nil, time.Time{}, err
	}
	return data, meta.ExpiresAt, nil
}

func (c *Cache) setToFile(hash string, data []byte, expiresAt time.Time) error {
	metaData, err := json.Marshal(fileMeta{ExpiresAt: expiresAt})
	if err != nil {
		return err
	}

	// Data first, so a reader never sees metadata without its data.
	if err := os.WriteFile(filepath.Join(c.dir, hash+".json"), data, 0600); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.dir, hash+".meta"), metaData, 0600)
}

func readMeta(path string) (fileMeta, error) {
	var meta fileMeta
	data, err := os.ReadFile(path)
	if err != nil {
		return meta, err
	}
	err = json.Unmarshal(data, &meta)
	return meta, err
}

// hashKey creates a hash of the cache key.
func hashKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:16])
}

// Stats provides statistics about cache usage.
type Stats struct {
	Dir           string `json:"dir,omitempty"`
	MemoryEntries int    `json:"memoryEntries"`
	FileEntries   int    `json:"fileEntries"`
	TotalSizeKB   int64  `json:"totalSizeKB"`
}

// Stats returns cache statistics.
func (c *Cache) Stats(ctx context.Context) Stats {
	c.mu.RLock()
	memCount := len(c.memory)
	c.mu.RUnlock()

	stats := Stats{
		Dir:           c.dir,
		MemoryEntries: memCount,
	}

	if c.dir != "" {
		entries, err := os.ReadDir(c.dir)
		if err == nil {
			var totalSize int64
			for _, entry := range entries {
				if strings.HasSuffix(entry.Name(), ".json") {
					stats.FileEntries++
					if info, err := entry.Info(); err == nil {
						totalSize += info.Size()
					}
				}
			}
			stats.TotalSizeKB = totalSize / 1024
		}
	}

	return stats
}

// Prune removes expired entries from the cache.
func (c *Cache) Prune(ctx context.Context) (int, error) {
	pruned := 0

	c.mu.Lock()
	now := time.Now()
	for key, entry := range c.memory {
		if now.After(entry.expiresAt) {
			delete(c.memory, key)
			pruned++
		}
	}
	c.mu.Unlock()

	if c.dir == "" {
		return pruned, nil
	}

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return pruned, err
	}

	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), ".meta") {
			continue
		}
		metaPath := filepath.Join(c.dir, entry.Name())
		meta, err := readMeta(metaPath)
		if err != nil {
			continue
		}
		if now.After(meta.ExpiresAt) {
			hash := strings.TrimSuffix(entry.Name(), ".meta")
			_ = os.Remove(metaPath)
			_ = os.Remove(filepath.Join(c.dir, hash+".json"))
			pruned++
		}
	}

	return pruned, nil
}
