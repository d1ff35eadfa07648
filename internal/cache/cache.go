// Package cache stores per-file diagnostics keyed by content hash, so
// unchanged files skip re-analysis across runs.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/refcheck/refcheck/pkg/models"
)

// Cache provides file-based caching of analysis results.
type Cache struct {
	dir     string
	ttl     time.Duration
	enabled bool
}

// Entry is one cached analysis result.
type Entry struct {
	Hash        string              `json:"hash"`
	Timestamp   time.Time           `json:"timestamp"`
	Diagnostics []models.Diagnostic `json:"diagnostics"`
}

// New creates a cache rooted at dir. A disabled cache is a no-op.
func New(dir string, ttlHours int, enabled bool) (*Cache, error) {
	if !enabled {
		return &Cache{enabled: false}, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	return &Cache{
		dir:     dir,
		ttl:     time.Duration(ttlHours) * time.Hour,
		enabled: true,
	}, nil
}

// Key computes the cache key for a file's contents plus the
// configuration fingerprint that influenced the analysis.
func Key(source []byte, configFingerprint string) string {
	h := xxhash.New()
	h.Write(source)
	h.WriteString(configFingerprint)
	return fmt.Sprintf("%016x", h.Sum64())
}

// HashFile computes the cache key for a file on disk.
func HashFile(path, configFingerprint string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return Key(data, configFingerprint), nil
}

// Get retrieves cached diagnostics if present and fresh.
func (c *Cache) Get(key string) ([]models.Diagnostic, bool) {
	if !c.enabled {
		return nil, false
	}
	data, err := os.ReadFile(c.entryPath(key))
	if err != nil {
		return nil, false
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}
	if entry.Hash != key {
		return nil, false
	}
	if c.ttl > 0 && time.Since(entry.Timestamp) > c.ttl {
		return nil, false
	}
	return entry.Diagnostics, true
}

// Put stores diagnostics for a key. Failures are silent; the cache is
// an optimization, never a correctness dependency.
func (c *Cache) Put(key string, diags []models.Diagnostic) {
	if !c.enabled {
		return
	}
	entry := Entry{
		Hash:        key,
		Timestamp:   time.Now(),
		Diagnostics: diags,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	_ = os.WriteFile(c.entryPath(key), data, 0o644)
}

func (c *Cache) entryPath(key string) string {
	return filepath.Join(c.dir, key+".json")
}
