// Package cache stores values as gob files under the user cache directory and
// serves them back until they expire.
package cache

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/morikuni/failure/v2"
)

var (
	// DefaultTTL is the default time-to-live for cached entries
	DefaultTTL = time.Hour

	// DefaultDir is the default cache directory
	DefaultDir string
)

// Entry represents a cached item
type Entry[T any] struct {
	Value     T
	CreatedAt time.Time
}

// Cache provides a generic caching mechanism
type Cache[T any] struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

func init() {
	cacheHome, err := os.UserCacheDir()
	if err != nil {
		DefaultDir = filepath.Join(os.TempDir(), "travelwarn")
	} else {
		DefaultDir = filepath.Join(cacheHome, "travelwarn")
	}
}

// New returns a cache storing entries under DefaultDir/namespace.
func New[T any](namespace string, ttl time.Duration) *Cache[T] {
	return NewAt[T](filepath.Join(DefaultDir, normalizeKey(namespace)), ttl)
}

// NewAt returns a cache rooted at dir.
func NewAt[T any](dir string, ttl time.Duration) *Cache[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache[T]{
		dir: dir,
		ttl: ttl,
		now: time.Now,
	}
}

// normalizeKey converts a cache key into a filesystem-safe format
func normalizeKey(key string) string {
	normalized := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') ||
			(r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') ||
			r == '-' || r == '_' || r == '.' || r == '/' {
			return r
		}
		return '_'
	}, key)

	for strings.Contains(normalized, "..") {
		normalized = strings.ReplaceAll(normalized, "..", ".")
	}
	for strings.Contains(normalized, "//") {
		normalized = strings.ReplaceAll(normalized, "//", "/")
	}
	return strings.Trim(normalized, "/")
}

func (c *Cache[T]) path(key string) string {
	return filepath.Join(c.dir, normalizeKey(key)+".gob")
}

// Get returns the cached value for key if it exists and has not expired.
func (c *Cache[T]) Get(key string) (T, bool) {
	entry, err := c.loadEntry(c.path(key))
	if err != nil || c.now().Sub(entry.CreatedAt) >= c.ttl {
		var zero T
		return zero, false
	}
	return entry.Value, true
}

// GetOrSet retrieves a value from cache or stores the result of fn.
// forceUpdate skips the lookup and always calls fn.
func (c *Cache[T]) GetOrSet(key string, fn func() (T, error), forceUpdate bool) (T, error) {
	if !forceUpdate {
		if v, ok := c.Get(key); ok {
			return v, nil
		}
	}

	value, err := fn()
	if err != nil {
		var zero T
		return zero, err
	}

	entry := Entry[T]{
		Value:     value,
		CreatedAt: c.now(),
	}
	// A value that could not be cached is still returned.
	if err := c.saveEntry(c.path(key), entry); err != nil {
		return value, failure.Wrap(err, failure.Context{"key": key})
	}
	return value, nil
}

func (c *Cache[T]) loadEntry(path string) (*Entry[T], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entry Entry[T]
	if err := gob.NewDecoder(f).Decode(&entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (c *Cache[T]) saveEntry(path string, entry Entry[T]) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return gob.NewEncoder(f).Encode(entry)
}

// Clear removes all cached entries
func (c *Cache[T]) Clear() error {
	return os.RemoveAll(c.dir)
}

// SetTTL updates the cache TTL
func (c *Cache[T]) SetTTL(d time.Duration) {
	c.ttl = d
}
