// Package cache stores encoded renders in a bounded in-memory LRU in front
// of an on-disk store.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/peterbourgon/diskv/v3"
)

// ErrNotFound is returned by Get for keys in neither tier.
var ErrNotFound = errors.New("cache entry not found")

// transformBlockSize is the number of key characters per directory level.
const transformBlockSize = 5

// Options configure a Cache.
type Options struct {
	// Dir is the on-disk base path. Empty disables the disk tier.
	Dir string
	// SizeMax bounds diskv's in-memory read cache, in bytes.
	SizeMax uint64
	// LRU is the number of entries kept in memory. Zero disables the tier.
	LRU int
}

// Stats are hit and miss counters per tier.
type Stats struct {
	FileHits   uint64 `json:"fileHits"`
	FileMisses uint64 `json:"fileMisses"`
	LRUHits    uint64 `json:"lruHits"`
	LRUMisses  uint64 `json:"lruMisses"`
	LRUEntries int    `json:"lruEntries"`
}

// Cache is safe for concurrent use.
type Cache struct {
	disk *diskv.Diskv
	mem  *lru.Cache[string, []byte]

	fileHits, fileMisses atomic.Uint64
	lruHits, lruMisses   atomic.Uint64
}

// New creates a cache. With neither tier enabled every Get misses.
func New(opts Options) (*Cache, error) {
	c := &Cache{}
	if opts.LRU > 0 {
		mem, err := lru.New[string, []byte](opts.LRU)
		if err != nil {
			return nil, fmt.Errorf("failed to create LRU cache: %w", err)
		}
		c.mem = mem
	}
	if opts.Dir != "" {
		c.disk = diskv.New(diskv.Options{
			BasePath:     opts.Dir,
			Transform:    blockTransform,
			CacheSizeMax: opts.SizeMax,
		})
	}
	return c, nil
}

// blockTransform spreads keys over nested directories.
func blockTransform(s string) []string {
	n := len(s) / transformBlockSize
	if n > 2 {
		n = 2
	}
	path := make([]string, n)
	for i := range path {
		path[i] = s[i*transformBlockSize : (i+1)*transformBlockSize]
	}
	return path
}

// Key derives a cache key from the document bytes and a description of
// the render options.
func Key(source []byte, parts ...string) string {
	h := sha256.New()
	h.Write(source)
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the value for key. Disk hits are promoted into the LRU.
func (c *Cache) Get(key string) ([]byte, error) {
	if c.mem != nil {
		if v, ok := c.mem.Get(key); ok {
			c.lruHits.Add(1)
			return v, nil
		}
		c.lruMisses.Add(1)
	}

	if c.disk == nil || !c.disk.Has(key) {
		c.fileMisses.Add(1)
		return nil, ErrNotFound
	}
	v, err := c.disk.Read(key)
	if err != nil {
		c.fileMisses.Add(1)
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}
	c.fileHits.Add(1)
	if c.mem != nil {
		c.mem.Add(key, v)
	}
	return v, nil
}

// Set stores value under key in both tiers.
func (c *Cache) Set(key string, value []byte) error {
	if c.mem != nil {
		c.mem.Add(key, value)
	}
	if c.disk != nil {
		if err := c.disk.Write(key, value); err != nil {
			return fmt.Errorf("failed to write cache entry: %w", err)
		}
	}
	return nil
}

// Delete removes key from both tiers. Deleting a missing key is not an
// error.
func (c *Cache) Delete(key string) error {
	if c.mem != nil {
		c.mem.Remove(key)
	}
	if c.disk != nil && c.disk.Has(key) {
		if err := c.disk.Erase(key); err != nil {
			return fmt.Errorf("failed to erase cache entry: %w", err)
		}
	}
	return nil
}

// Purge empties both tiers.
func (c *Cache) Purge() error {
	if c.mem != nil {
		c.mem.Purge()
	}
	if c.disk != nil {
		if err := c.disk.EraseAll(); err != nil {
			return fmt.Errorf("failed to purge cache: %w", err)
		}
	}
	return nil
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	s := Stats{
		FileHits:   c.fileHits.Load(),
		FileMisses: c.fileMisses.Load(),
		LRUHits:    c.lruHits.Load(),
		LRUMisses:  c.lruMisses.Load(),
	}
	if c.mem != nil {
		s.LRUEntries = c.mem.Len()
	}
	return s
}
