// Package cache keeps resolved catalogues keyed by the hash of the ABI bytes
// they were built from: an in-memory LRU in front of an optional msgpack store
// on disk.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	slogctx "github.com/veqryn/slog-context"
	"github.com/vmihailenco/msgpack/v5"
	"gitlab.com/tozd/go/errors"

	"github.com/jshufro/abistructs/internal/declarations"
)

// Current schema version - increment when payload or Snapshot format changes
const schemaVersion uint16 = 1

var errSchemaMismatch = errors.Base("cache schema mismatch")

type Key [sha256.Size]byte

func KeyOf(data []byte) Key {
	return sha256.Sum256(data)
}

func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

type payload struct {
	Schema   uint16                `json:"schema"`
	Snapshot declarations.Snapshot `json:"snapshot"`
}

// Cache is safe for concurrent use. A nil *Cache never hits and ignores Put.
type Cache struct {
	mem *lru.Cache[Key, *declarations.Catalogue]

	mu  sync.RWMutex
	dir string
}

// New returns a cache holding up to size catalogues in memory. An empty dir
// disables the disk layer.
func New(dir string, size int) (*Cache, error) {
	mem, err := lru.New[Key, *declarations.Catalogue](size)
	if err != nil {
		return nil, errors.Errorf("creating memory cache: %w", err)
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Errorf("creating cache dir: %w", err)
		}
	}
	return &Cache{mem: mem, dir: dir}, nil
}

// DefaultDir is the per-user cache location, honouring XDG_CACHE_HOME.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", errors.Errorf("locating user cache dir: %w", err)
	}
	return filepath.Join(base, "abistructs"), nil
}

func (c *Cache) pathFor(key Key) string {
	return filepath.Join(c.dir, "catalogues", key.String()+".mp")
}

// Get returns the catalogue stored under key. Unreadable or stale disk entries
// count as misses.
func (c *Cache) Get(ctx context.Context, key Key) (*declarations.Catalogue, bool) {
	if c == nil {
		return nil, false
	}
	if cat, ok := c.mem.Get(key); ok {
		return cat, true
	}
	if c.dir == "" {
		return nil, false
	}

	cat, ok, err := c.load(key)
	if err != nil {
		slogctx.Debug(ctx, "ignoring disk cache entry", "key", key.String(), "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	c.mem.Add(key, cat)
	return cat, true
}

// Put stores cat in memory and, when enabled, on disk.
func (c *Cache) Put(ctx context.Context, key Key, cat *declarations.Catalogue) error {
	if c == nil {
		return nil
	}
	c.mem.Add(key, cat)
	if c.dir == "" {
		return nil
	}
	if err := c.store(key, cat); err != nil {
		return errors.Errorf("writing cache entry %s: %w", key, err)
	}
	slogctx.Debug(ctx, "cached catalogue", "key", key.String(), "declarations", cat.Len())
	return nil
}

func (c *Cache) load(key Key) (*declarations.Catalogue, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, errors.WithStack(err)
	}
	defer f.Close()

	dec := msgpack.NewDecoder(f)
	dec.SetCustomStructTag("json")
	var p payload
	if err := dec.Decode(&p); err != nil {
		return nil, false, errors.Errorf("decoding: %w", err)
	}
	if p.Schema != schemaVersion {
		return nil, false, errors.WithDetails(errSchemaMismatch, "got", p.Schema, "want", schemaVersion)
	}
	cat, err := declarations.Restore(p.Snapshot)
	if err != nil {
		return nil, false, err
	}
	return cat, true, nil
}

func (c *Cache) store(key Key, cat *declarations.Catalogue) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return errors.WithStack(err)
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return errors.WithStack(err)
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()

	enc := msgpack.NewEncoder(f)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(&payload{Schema: schemaVersion, Snapshot: cat.Snapshot()}); err != nil {
		return errors.Errorf("encoding: %w", err)
	}
	if err := f.Close(); err != nil {
		return errors.WithStack(err)
	}
	// atomic replace
	return errors.WithStack(os.Rename(f.Name(), p))
}

// Purge drops every entry, in memory and on disk.
func (c *Cache) Purge() error {
	if c == nil {
		return nil
	}
	c.mem.Purge()
	if c.dir == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return errors.WithStack(os.RemoveAll(filepath.Join(c.dir, "catalogues")))
}
