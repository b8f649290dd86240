// Package cache is the incremental analysis cache: a content-hash index
// plus one serialized FileDeclaration blob per file, fronted by an
// in-memory LRU. Cache failures are logged and degrade to misses; they
// never propagate into the pipeline.
package cache

import (
	"encoding/gob"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"dartbridge/internal/engine/graph"
	"dartbridge/internal/engine/ir"
	"dartbridge/internal/shared/observability"
)

const (
	indexFile       = "index.gob"
	blobSuffix      = ".decl"
	defaultMemSlots = 512
)

type Cache struct {
	dir    string
	logger *slog.Logger

	mu     sync.RWMutex
	hashes map[graph.FileIdentity]string

	mem *lru.Cache[graph.FileIdentity, *ir.FileDeclaration]
}

// New builds a cache rooted at dir. memEntries bounds the in-memory layer;
// zero or negative selects the default.
func New(dir string, memEntries int, logger *slog.Logger) (*Cache, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache directory must not be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if memEntries <= 0 {
		memEntries = defaultMemSlots
	}
	mem, err := lru.New[graph.FileIdentity, *ir.FileDeclaration](memEntries)
	if err != nil {
		return nil, fmt.Errorf("create cache memory layer: %w", err)
	}
	return &Cache{
		dir:    dir,
		logger: logger,
		hashes: make(map[graph.FileIdentity]string),
		mem:    mem,
	}, nil
}

// Initialize ensures the cache directory exists and loads the hash index.
// A missing or unreadable index starts empty; everything re-extracts once.
func (c *Cache) Initialize() error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create cache directory %q: %w", c.dir, err)
	}

	f, err := os.Open(filepath.Join(c.dir, indexFile))
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Warn("cache index unreadable, starting cold", "error", err)
		}
		return nil
	}
	defer f.Close()

	loaded := make(map[graph.FileIdentity]string)
	if err := gob.NewDecoder(f).Decode(&loaded); err != nil {
		c.logger.Warn("cache index corrupt, starting cold", "error", err)
		return nil
	}

	c.mu.Lock()
	c.hashes = loaded
	c.mu.Unlock()
	return nil
}

// HashOf returns the recorded content hash for file, if any.
func (c *Cache) HashOf(file graph.FileIdentity) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h, ok := c.hashes[file]
	return h, ok
}

func (c *Cache) SetHash(file graph.FileIdentity, hash string) {
	c.mu.Lock()
	c.hashes[file] = hash
	c.mu.Unlock()
}

// Forget drops the hash and memory entry for a deleted file. The on-disk
// blob is removed best-effort.
func (c *Cache) Forget(file graph.FileIdentity) {
	c.mu.Lock()
	delete(c.hashes, file)
	c.mu.Unlock()
	c.mem.Remove(file)
	_ = os.Remove(c.blobPath(file))
}

// Declaration loads the cached FileDeclaration for file. Any failure is a
// miss.
func (c *Cache) Declaration(file graph.FileIdentity) (*ir.FileDeclaration, bool) {
	if decl, ok := c.mem.Get(file); ok {
		observability.CacheHits.Inc()
		return decl, true
	}

	f, err := os.Open(c.blobPath(file))
	if err != nil {
		observability.CacheMisses.Inc()
		return nil, false
	}
	defer f.Close()

	var decl ir.FileDeclaration
	if err := gob.NewDecoder(f).Decode(&decl); err != nil {
		c.logger.Warn("cache blob corrupt", "file", file, "error", err)
		observability.CacheMisses.Inc()
		return nil, false
	}

	c.mem.Add(file, &decl)
	observability.CacheHits.Inc()
	return &decl, true
}

// SaveDeclaration persists decl for file: write to a temp file in the same
// directory, then rename. After a successful save, Declaration returns a
// deep-equal tree in this or a later process.
func (c *Cache) SaveDeclaration(file graph.FileIdentity, decl *ir.FileDeclaration) error {
	if decl == nil {
		return fmt.Errorf("nil declaration for %s", file)
	}

	target := c.blobPath(file)
	tmp, err := os.CreateTemp(c.dir, "decl-*")
	if err != nil {
		return fmt.Errorf("create cache temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(decl); err != nil {
		tmp.Close()
		return fmt.Errorf("encode declaration %s: %w", file, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("flush declaration %s: %w", file, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("commit declaration %s: %w", file, err)
	}

	c.mem.Add(file, decl)
	return nil
}

// SaveAll persists a batch of declarations plus the hash index. Per-file
// failures are logged and counted without blocking the rest of the batch.
func (c *Cache) SaveAll(decls map[graph.FileIdentity]*ir.FileDeclaration) {
	for file, decl := range decls {
		if err := c.SaveDeclaration(file, decl); err != nil {
			c.logger.Warn("cache write failed", "file", file, "error", err)
			observability.CacheWriteErrors.Inc()
		}
	}
	if err := c.writeIndex(); err != nil {
		c.logger.Warn("cache index write failed", "error", err)
		observability.CacheWriteErrors.Inc()
	}
}

func (c *Cache) writeIndex() error {
	c.mu.RLock()
	snapshot := make(map[graph.FileIdentity]string, len(c.hashes))
	for k, v := range c.hashes {
		snapshot[k] = v
	}
	c.mu.RUnlock()

	tmp, err := os.CreateTemp(c.dir, "index-*")
	if err != nil {
		return fmt.Errorf("create index temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(snapshot); err != nil {
		tmp.Close()
		return fmt.Errorf("encode hash index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("flush hash index: %w", err)
	}
	return os.Rename(tmp.Name(), filepath.Join(c.dir, indexFile))
}

// blobPath names the on-disk blob by a stable hash of the file identity,
// so path separators and length never leak into filenames.
func (c *Cache) blobPath(file graph.FileIdentity) string {
	return filepath.Join(c.dir, IdentityHash(file)+blobSuffix)
}
