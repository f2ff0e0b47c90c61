package cache

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/algoinsight/trace-router/pkg/observability/logging"
	"github.com/algoinsight/trace-router/pkg/tracedoc"
)

const metadataFileName = "metadata.json"

// durableMeta is the per-key record in the metadata index. The index, not
// the filesystem, is authoritative for TTL checks.
type durableMeta struct {
	CreatedAt int64 `json:"created_at"`
	TTL       int64 `json:"ttl"` // seconds, 0 = never expires
	Size      int64 `json:"size"`
}

// DurableCache is an on-disk key/value store that survives restarts.
// Each entry is a gzip-compressed JSON document in a subdirectory sharded
// by key prefix; writes go to a temporary path and are renamed into place
// so a crash mid-write never corrupts an existing entry. All failures
// degrade to a miss on read and a false return on write.
type DurableCache struct {
	mu       sync.Mutex
	dir      string
	compress bool
	metadata map[string]durableMeta

	now func() time.Time
}

// DurableStats holds usage statistics for a DurableCache.
type DurableStats struct {
	Entries        int    `json:"entries"`
	TotalSizeBytes int64  `json:"total_size_bytes"`
	Dir            string `json:"dir"`
	Compressed     bool   `json:"compressed"`
}

// NewDurableCache opens (or creates) a durable cache rooted at dir and
// loads its metadata index. A missing or unreadable index starts empty;
// that is a cold start, not an error.
func NewDurableCache(dir string) (*DurableCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	c := &DurableCache{
		dir:      dir,
		compress: true,
		metadata: make(map[string]durableMeta),
		now:      time.Now,
	}
	c.loadMetadata()
	return c, nil
}

func (c *DurableCache) loadMetadata() {
	raw, err := os.ReadFile(filepath.Join(c.dir, metadataFileName))
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Warnf("DurableCache: failed to load metadata index: %v", err)
		}
		return
	}
	if err := json.Unmarshal(raw, &c.metadata); err != nil {
		logging.Warnf("DurableCache: corrupt metadata index, starting cold: %v", err)
		c.metadata = make(map[string]durableMeta)
	}
}

// saveMetadata rewrites the whole index. Caller must hold the lock.
// Under heavy concurrent write load this is the throughput bottleneck;
// writes are orders of magnitude rarer than reads once the cache is warm.
func (c *DurableCache) saveMetadata() {
	raw, err := json.Marshal(c.metadata)
	if err != nil {
		logging.Errorf("DurableCache: failed to encode metadata index: %v", err)
		return
	}
	tmp := filepath.Join(c.dir, metadataFileName+".tmp")
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		logging.Errorf("DurableCache: failed to write metadata index: %v", err)
		return
	}
	if err := os.Rename(tmp, filepath.Join(c.dir, metadataFileName)); err != nil {
		logging.Errorf("DurableCache: failed to replace metadata index: %v", err)
	}
}

// filePath shards entries into subdirectories by the first two characters
// of the sanitized key to bound directory size.
func (c *DurableCache) filePath(key string) string {
	safe := strings.NewReplacer(":", "_", "/", "_").Replace(key)
	subdir := "00"
	if len(safe) >= 2 {
		subdir = safe[:2]
	}
	ext := ".json"
	if c.compress {
		ext = ".json.gz"
	}
	return filepath.Join(c.dir, subdir, safe+ext)
}

func (c *DurableCache) expiredLocked(key string) bool {
	meta, ok := c.metadata[key]
	if !ok || meta.TTL <= 0 {
		return false
	}
	return c.now().Unix()-meta.CreatedAt > meta.TTL
}

// Get returns the stored value for key, or false on absence, expiry, or
// any read failure.
func (c *DurableCache) Get(key string) (tracedoc.Document, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.expiredLocked(key) {
		c.deleteLocked(key)
		return nil, false
	}

	path := c.filePath(key)
	f, err := os.Open(path)
	if err != nil {
		return nil, false
	}
	defer f.Close()

	var reader io.Reader = f
	if c.compress {
		gz, err := gzip.NewReader(f)
		if err != nil {
			logging.Errorf("DurableCache: failed to open %s: %v", truncateKey(key, 20), err)
			return nil, false
		}
		defer gz.Close()
		reader = gz
	}

	var value tracedoc.Document
	if err := json.NewDecoder(reader).Decode(&value); err != nil {
		logging.Errorf("DurableCache: failed to decode %s: %v", truncateKey(key, 20), err)
		return nil, false
	}
	return value, true
}

// Set stores value under key with the given TTL, returning false on any
// I/O or serialization failure.
func (c *DurableCache) Set(key string, value tracedoc.Document, ttl time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	path := c.filePath(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		logging.Errorf("DurableCache: failed to create shard dir for %s: %v", truncateKey(key, 20), err)
		return false
	}

	tmp := path + ".tmp"
	if !c.writeFile(tmp, value) {
		os.Remove(tmp)
		return false
	}
	if err := os.Rename(tmp, path); err != nil {
		logging.Errorf("DurableCache: failed to finalize %s: %v", truncateKey(key, 20), err)
		os.Remove(tmp)
		return false
	}

	var size int64
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}
	c.metadata[key] = durableMeta{
		CreatedAt: c.now().Unix(),
		TTL:       int64(ttl / time.Second),
		Size:      size,
	}
	c.saveMetadata()
	return true
}

func (c *DurableCache) writeFile(path string, value tracedoc.Document) bool {
	f, err := os.Create(path)
	if err != nil {
		logging.Errorf("DurableCache: failed to create temp file: %v", err)
		return false
	}

	var writer io.Writer = f
	var gz *gzip.Writer
	if c.compress {
		gz = gzip.NewWriter(f)
		writer = gz
	}

	encodeErr := json.NewEncoder(writer).Encode(value)
	if gz != nil {
		if err := gz.Close(); err != nil && encodeErr == nil {
			encodeErr = err
		}
	}
	if err := f.Close(); err != nil && encodeErr == nil {
		encodeErr = err
	}
	if encodeErr != nil {
		logging.Errorf("DurableCache: failed to write entry: %v", encodeErr)
		return false
	}
	return true
}

// Delete removes key from disk and the index, reporting whether a data
// file was removed.
func (c *DurableCache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deleteLocked(key)
}

func (c *DurableCache) deleteLocked(key string) bool {
	if _, ok := c.metadata[key]; ok {
		delete(c.metadata, key)
		c.saveMetadata()
	}

	path := c.filePath(key)
	if err := os.Remove(path); err != nil {
		if !os.IsNotExist(err) {
			logging.Errorf("DurableCache: failed to delete %s: %v", truncateKey(key, 20), err)
		}
		return false
	}
	return true
}

// Exists reports whether key has an unexpired entry on disk.
func (c *DurableCache) Exists(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.expiredLocked(key) {
		c.deleteLocked(key)
		return false
	}
	_, err := os.Stat(c.filePath(key))
	return err == nil
}

// SweepExpired removes all entries whose TTL has elapsed per the metadata
// index and returns the count removed.
func (c *DurableCache) SweepExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expired []string
	for key := range c.metadata {
		if c.expiredLocked(key) {
			expired = append(expired, key)
		}
	}
	for _, key := range expired {
		c.deleteLocked(key)
	}
	return len(expired)
}

// Clear removes every entry, returning the count deleted.
func (c *DurableCache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for key := range c.metadata {
		if c.deleteLocked(key) {
			count++
		}
	}
	return count
}

// Stats returns a snapshot of the durable cache's footprint.
func (c *DurableCache) Stats() DurableStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var total int64
	for _, meta := range c.metadata {
		total += meta.Size
	}
	return DurableStats{
		Entries:        len(c.metadata),
		TotalSizeBytes: total,
		Dir:            c.dir,
		Compressed:     c.compress,
	}
}
