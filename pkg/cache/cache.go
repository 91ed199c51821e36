// Package cache stores resolved function metadata with a TTL and maintains a
// reverse term index for keyword search.
package cache

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/ignitionstack/rfcbridge/internal/repository"
	apperrors "github.com/ignitionstack/rfcbridge/pkg/errors"
	"github.com/ignitionstack/rfcbridge/pkg/metadata"
	"go.uber.org/zap"
)

// DefaultTTL is used when a non-positive TTL is configured.
const DefaultTTL = 24 * time.Hour

const (
	metaPrefix = "meta:"
	termPrefix = "term:"
)

// Entry is one persisted cache record.
type Entry struct {
	Name     string                     `json:"func_name"`
	Metadata *metadata.FunctionMetadata `json:"metadata"`
	CachedAt time.Time                  `json:"cached_at"`
	Seq      int64                      `json:"seq"`
}

// Stats summarizes the cache contents.
type Stats struct {
	Total                int   `json:"total_cached_functions"`
	Valid                int   `json:"valid_cached_functions"`
	Expired              int   `json:"expired_functions"`
	IndexTerms           int   `json:"search_terms"`
	ApproximateSizeBytes int64 `json:"approximate_size_bytes"`
}

// Cache is a TTL-bounded metadata store. All reads are served from memory;
// every mutation is written through to the repository.
type Cache struct {
	mu      sync.RWMutex
	repo    repository.DBRepository
	logger  *zap.Logger
	ttl     time.Duration
	now     func() time.Time
	entries map[string]*Entry
	index   searchIndex
	seq     int64
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New loads the cache from repo. Undecodable records are dropped and an
// inconsistent term index is rebuilt; neither is fatal.
func New(repo repository.DBRepository, ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		repo:    repo,
		logger:  zap.NewNop(),
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*Entry),
		index:   make(searchIndex),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.load()
	return c
}

// TTL returns the configured time-to-live.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns a copy of the cached metadata for name if it has not expired.
// Expired entries are deleted.
func (c *Cache) Get(name string) (*metadata.FunctionMetadata, bool) {
	c.mu.RLock()
	entry, ok := c.entries[name]
	if !ok {
		c.mu.RUnlock()
		return nil, false
	}
	if c.isValid(entry) {
		md := entry.Metadata.Clone()
		c.mu.RUnlock()
		c.logger.Debug("cache hit", zap.String("function", name))
		return md, true
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	// Another writer may have refreshed or removed it in between.
	if entry, ok := c.entries[name]; ok && !c.isValid(entry) {
		c.logger.Debug("cache entry expired", zap.String("function", name))
		c.deleteLocked(name)
	} else if ok {
		return entry.Metadata.Clone(), true
	}
	return nil, false
}

// Put stores md under name with the current time, replacing any previous
// entry, and updates the term index.
func (c *Cache) Put(name string, md *metadata.FunctionMetadata) {
	if md == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry := &Entry{
		Name:     name,
		Metadata: md.Clone(),
		CachedAt: c.now(),
	}

	var oldTerms termSet
	if previous, ok := c.entries[name]; ok {
		entry.Seq = previous.Seq
		oldTerms = termsFor(previous.Name, previous.Metadata)
	} else {
		c.seq++
		entry.Seq = c.seq
	}
	newTerms := termsFor(name, entry.Metadata)

	c.entries[name] = entry
	touched := c.index.replace(name, oldTerms, newTerms)

	if err := c.persist(entry, touched); err != nil {
		c.logIOError("failed to persist cache entry", name, err)
	}
	c.logger.Debug("cached function metadata", zap.String("function", name))
}

// PurgeExpired removes every expired entry and returns how many were removed.
func (c *Cache) PurgeExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for name, entry := range c.entries {
		if !c.isValid(entry) {
			c.deleteLocked(name)
			removed++
		}
	}
	if removed > 0 {
		c.logger.Info("removed expired cache entries", zap.Int("count", removed))
	}
	return removed
}

// Stats returns counts and an approximate storage size.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := Stats{Total: len(c.entries), IndexTerms: len(c.index)}
	var encoded int64
	for _, entry := range c.entries {
		if c.isValid(entry) {
			stats.Valid++
		}
		if data, err := json.Marshal(entry); err == nil {
			encoded += int64(len(data))
		}
	}
	for term, names := range c.index {
		encoded += int64(len(term) + len(names.sorted())*8)
	}
	stats.Expired = stats.Total - stats.Valid

	stats.ApproximateSizeBytes = encoded
	if size := c.repo.Size(); size > encoded {
		stats.ApproximateSizeBytes = size
	}
	return stats
}

// Close closes the underlying repository.
func (c *Cache) Close() error {
	return c.repo.Close()
}

func (c *Cache) isValid(entry *Entry) bool {
	return c.now().Sub(entry.CachedAt) < c.ttl
}

// deleteLocked removes name from memory, index and store. c.mu must be held.
func (c *Cache) deleteLocked(name string) {
	entry, ok := c.entries[name]
	if !ok {
		return
	}
	delete(c.entries, name)
	touched := c.index.replace(name, termsFor(entry.Name, entry.Metadata), nil)

	err := c.repo.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(metaKey(name)); err != nil {
			return err
		}
		return c.writeTerms(txn, touched)
	})
	if err != nil {
		c.logIOError("failed to delete cache entry", name, err)
	}
}

func (c *Cache) persist(entry *Entry, touched []string) error {
	val, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}
	return c.repo.Update(func(txn *badger.Txn) error {
		if err := txn.Set(metaKey(entry.Name), val); err != nil {
			return fmt.Errorf("failed to write entry: %w", err)
		}
		return c.writeTerms(txn, touched)
	})
}

// writeTerms stores the current name list of each touched term, deleting
// terms that no longer reference any function.
func (c *Cache) writeTerms(txn *badger.Txn, terms []string) error {
	for _, term := range terms {
		names, ok := c.index[term]
		if !ok {
			if err := txn.Delete(termKey(term)); err != nil {
				return fmt.Errorf("failed to delete term %q: %w", term, err)
			}
			continue
		}
		val, err := json.Marshal(names.sorted())
		if err != nil {
			return fmt.Errorf("failed to marshal term %q: %w", term, err)
		}
		if err := txn.Set(termKey(term), val); err != nil {
			return fmt.Errorf("failed to write term %q: %w", term, err)
		}
	}
	return nil
}

func (c *Cache) load() {
	stored := make(searchIndex)
	var corrupt [][]byte

	err := c.repo.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(metaPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := item.KeyCopy(nil)
			err := item.Value(func(val []byte) error {
				var entry Entry
				if err := json.Unmarshal(val, &entry); err != nil || entry.Metadata == nil {
					corrupt = append(corrupt, key)
					return nil
				}
				entry.Name = strings.TrimPrefix(string(key), metaPrefix)
				c.entries[entry.Name] = &entry
				if entry.Seq > c.seq {
					c.seq = entry.Seq
				}
				return nil
			})
			if err != nil {
				return err
			}
		}

		prefix = []byte(termPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			term := strings.TrimPrefix(string(item.Key()), termPrefix)
			err := item.Value(func(val []byte) error {
				var names []string
				if err := json.Unmarshal(val, &names); err != nil {
					return nil
				}
				for _, name := range names {
					stored.add(term, name)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.logIOError("failed to load cache, starting empty", "", err)
		c.entries = make(map[string]*Entry)
		c.seq = 0
	}

	for _, entry := range c.entries {
		for term := range termsFor(entry.Name, entry.Metadata) {
			c.index.add(term, entry.Name)
		}
	}

	if len(corrupt) > 0 {
		c.logger.Warn("dropping undecodable cache entries", zap.Int("count", len(corrupt)))
		if err := c.repo.Update(func(txn *badger.Txn) error {
			for _, key := range corrupt {
				if err := txn.Delete(key); err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
			c.logIOError("failed to drop undecodable entries", "", err)
		}
	}

	if !c.index.equal(stored) {
		c.logger.Info("rebuilding search index", zap.Int("terms", len(c.index)))
		c.rebuildStoredIndex()
	}
}

func (c *Cache) rebuildStoredIndex() {
	if err := c.repo.DropPrefix([]byte(termPrefix)); err != nil {
		c.logIOError("failed to drop stale search index", "", err)
		return
	}
	err := c.repo.Update(func(txn *badger.Txn) error {
		return c.writeTerms(txn, c.index.terms())
	})
	if err != nil {
		c.logIOError("failed to write search index", "", err)
	}
}

func (c *Cache) logIOError(message, name string, err error) {
	fields := []zap.Field{zap.Error(apperrors.Wrap(apperrors.KindCacheIO, message, err))}
	if name != "" {
		fields = append(fields, zap.String("function", name))
	}
	c.logger.Error(message, fields...)
}

func metaKey(name string) []byte {
	return []byte(metaPrefix + name)
}

func termKey(term string) []byte {
	return []byte(termPrefix + term)
}
