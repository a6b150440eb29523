package memory

import (
	"fmt"
	"strings"
	"time"

	"jeonsevault-wallet/internal/config"
	"jeonsevault-wallet/internal/domain/entity"
	domainRepo "jeonsevault-wallet/internal/domain/repository"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Compile-time check
var _ domainRepo.QueryStore = (*QueryStore)(nil)

// QueryStore implements domainRepo.QueryStore using the go-cache in-memory library.
type QueryStore struct {
	cache  *cache.Cache
	logger *zap.Logger
}

// NewQueryStore creates a new in-memory query store. A non-positive stale time keeps
// entries for the lifetime of the store.
func NewQueryStore(cfg config.QueryConfig, logger *zap.Logger) *QueryStore {
	defaultExpiration := cfg.GetStaleTime()
	if defaultExpiration <= 0 {
		defaultExpiration = cache.NoExpiration
	}
	cleanupInterval := cfg.GetCleanupInterval()

	c := cache.New(defaultExpiration, cleanupInterval)
	logger.Info(
		"Initialized go-cache for query storage",
		zap.Duration("defaultExpiration", defaultExpiration),
		zap.Duration("cleanupInterval", cleanupInterval),
	)

	return &QueryStore{
		cache:  c,
		logger: logger.Named("MemoryQueryStore"),
	}
}

// Get retrieves a stored query entry.
func (s *QueryStore) Get(key string) (entity.QueryEntry, bool) {
	if x, found := s.cache.Get(key); found {
		if entry, ok := x.(entity.QueryEntry); ok {
			s.logger.Debug("Memory cache hit", zap.String("key", key))
			return entry, true
		}
		s.logger.Warn(
			"Memory cache data type mismatch for key",
			zap.String("key", key),
			zap.String("type", fmt.Sprintf("%T", x)),
		)
	}
	s.logger.Debug("Memory cache miss", zap.String("key", key))
	return entity.QueryEntry{}, false
}

// Set stores a query entry. ttl == 0 uses the default expiration, ttl < 0 never expires.
func (s *QueryStore) Set(key string, entry entity.QueryEntry, ttl time.Duration) {
	switch {
	case ttl == 0:
		ttl = cache.DefaultExpiration
	case ttl < 0:
		ttl = cache.NoExpiration
	}
	s.cache.Set(key, entry, ttl)
	s.logger.Debug("Memory cache set", zap.String("key", key), zap.Duration("ttl", ttl))
}

// Delete removes a single entry.
func (s *QueryStore) Delete(key string) {
	s.cache.Delete(key)
	s.logger.Debug("Memory cache delete", zap.String("key", key))
}

// DeletePrefix removes every entry whose key starts with prefix.
func (s *QueryStore) DeletePrefix(prefix string) []string {
	var removed []string
	for key := range s.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			s.cache.Delete(key)
			removed = append(removed, key)
		}
	}
	s.logger.Debug("Memory cache prefix delete", zap.String("prefix", prefix), zap.Int("count", len(removed)))
	return removed
}

// Count returns the number of stored entries.
func (s *QueryStore) Count() int {
	return s.cache.ItemCount()
}
