package repository

import (
	"time"

	"jeonsevault-wallet/internal/domain/entity"
)

// QueryStore holds completed query entries for the query cache.
type QueryStore interface {
	// Get returns the entry stored under key, if present and not expired.
	Get(key string) (entity.QueryEntry, bool)

	// Set stores an entry. A zero ttl uses the store default; a negative ttl never expires.
	Set(key string, entry entity.QueryEntry, ttl time.Duration)

	// Delete removes an entry.
	Delete(key string)

	// DeletePrefix removes every entry whose key starts with prefix and returns the keys removed.
	DeletePrefix(prefix string) []string

	// Count returns the number of stored entries, including expired ones not yet cleaned up.
	Count() int
}
