package entity

import (
	"strconv"
	"strings"
	"time"
)

// QueryDescriptor identifies an asynchronous data request for caching and deduplication.
type QueryDescriptor struct {
	Scope   string
	ChainID int64
	Params  []string
}

// Key returns the normalized cache key. Params are trimmed and lower-cased so that
// equivalent requests (e.g. checksummed vs lower-case addresses) collapse.
func (d QueryDescriptor) Key() string {
	var b strings.Builder
	b.WriteString(strings.ToLower(strings.TrimSpace(d.Scope)))
	b.WriteByte(':')
	b.WriteString(strconv.FormatInt(d.ChainID, 10))
	for _, p := range d.Params {
		b.WriteByte(':')
		b.WriteString(strings.ToLower(strings.TrimSpace(p)))
	}
	return b.String()
}

// ScopePrefix returns the key prefix shared by every descriptor of a scope.
func ScopePrefix(scope string) string {
	return strings.ToLower(strings.TrimSpace(scope)) + ":"
}

// QueryEntry is the stored outcome of a completed query.
type QueryEntry struct {
	Value      any
	Err        error
	Generation uint64
	UpdatedAt  time.Time
}
