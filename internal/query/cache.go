// Package query caches and deduplicates asynchronous data requests.
//
// Every operation gets a generation from a cache-wide counter and is tracked as the current
// call of its key while it runs. Starting a refetch or invalidating a key detaches the
// current call, and an operation only writes its result while it is still the current
// call, so a slow superseded response can never overwrite a newer one. Nothing is kept per
// key once its call has finished; stored results are bounded by the store's expiry.
package query

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"jeonsevault-wallet/internal/config"
	"jeonsevault-wallet/internal/domain"
	"jeonsevault-wallet/internal/domain/entity"
	"jeonsevault-wallet/internal/domain/repository"
	"jeonsevault-wallet/internal/metrics"
)

// Func performs the data fetch for one query. ctx is cancelled when every caller waiting
// on the operation has gone away.
type Func func(ctx context.Context) (any, error)

// FetchError reports a failed query. errors.Is matches both domain.ErrFetchFailed and
// the underlying cause.
type FetchError struct {
	Key string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s: %v", domain.ErrFetchFailed, e.Key, e.Err)
}

func (e *FetchError) Unwrap() []error {
	return []error{domain.ErrFetchFailed, e.Err}
}

type call struct {
	key       string
	scope     string
	gen       uint64
	done      chan struct{}
	cancel    context.CancelFunc
	waiters   int
	abandoned bool

	value any
	err   error
}

// Cache is a per-provider query cache. It is safe for concurrent use.
type Cache struct {
	store    repository.QueryStore
	recorder metrics.Recorder
	logger   *zap.Logger
	errorTTL time.Duration

	root     context.Context
	shutdown context.CancelFunc

	mu       sync.Mutex
	seq      uint64
	inflight map[string]*call
}

// NewCache creates a cache backed by store.
func NewCache(store repository.QueryStore, cfg config.QueryConfig, recorder metrics.Recorder, logger *zap.Logger) *Cache {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	errorTTL := cfg.GetErrorTTL()
	if errorTTL <= 0 {
		// a zero ttl would mean "store default" and keep failures as long as values
		errorTTL = time.Nanosecond
	}
	root, shutdown := context.WithCancel(context.Background())
	return &Cache{
		store:    store,
		recorder: recorder,
		logger:   logger.Named("QueryCache"),
		errorTTL: errorTTL,
		root:     root,
		shutdown: shutdown,
		inflight: make(map[string]*call),
	}
}

// Fetch returns the cached result for desc, joins an operation already in flight for the
// same key, or starts fn. A stored result is not served while a refetch of its key runs.
func (c *Cache) Fetch(ctx context.Context, desc entity.QueryDescriptor, fn Func) (any, error) {
	key := desc.Key()
	labels := map[string]string{"scope": desc.Scope}

	c.mu.Lock()
	cl, running := c.inflight[key]
	if !running {
		if entry, ok := c.store.Get(key); ok {
			c.mu.Unlock()
			c.recorder.IncCounter(metrics.QueryHit, labels)
			return entry.Value, entry.Err
		}
	}
	if running {
		cl.waiters++
		c.mu.Unlock()
		c.recorder.IncCounter(metrics.QueryDedup, labels)
		c.logger.Debug("Joined in-flight query", zap.String("key", key), zap.Uint64("generation", cl.gen))
		return c.wait(ctx, cl)
	}
	cl = c.startLocked(key, desc.Scope, fn)
	c.mu.Unlock()

	c.recorder.IncCounter(metrics.QueryMiss, labels)
	return c.wait(ctx, cl)
}

// Refetch ignores the stored result and starts fn under a new generation. An operation
// already in flight for the key keeps serving its own callers but can no longer write.
func (c *Cache) Refetch(ctx context.Context, desc entity.QueryDescriptor, fn Func) (any, error) {
	key := desc.Key()

	c.mu.Lock()
	if prev, ok := c.inflight[key]; ok {
		c.recorder.IncCounter(metrics.QuerySuperseded, map[string]string{"scope": desc.Scope})
		c.logger.Debug("Superseding in-flight query", zap.String("key", key), zap.Uint64("generation", prev.gen))
	}
	cl := c.startLocked(key, desc.Scope, fn)
	c.mu.Unlock()

	return c.wait(ctx, cl)
}

// Invalidate drops the stored result for desc. Operations in flight for the key are
// detached and their results discarded.
func (c *Cache) Invalidate(desc entity.QueryDescriptor) {
	key := desc.Key()

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, key)
	c.store.Delete(key)
	c.logger.Debug("Invalidated query", zap.String("key", key))
}

// InvalidateScope drops every result of a scope and returns how many keys were affected.
func (c *Cache) InvalidateScope(scope string) int {
	return c.invalidatePrefix(entity.ScopePrefix(scope), "")
}

// InvalidateChain drops every result of a scope on one chain.
func (c *Cache) InvalidateChain(scope string, chainID int64) int {
	base := entity.QueryDescriptor{Scope: scope, ChainID: chainID}.Key()
	return c.invalidatePrefix(base+":", base)
}

func (c *Cache) invalidatePrefix(prefix, exact string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	affected := make(map[string]struct{})
	for key := range c.inflight {
		if key == exact || strings.HasPrefix(key, prefix) {
			delete(c.inflight, key)
			affected[key] = struct{}{}
		}
	}
	for _, key := range c.store.DeletePrefix(prefix) {
		affected[key] = struct{}{}
	}
	if exact != "" {
		if _, ok := c.store.Get(exact); ok {
			affected[exact] = struct{}{}
		}
		c.store.Delete(exact)
	}

	c.logger.Debug("Invalidated queries", zap.String("prefix", prefix), zap.Int("count", len(affected)))
	return len(affected)
}

// Peek returns the stored entry for desc without starting anything.
func (c *Cache) Peek(desc entity.QueryDescriptor) (entity.QueryEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Get(desc.Key())
}

// InFlight returns the number of keys with a running operation.
func (c *Cache) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inflight)
}

// Close cancels every running operation.
func (c *Cache) Close() {
	c.shutdown()
}

func (c *Cache) startLocked(key, scope string, fn Func) *call {
	c.seq++
	opCtx, cancel := context.WithCancel(c.root)
	cl := &call{
		key:     key,
		scope:   scope,
		gen:     c.seq,
		done:    make(chan struct{}),
		cancel:  cancel,
		waiters: 1,
	}
	c.inflight[key] = cl

	go c.run(opCtx, cl, fn)
	return cl
}

func (c *Cache) run(ctx context.Context, cl *call, fn Func) {
	labels := map[string]string{"scope": cl.scope}
	start := time.Now()
	value, err := fn(ctx)
	c.recorder.ObserveLatency(metrics.QueryFetch, time.Since(start), labels)
	if err != nil {
		err = &FetchError{Key: cl.key, Err: err}
	}

	c.mu.Lock()
	cl.value, cl.err = value, err
	current := c.inflight[cl.key] == cl
	if current {
		delete(c.inflight, cl.key)
	}
	switch {
	case cl.abandoned:
		c.logger.Debug("Discarding abandoned query result", zap.String("key", cl.key))
	case !current:
		c.recorder.IncCounter(metrics.QuerySuperseded, labels)
		c.logger.Debug("Discarding superseded query result",
			zap.String("key", cl.key),
			zap.Uint64("generation", cl.gen),
		)
	default:
		var ttl time.Duration
		if err != nil {
			ttl = c.errorTTL
		}
		c.store.Set(cl.key, entity.QueryEntry{
			Value:      value,
			Err:        err,
			Generation: cl.gen,
			UpdatedAt:  time.Now(),
		}, ttl)
	}
	c.mu.Unlock()

	if err != nil {
		c.recorder.IncCounter(metrics.QueryFailed, labels)
		c.logger.Warn("Query failed", zap.String("key", cl.key), zap.Error(err))
	}

	cl.cancel()
	close(cl.done)
}

func (c *Cache) wait(ctx context.Context, cl *call) (any, error) {
	select {
	case <-cl.done:
		return cl.value, cl.err
	case <-ctx.Done():
	}

	c.mu.Lock()
	cl.waiters--
	last := cl.waiters == 0
	if last {
		cl.abandoned = true
		if c.inflight[cl.key] == cl {
			delete(c.inflight, cl.key)
		}
	}
	c.mu.Unlock()

	if last {
		cl.cancel()
		c.recorder.IncCounter(metrics.QueryAbandoned, map[string]string{"scope": cl.scope})
		c.logger.Debug("Query abandoned by every caller", zap.String("key", cl.key))
	}
	return nil, ctx.Err()
}
