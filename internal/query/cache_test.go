package query

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jeonsevault-wallet/internal/adapter/storage/memory"
	"jeonsevault-wallet/internal/config"
	"jeonsevault-wallet/internal/domain"
	"jeonsevault-wallet/internal/domain/entity"
)

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (r *countingRecorder) IncCounter(name string, _ map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = make(map[string]int)
	}
	r.counts[name]++
}

func (r *countingRecorder) ObserveLatency(string, time.Duration, map[string]string) {}

func (r *countingRecorder) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[name]
}

func newCache(t *testing.T, staleTime time.Duration) (*Cache, *countingRecorder) {
	t.Helper()
	cfg := config.QueryConfig{StaleTime: staleTime, ErrorTTL: time.Minute, CleanupInterval: time.Minute}
	rec := &countingRecorder{}
	c := NewCache(memory.NewQueryStore(cfg, zap.NewNop()), cfg, rec, zap.NewNop())
	t.Cleanup(c.Close)
	return c, rec
}

var balanceDesc = entity.QueryDescriptor{Scope: "balance", ChainID: 1, Params: []string{"0xAbC"}}

func TestCache_FetchDeduplicates(t *testing.T) {
	c, rec := newCache(t, time.Minute)
	release := make(chan struct{})
	var calls atomic.Int32

	fn := func(ctx context.Context) (any, error) {
		calls.Add(1)
		<-release
		return "42", nil
	}

	const callers = 8
	results := make([]any, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.Fetch(context.Background(), balanceDesc, fn)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	require.Eventually(t, func() bool {
		return rec.count("query_dedup") == callers-1
	}, time.Second, 5*time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, v := range results {
		assert.Equal(t, "42", v)
	}
	assert.Equal(t, 0, c.InFlight())
}

func TestCache_FetchHitsStoredValue(t *testing.T) {
	c, rec := newCache(t, time.Minute)
	var calls atomic.Int32
	fn := func(ctx context.Context) (any, error) {
		calls.Add(1)
		return uint64(7), nil
	}

	_, err := c.Fetch(context.Background(), balanceDesc, fn)
	require.NoError(t, err)

	// keys are normalized, so a differently cased address hits the same entry
	v, err := c.Fetch(context.Background(), entity.QueryDescriptor{Scope: "balance", ChainID: 1, Params: []string{"0xabc"}}, fn)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), v)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, rec.count("query_hit"))
}

func TestCache_SupersededResultIsNotWritten(t *testing.T) {
	c, rec := newCache(t, time.Minute)
	releaseOld := make(chan struct{})
	oldDone := make(chan any, 1)

	go func() {
		v, _ := c.Fetch(context.Background(), balanceDesc, func(ctx context.Context) (any, error) {
			<-releaseOld
			return "old", nil
		})
		oldDone <- v
	}()
	require.Eventually(t, func() bool { return c.InFlight() == 1 }, time.Second, 5*time.Millisecond)

	v, err := c.Refetch(context.Background(), balanceDesc, func(ctx context.Context) (any, error) {
		return "new", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "new", v)

	close(releaseOld)
	assert.Equal(t, "old", <-oldDone)

	entry, ok := c.Peek(balanceDesc)
	require.True(t, ok)
	assert.Equal(t, "new", entry.Value)
	assert.GreaterOrEqual(t, rec.count("query_superseded"), 1)
}

func TestCache_InvalidateDuringFlight(t *testing.T) {
	c, _ := newCache(t, time.Minute)
	release := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		v, err := c.Fetch(context.Background(), balanceDesc, func(ctx context.Context) (any, error) {
			<-release
			return "stale", nil
		})
		assert.NoError(t, err)
		assert.Equal(t, "stale", v)
	}()
	require.Eventually(t, func() bool { return c.InFlight() == 1 }, time.Second, 5*time.Millisecond)

	c.Invalidate(balanceDesc)
	assert.Equal(t, 0, c.InFlight())
	close(release)
	<-done

	_, ok := c.Peek(balanceDesc)
	assert.False(t, ok)

	var calls atomic.Int32
	v, err := c.Fetch(context.Background(), balanceDesc, func(ctx context.Context) (any, error) {
		calls.Add(1)
		return "fresh", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCache_FailureIsFetchError(t *testing.T) {
	c, rec := newCache(t, time.Minute)
	boom := errors.New("node unreachable")
	var calls atomic.Int32
	fn := func(ctx context.Context) (any, error) {
		calls.Add(1)
		return nil, boom
	}

	_, err := c.Fetch(context.Background(), balanceDesc, fn)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrFetchFailed))
	assert.True(t, errors.Is(err, boom))

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, balanceDesc.Key(), fe.Key)

	// the failure is retained, not retried
	_, err = c.Fetch(context.Background(), balanceDesc, fn)
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, rec.count("query_failed"))
}

func TestCache_AbandonedWhenLastCallerLeaves(t *testing.T) {
	c, rec := newCache(t, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	opCancelled := make(chan struct{})

	go func() {
		assert.Eventually(t, func() bool { return c.InFlight() == 1 }, time.Second, 5*time.Millisecond)
		cancel()
	}()

	_, err := c.Fetch(ctx, balanceDesc, func(opCtx context.Context) (any, error) {
		<-opCtx.Done()
		close(opCancelled)
		return "late", nil
	})
	assert.ErrorIs(t, err, context.Canceled)

	select {
	case <-opCancelled:
	case <-time.After(time.Second):
		t.Fatal("operation context was not cancelled")
	}
	require.Eventually(t, func() bool { return c.InFlight() == 0 }, time.Second, 5*time.Millisecond)

	// give the operation a moment to finish; its result must be discarded
	time.Sleep(20 * time.Millisecond)
	_, ok := c.Peek(balanceDesc)
	assert.False(t, ok)
	assert.Equal(t, 1, rec.count("query_abandoned"))
}

func TestCache_StaysAliveWhileOneCallerWaits(t *testing.T) {
	c, _ := newCache(t, time.Minute)
	release := make(chan struct{})
	leaving, cancel := context.WithCancel(context.Background())

	fn := func(ctx context.Context) (any, error) {
		select {
		case <-release:
			return "kept", nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	stayed := make(chan any, 1)
	go func() {
		v, _ := c.Fetch(context.Background(), balanceDesc, fn)
		stayed <- v
	}()
	require.Eventually(t, func() bool { return c.InFlight() == 1 }, time.Second, 5*time.Millisecond)

	left := make(chan error, 1)
	go func() {
		_, err := c.Fetch(leaving, balanceDesc, fn)
		left <- err
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-left, context.Canceled)

	close(release)
	assert.Equal(t, "kept", <-stayed)
	entry, ok := c.Peek(balanceDesc)
	require.True(t, ok)
	assert.Equal(t, "kept", entry.Value)
}

func TestCache_InvalidateScopeAndChain(t *testing.T) {
	c, _ := newCache(t, time.Minute)
	ok := func(v any) Func {
		return func(context.Context) (any, error) { return v, nil }
	}
	ctx := context.Background()

	_, _ = c.Fetch(ctx, entity.QueryDescriptor{Scope: "balance", ChainID: 1, Params: []string{"0x1"}}, ok(1))
	_, _ = c.Fetch(ctx, entity.QueryDescriptor{Scope: "balance", ChainID: 11155111, Params: []string{"0x1"}}, ok(2))
	_, _ = c.Fetch(ctx, entity.QueryDescriptor{Scope: "block", ChainID: 1}, ok(3))
	_, _ = c.Fetch(ctx, entity.QueryDescriptor{Scope: "block", ChainID: 11155111}, ok(4))

	assert.Equal(t, 1, c.InvalidateChain("balance", 1))
	_, found := c.Peek(entity.QueryDescriptor{Scope: "balance", ChainID: 11155111, Params: []string{"0x1"}})
	assert.True(t, found)

	assert.Equal(t, 1, c.InvalidateChain("block", 1))
	_, found = c.Peek(entity.QueryDescriptor{Scope: "block", ChainID: 1})
	assert.False(t, found)

	assert.GreaterOrEqual(t, c.InvalidateScope("balance"), 1)
	_, found = c.Peek(entity.QueryDescriptor{Scope: "balance", ChainID: 11155111, Params: []string{"0x1"}})
	assert.False(t, found)
	_, found = c.Peek(entity.QueryDescriptor{Scope: "block", ChainID: 11155111})
	assert.True(t, found)
}

func TestCache_EntriesExpire(t *testing.T) {
	c, _ := newCache(t, 30*time.Millisecond)
	var calls atomic.Int32
	fn := func(ctx context.Context) (any, error) {
		return calls.Add(1), nil
	}

	_, err := c.Fetch(context.Background(), balanceDesc, fn)
	require.NoError(t, err)
	time.Sleep(60 * time.Millisecond)

	v, err := c.Fetch(context.Background(), balanceDesc, fn)
	require.NoError(t, err)
	assert.Equal(t, int32(2), v)
}

func TestCache_ForgetsKeysAfterExpiry(t *testing.T) {
	cfg := config.QueryConfig{StaleTime: 10 * time.Millisecond, ErrorTTL: time.Minute, CleanupInterval: 5 * time.Millisecond}
	store := memory.NewQueryStore(cfg, zap.NewNop())
	c := NewCache(store, cfg, &countingRecorder{}, zap.NewNop())
	t.Cleanup(c.Close)

	var calls atomic.Int32
	fn := func(ctx context.Context) (any, error) {
		return calls.Add(1), nil
	}

	const keys = 500
	for i := 0; i < keys; i++ {
		desc := entity.QueryDescriptor{Scope: "balance", ChainID: 1, Params: []string{fmt.Sprintf("0x%x", i)}}
		_, err := c.Fetch(context.Background(), desc, fn)
		require.NoError(t, err)
	}

	c.mu.Lock()
	tracked := len(c.inflight)
	c.mu.Unlock()
	assert.Equal(t, 0, tracked)

	require.Eventually(t, func() bool { return store.Count() == 0 }, time.Second, 5*time.Millisecond)

	v, err := c.Fetch(context.Background(), entity.QueryDescriptor{Scope: "balance", ChainID: 1, Params: []string{"0x0"}}, fn)
	require.NoError(t, err)
	assert.Equal(t, int32(keys+1), v)
}

func TestFetchTyped(t *testing.T) {
	c, _ := newCache(t, time.Minute)

	n, err := Fetch(context.Background(), c, balanceDesc, func(ctx context.Context) (uint64, error) {
		return 99, nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(99), n)

	_, err = Fetch(context.Background(), c, balanceDesc, func(ctx context.Context) (string, error) {
		return "unused", nil
	})
	assert.ErrorIs(t, err, domain.ErrQueryTypeMismatch)

	s, err := Refetch(context.Background(), c, balanceDesc, func(ctx context.Context) (string, error) {
		return "replaced", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "replaced", s)
}
