package application

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jeonsevault-wallet/internal/adapter/storage/chaintable"
	"jeonsevault-wallet/internal/adapter/storage/memory"
	"jeonsevault-wallet/internal/config"
	"jeonsevault-wallet/internal/domain/entity"
	"jeonsevault-wallet/internal/metrics"
	"jeonsevault-wallet/internal/query"
	"jeonsevault-wallet/internal/registry"
)

const (
	sepoliaID = int64(11155111)
	hardhatID = int64(31337)
	mainnetID = int64(1)
	testAddr  = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
)

// fakeCaller answers JSON-RPC calls from a method -> raw result table.
type fakeCaller struct {
	mu      sync.Mutex
	results map[string]string
	err     error
	calls   map[string]int
}

func (f *fakeCaller) Call(_ context.Context, _ entity.RPCURL, method string, _ []any, out any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[method]++
	if f.err != nil {
		return f.err
	}
	raw, ok := f.results[method]
	if !ok {
		return errors.New("method not found")
	}
	return json.Unmarshal([]byte(raw), out)
}

func (f *fakeCaller) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// fakeChecker reports every chain in broken as failing.
type fakeChecker struct {
	mu     sync.Mutex
	broken map[int64]bool
	calls  int
}

func (f *fakeChecker) CheckRPC(_ context.Context, _ entity.RPCURL, chainID int64) (bool, time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.broken[chainID] {
		return false, 0, errors.New("connection refused")
	}
	return true, 3 * time.Millisecond, nil
}

func (f *fakeChecker) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func walletConfig(t *testing.T, env registry.Env) *entity.WalletClientConfig {
	t.Helper()
	specs, err := chaintable.NewRepository(zap.NewNop()).Specs()
	require.NoError(t, err)
	cfg, _ := registry.ResolveConfig(env, specs)
	return cfg
}

func newQueryCache(t *testing.T) *query.Cache {
	t.Helper()
	qcfg := config.QueryConfig{StaleTime: time.Minute, ErrorTTL: time.Minute, CleanupInterval: time.Minute}
	c := query.NewCache(memory.NewQueryStore(qcfg, zap.NewNop()), qcfg, metrics.NoopRecorder{}, zap.NewNop())
	t.Cleanup(c.Close)
	return c
}
