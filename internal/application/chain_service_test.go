package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jeonsevault-wallet/internal/config"
	"jeonsevault-wallet/internal/domain"
	"jeonsevault-wallet/internal/pkg/apperrors"
	"jeonsevault-wallet/internal/registry"
)

func newChainService(t *testing.T, caller *fakeCaller, checker *fakeChecker, interval time.Duration) *chainService {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	svc := NewChainService(ctx, walletConfig(t, registry.Env{}), newQueryCache(t), caller, checker, zap.NewNop(),
		config.CheckerConfig{CheckInterval: interval, CheckTimeout: time.Second, MaxWorkers: 2},
	)
	return svc.(*chainService)
}

func TestChainService_GetBalance(t *testing.T) {
	caller := &fakeCaller{results: map[string]string{"eth_getBalance": `"0x1bc16d674ec80000"`}}
	svc := newChainService(t, caller, &fakeChecker{}, 0)

	bal, err := svc.GetBalance(context.Background(), sepoliaID, "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
	require.NoError(t, err)
	assert.Equal(t, testAddr, bal.Address)
	assert.Equal(t, "2000000000000000000", bal.Wei)
	assert.Equal(t, "2", bal.Formatted)
	assert.Equal(t, "ETH", bal.Symbol)

	// checksummed form of the same account is served from the cache
	_, err = svc.GetBalance(context.Background(), sepoliaID, testAddr)
	require.NoError(t, err)
	assert.Equal(t, 1, caller.count("eth_getBalance"))
}

func TestChainService_GetBalanceValidation(t *testing.T) {
	svc := newChainService(t, &fakeCaller{}, &fakeChecker{}, 0)

	_, err := svc.GetBalance(context.Background(), 424242, testAddr)
	assert.ErrorIs(t, err, domain.ErrChainNotSupported)

	_, err = svc.GetBalance(context.Background(), sepoliaID, "vault")
	assert.ErrorIs(t, err, domain.ErrInvalidAddress)
}

func TestChainService_GetBlockNumber(t *testing.T) {
	caller := &fakeCaller{results: map[string]string{"eth_blockNumber": `"0x4b7"`}}
	svc := newChainService(t, caller, &fakeChecker{}, 0)

	height, err := svc.GetBlockNumber(context.Background(), hardhatID)
	require.NoError(t, err)
	assert.Equal(t, hardhatID, height.ChainID)
	assert.Equal(t, uint64(1207), height.Number)
}

func TestChainService_FetchFailure(t *testing.T) {
	boom := errors.New("dial tcp: connection refused")
	caller := &fakeCaller{err: boom}
	svc := newChainService(t, caller, &fakeChecker{}, 0)

	_, err := svc.GetBlockNumber(context.Background(), mainnetID)
	assert.ErrorIs(t, err, domain.ErrFetchFailed)
	assert.ErrorIs(t, err, boom)
}

func TestChainService_CheckTransports(t *testing.T) {
	checker := &fakeChecker{broken: map[int64]bool{hardhatID: true}}
	svc := newChainService(t, &fakeCaller{}, checker, 0)

	statuses, err := svc.CheckTransports(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 3)

	assert.Equal(t, sepoliaID, statuses[0].ChainID)
	require.NotNil(t, statuses[0].IsWorking)
	assert.True(t, *statuses[0].IsWorking)
	require.NotNil(t, statuses[0].LatencyMs)

	assert.Equal(t, hardhatID, statuses[1].ChainID)
	require.NotNil(t, statuses[1].IsWorking)
	assert.False(t, *statuses[1].IsWorking)
	assert.NotEmpty(t, statuses[1].Error)

	_, err = svc.CheckTransports(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, checker.count())
}

func TestChainService_BackgroundRefresh(t *testing.T) {
	checker := &fakeChecker{}
	newChainService(t, &fakeCaller{}, checker, 20*time.Millisecond)

	assert.Eventually(t, func() bool {
		return checker.count() >= 6
	}, 2*time.Second, 10*time.Millisecond)
}

func TestChainService_Invalidate(t *testing.T) {
	caller := &fakeCaller{results: map[string]string{
		"eth_getBalance":  `"0x0"`,
		"eth_blockNumber": `"0x1"`,
	}}
	svc := newChainService(t, caller, &fakeChecker{}, 0)
	ctx := context.Background()

	_, err := svc.GetBalance(ctx, sepoliaID, testAddr)
	require.NoError(t, err)
	_, err = svc.GetBlockNumber(ctx, sepoliaID)
	require.NoError(t, err)

	n, err := svc.Invalidate(ScopeBalance, sepoliaID, "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = svc.GetBalance(ctx, sepoliaID, testAddr)
	require.NoError(t, err)
	assert.Equal(t, 2, caller.count("eth_getBalance"))

	// block number was not touched
	_, err = svc.GetBlockNumber(ctx, sepoliaID)
	require.NoError(t, err)
	assert.Equal(t, 1, caller.count("eth_blockNumber"))

	n, err = svc.Invalidate("BLOCK", 0, "")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestChainService_InvalidateValidation(t *testing.T) {
	svc := newChainService(t, &fakeCaller{}, &fakeChecker{}, 0)

	_, err := svc.Invalidate("deposits", 0, "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.Invalidate(ScopeBalance, 0, testAddr)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.Invalidate(ScopeBalance, 5, "")
	assert.ErrorIs(t, err, domain.ErrChainNotSupported)

	_, err = svc.Invalidate(ScopeBalance, sepoliaID, "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidAddress)
}
