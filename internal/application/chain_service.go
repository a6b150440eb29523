package application

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"jeonsevault-wallet/internal/application/port"
	"jeonsevault-wallet/internal/config"
	"jeonsevault-wallet/internal/domain"
	"jeonsevault-wallet/internal/domain/entity"
	domainService "jeonsevault-wallet/internal/domain/service"
	"jeonsevault-wallet/internal/pkg/apperrors"
	"jeonsevault-wallet/internal/query"
)

// Query scopes used by the chain service.
const (
	ScopeBalance         = "balance"
	ScopeBlock           = "block"
	ScopeTransportStatus = "transport_status"
)

var knownScopes = map[string]struct{}{
	ScopeBalance:         {},
	ScopeBlock:           {},
	ScopeTransportStatus: {},
}

// Compile-time check to ensure chainService implements ChainService
var _ port.ChainService = (*chainService)(nil)

// chainService implements port.ChainService on top of the provider's query cache.
type chainService struct {
	wallet     *entity.WalletClientConfig
	cache      *query.Cache
	caller     domainService.RPCCaller
	rpcChecker domainService.RPCChecker
	logger     *zap.Logger
	cfg        config.CheckerConfig
	rootCtx    context.Context
	isChecking *atomic.Bool
}

// NewChainService creates the chain service and starts the background transport checker
// bound to rootCtx.
func NewChainService(
	rootCtx context.Context,
	wallet *entity.WalletClientConfig,
	cache *query.Cache,
	caller domainService.RPCCaller,
	rpcChecker domainService.RPCChecker,
	logger *zap.Logger,
	cfg config.CheckerConfig,
) port.ChainService {
	s := &chainService{
		wallet:     wallet,
		cache:      cache,
		caller:     caller,
		rpcChecker: rpcChecker,
		logger:     logger.Named("ChainService"),
		cfg:        cfg,
		rootCtx:    rootCtx,
		isChecking: new(atomic.Bool),
	}

	go s.startBackgroundChecker()

	return s
}

// GetBalance reads eth_getBalance through the cache and formats it in native units.
func (s *chainService) GetBalance(ctx context.Context, chainID int64, address string) (entity.Balance, error) {
	chain, err := s.chain(chainID)
	if err != nil {
		return entity.Balance{}, err
	}
	if !common.IsHexAddress(address) {
		return entity.Balance{}, fmt.Errorf("%w: %q", domain.ErrInvalidAddress, address)
	}
	addr := common.HexToAddress(address).Hex()

	desc := entity.QueryDescriptor{Scope: ScopeBalance, ChainID: chainID, Params: []string{addr}}
	return query.Fetch(ctx, s.cache, desc, func(ctx context.Context) (entity.Balance, error) {
		var wei hexutil.Big
		if err := s.caller.Call(ctx, chain.RPC, "eth_getBalance", []any{addr, "latest"}, &wei); err != nil {
			return entity.Balance{}, err
		}
		amount := wei.ToInt()
		formatted := decimal.NewFromBigInt(amount, -int32(chain.Currency.Decimals))
		s.logger.Debug("Fetched balance",
			zap.Int64("chainId", chainID), zap.String("address", addr), zap.String("wei", amount.String()),
		)
		return entity.Balance{
			ChainID:   chainID,
			Address:   addr,
			Wei:       amount.String(),
			Formatted: formatted.String(),
			Symbol:    chain.Currency.Symbol,
		}, nil
	})
}

// GetBlockNumber reads eth_blockNumber through the cache.
func (s *chainService) GetBlockNumber(ctx context.Context, chainID int64) (entity.BlockHeight, error) {
	chain, err := s.chain(chainID)
	if err != nil {
		return entity.BlockHeight{}, err
	}

	desc := entity.QueryDescriptor{Scope: ScopeBlock, ChainID: chainID}
	return query.Fetch(ctx, s.cache, desc, func(ctx context.Context) (entity.BlockHeight, error) {
		var number hexutil.Uint64
		if err := s.caller.Call(ctx, chain.RPC, "eth_blockNumber", nil, &number); err != nil {
			return entity.BlockHeight{}, err
		}
		return entity.BlockHeight{ChainID: chainID, Number: uint64(number)}, nil
	})
}

// CheckTransports returns cached probe results, probing every transport on a miss.
func (s *chainService) CheckTransports(ctx context.Context) ([]entity.TransportStatus, error) {
	return query.Fetch(ctx, s.cache, transportDescriptor(), s.probeTransports)
}

// Invalidate drops cached results for a scope, a chain within it or one address.
func (s *chainService) Invalidate(scope string, chainID int64, address string) (int, error) {
	scope = strings.ToLower(strings.TrimSpace(scope))
	if _, ok := knownScopes[scope]; !ok {
		return 0, fmt.Errorf("%w: unknown scope %q", apperrors.ErrInvalidInput, scope)
	}
	if chainID != 0 {
		if _, err := s.chain(chainID); err != nil {
			return 0, err
		}
	}

	address = strings.TrimSpace(address)
	switch {
	case address != "":
		if chainID == 0 {
			return 0, fmt.Errorf("%w: address requires a chain id", apperrors.ErrInvalidInput)
		}
		if !common.IsHexAddress(address) {
			return 0, fmt.Errorf("%w: %q", domain.ErrInvalidAddress, address)
		}
		s.cache.Invalidate(entity.QueryDescriptor{
			Scope: scope, ChainID: chainID, Params: []string{common.HexToAddress(address).Hex()},
		})
		return 1, nil
	case chainID != 0:
		return s.cache.InvalidateChain(scope, chainID), nil
	default:
		return s.cache.InvalidateScope(scope), nil
	}
}

func (s *chainService) chain(chainID int64) (entity.ChainDescriptor, error) {
	chain, ok := s.wallet.Chain(chainID)
	if !ok {
		return entity.ChainDescriptor{}, fmt.Errorf("%w: %d", domain.ErrChainNotSupported, chainID)
	}
	return chain, nil
}

func transportDescriptor() entity.QueryDescriptor {
	return entity.QueryDescriptor{Scope: ScopeTransportStatus}
}

// probeTransports checks every configured transport with a bounded worker pool. Results
// keep the chain declaration order.
func (s *chainService) probeTransports(ctx context.Context) ([]entity.TransportStatus, error) {
	chains := s.wallet.Chains()
	if len(chains) == 0 {
		return nil, nil
	}
	s.logger.Info("Probing transports", zap.Int("chainCount", len(chains)))

	statuses := make([]entity.TransportStatus, len(chains))
	var wg sync.WaitGroup

	numWorkers := s.cfg.MaxWorkers
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if len(chains) < numWorkers {
		numWorkers = len(chains)
	}
	timeout := s.cfg.GetTimeout()

	jobChan := make(chan int, len(chains))

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for i := range jobChan {
				statuses[i] = s.probe(ctx, timeout, chains[i])
			}
			s.logger.Debug("Transport probe worker finished", zap.Int("workerID", workerID))
		}(w)
	}

	for i := range chains {
		jobChan <- i
	}
	close(jobChan)

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return statuses, nil
}

func (s *chainService) probe(ctx context.Context, timeout time.Duration, chain entity.ChainDescriptor) entity.TransportStatus {
	status := entity.TransportStatus{
		ChainID:  chain.ID,
		URL:      chain.RPC,
		Protocol: chain.RPC.Protocol(),
	}
	notWorking := false

	if status.Protocol == entity.ProtocolUnknown {
		status.IsWorking = &notWorking
		status.Error = "unsupported protocol"
		s.logger.Error("Transport with unknown protocol", zap.String("url", chain.RPC.String()))
		return status
	}

	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	isWorking, latency, err := s.rpcChecker.CheckRPC(checkCtx, chain.RPC, chain.ID)
	cancel()

	if err != nil {
		s.logger.Debug("Transport check failed",
			zap.Int64("chainId", chain.ID), zap.String("rpc", chain.RPC.String()), zap.Error(err),
		)
		status.IsWorking = &notWorking
		status.Error = err.Error()
		return status
	}

	status.IsWorking = &isWorking
	if isWorking {
		latencyMs := latency.Milliseconds()
		status.LatencyMs = &latencyMs
		s.logger.Debug("Transport is working",
			zap.Int64("chainId", chain.ID), zap.Duration("latency", latency),
		)
	}
	return status
}

// refreshTransports re-probes every transport under a new cache generation.
func (s *chainService) refreshTransports() {
	defer s.isChecking.Store(false)

	statuses, err := query.Refetch(s.rootCtx, s.cache, transportDescriptor(), s.probeTransports)
	if err != nil {
		if s.rootCtx.Err() != nil {
			s.logger.Warn("Periodic transport check cancelled due to application shutdown")
			return
		}
		s.logger.Error("Periodic transport check failed", zap.Error(err))
		return
	}

	working := 0
	for _, st := range statuses {
		if st.IsWorking != nil && *st.IsWorking {
			working++
		}
	}
	s.logger.Info("Periodic transport check finished",
		zap.Int("working", working), zap.Int("total", len(statuses)),
	)
}

// startBackgroundChecker periodically refreshes transport statuses until rootCtx is done.
func (s *chainService) startBackgroundChecker() {
	interval := s.cfg.GetCheckInterval()
	if interval <= 0 {
		s.logger.Info("Background checker disabled (interval <= 0)")
		return
	}

	s.logger.Info("Starting background checker", zap.Duration("interval", interval))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if s.isChecking.CompareAndSwap(false, true) {
				s.logger.Debug("Background checker tick: triggering new check")
				go s.refreshTransports()
			} else {
				s.logger.Debug("Background checker tick: check already in progress")
			}

		case <-s.rootCtx.Done():
			s.logger.Info("Background checker stopping due to context cancellation")
			return
		}
	}
}
