package rpc

import (
	"context"
	"fmt"
	"time"

	"jeonsevault-wallet/internal/domain/entity"
	domainService "jeonsevault-wallet/internal/domain/service"
	"jeonsevault-wallet/internal/pkg/apperrors"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
)

// Compile-time check
var _ domainService.RPCChecker = (*Checker)(nil)

// Checker implements the domainService.RPCChecker interface.
type Checker struct {
	caller domainService.RPCCaller
	logger *zap.Logger
}

// NewChecker creates a new RPC checker on top of a JSON-RPC caller.
func NewChecker(caller domainService.RPCCaller, logger *zap.Logger) *Checker {
	return &Checker{
		caller: caller,
		logger: logger.Named("RPCChecker"),
	}
}

// CheckRPC asks the endpoint for its chain id. The endpoint is working when it answers
// and the id matches the chain it is configured for.
func (c *Checker) CheckRPC(
	ctx context.Context,
	rpcURL entity.RPCURL,
	expectedChainID int64,
) (isWorking bool, latency time.Duration, err error) {
	startTime := time.Now()

	var chainIDHex hexutil.Big
	err = c.caller.Call(ctx, rpcURL, "eth_chainId", nil, &chainIDHex)
	latency = time.Since(startTime)
	if err != nil {
		c.logger.Debug("RPC check failed", zap.String("url", rpcURL.String()), zap.Error(err))
		return false, latency, err
	}

	got := chainIDHex.ToInt()
	if !got.IsInt64() || got.Int64() != expectedChainID {
		c.logger.Warn("RPC serves a different chain than configured",
			zap.String("url", rpcURL.String()),
			zap.Int64("expectedChainId", expectedChainID),
			zap.String("reportedChainId", got.String()),
		)
		return false, latency, fmt.Errorf("%w: rpc %s reports chain %s, expected %d",
			apperrors.ErrExternalServiceFailure, rpcURL, got.String(), expectedChainID,
		)
	}

	return true, latency, nil
}
