package port

import (
	"context"

	"jeonsevault-wallet/internal/domain/entity"
)

// ChainService defines the chain reads the UI issues through the query cache.
type ChainService interface {
	// GetBalance returns the native-currency balance of address on a supported chain.
	GetBalance(ctx context.Context, chainID int64, address string) (entity.Balance, error)

	// GetBlockNumber returns the latest block number of a supported chain.
	GetBlockNumber(ctx context.Context, chainID int64) (entity.BlockHeight, error)

	// CheckTransports returns the probe result for every configured transport.
	CheckTransports(ctx context.Context) ([]entity.TransportStatus, error)

	// Invalidate drops cached results. An empty address invalidates the whole chain, a zero
	// chain id the whole scope. It returns the number of keys affected.
	Invalidate(scope string, chainID int64, address string) (int, error)
}
