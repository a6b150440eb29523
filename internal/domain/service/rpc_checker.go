package service

import (
	"context"
	"time"

	"jeonsevault-wallet/internal/domain/entity"
)

// RPCChecker defines the interface for checking RPC endpoint status.
type RPCChecker interface {
	CheckRPC(ctx context.Context, rpcURL entity.RPCURL, expectedChainID int64) (bool, time.Duration, error)
}

// RPCCaller performs a single JSON-RPC call and decodes the result into out.
type RPCCaller interface {
	Call(ctx context.Context, rpcURL entity.RPCURL, method string, params []any, out any) error
}
