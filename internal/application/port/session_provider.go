package port

import (
	"jeonsevault-wallet/internal/domain/entity"
)

// SessionService renders wallet session state for a request.
type SessionService interface {
	// Config returns the wallet client configuration shared by every request.
	Config() *entity.WalletClientConfig

	// InitialState hydrates the session cookie found in a Cookie header.
	InitialState(cookieHeader string) entity.InitialConnectionState

	// IssueToken encodes a connection into the session cookie. It returns the cookie name
	// and value.
	IssueToken(address string, chainID int64, connectorID string) (string, string, error)
}
