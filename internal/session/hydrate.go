// Package session turns a persisted wallet session token into the connection state the
// UI assumes before the wallet handshake. Hydration never performs I/O and never fails.
package session

import (
	"github.com/ethereum/go-ethereum/common"

	"jeonsevault-wallet/internal/domain/entity"
)

// Hydrate derives the initial connection state from token. Malformed tokens, unknown or
// unconfigured connectors and tokens without a usable account yield entity.Disconnected().
func Hydrate(cfg *entity.WalletClientConfig, token string) entity.InitialConnectionState {
	if cfg == nil {
		return entity.Disconnected()
	}
	decoded, err := Decode(token)
	if err != nil {
		return entity.Disconnected()
	}
	return fromToken(cfg, decoded)
}

// HydrateCookieHeader extracts the session cookie named after the config's storage key
// from a Cookie header and hydrates it.
func HydrateCookieHeader(cfg *entity.WalletClientConfig, header string) entity.InitialConnectionState {
	if cfg == nil {
		return entity.Disconnected()
	}
	token, ok := TokenFromCookieHeader(header, cfg.StorageKey())
	if !ok {
		return entity.Disconnected()
	}
	return Hydrate(cfg, token)
}

func fromToken(cfg *entity.WalletClientConfig, t Token) entity.InitialConnectionState {
	if t.Current == "" {
		return entity.Disconnected()
	}

	var current *Connection
	for i := range t.Connections {
		if t.Connections[i].UID == t.Current {
			current = &t.Connections[i]
			break
		}
	}
	if current == nil {
		return entity.Disconnected()
	}

	connector, ok := cfg.Connector(current.Connector.ID, entity.ConnectorKind(current.Connector.Type))
	if !ok || !connector.Functional() {
		return entity.Disconnected()
	}

	accounts := normalizeAccounts(current.Accounts)
	if len(accounts) == 0 {
		return entity.Disconnected()
	}

	return entity.InitialConnectionState{
		Connected:      true,
		Status:         entity.StatusReconnecting,
		AccountAddress: accounts[0],
		Accounts:       accounts,
		ChainID:        resolveChainID(cfg, current.ChainID, t.ChainID),
		ConnectorID:    connector.ID,
	}
}

// normalizeAccounts keeps valid hex addresses in EIP-55 form, dropping duplicates.
func normalizeAccounts(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, a := range raw {
		if !common.IsHexAddress(a) {
			continue
		}
		canon := common.HexToAddress(a).Hex()
		if _, dup := seen[canon]; dup {
			continue
		}
		seen[canon] = struct{}{}
		out = append(out, canon)
	}
	return out
}

// resolveChainID prefers the connection's chain, then the store's chain, then the
// default chain of the config.
func resolveChainID(cfg *entity.WalletClientConfig, candidates ...int64) int64 {
	for _, id := range candidates {
		if _, ok := cfg.Chain(id); ok {
			return id
		}
	}
	if def, ok := cfg.DefaultChain(); ok {
		return def.ID
	}
	return 0
}
