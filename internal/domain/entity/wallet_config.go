package entity

// WalletClientConfig aggregates the supported chains, the connectors offered to the UI
// and the transport used for every chain. It is built once and never mutated; the
// accessors hand out copies.
type WalletClientConfig struct {
	chains     []ChainDescriptor
	connectors []ConnectorDescriptor
	transports map[int64]RPCURL
	storageKey string
}

// NewWalletClientConfig assembles a config. The transport map is derived from the chains
// so that every declared chain has exactly one endpoint.
func NewWalletClientConfig(
	chains []ChainDescriptor,
	connectors []ConnectorDescriptor,
	storageKey string,
) *WalletClientConfig {
	cfg := &WalletClientConfig{
		chains:     append([]ChainDescriptor(nil), chains...),
		connectors: append([]ConnectorDescriptor(nil), connectors...),
		transports: make(map[int64]RPCURL, len(chains)),
		storageKey: storageKey,
	}
	for _, c := range cfg.chains {
		cfg.transports[c.ID] = c.RPC
	}
	return cfg
}

// Chains returns the supported chains in declaration order.
func (c *WalletClientConfig) Chains() []ChainDescriptor {
	return append([]ChainDescriptor(nil), c.chains...)
}

// Connectors returns the offered connectors in declaration order.
func (c *WalletClientConfig) Connectors() []ConnectorDescriptor {
	return append([]ConnectorDescriptor(nil), c.connectors...)
}

// Transports returns a copy of the chainId -> endpoint mapping.
func (c *WalletClientConfig) Transports() map[int64]RPCURL {
	out := make(map[int64]RPCURL, len(c.transports))
	for id, u := range c.transports {
		out[id] = u
	}
	return out
}

// Transport returns the endpoint for a chain.
func (c *WalletClientConfig) Transport(chainID int64) (RPCURL, bool) {
	u, ok := c.transports[chainID]
	return u, ok
}

// Chain looks a supported chain up by id.
func (c *WalletClientConfig) Chain(chainID int64) (ChainDescriptor, bool) {
	for _, ch := range c.chains {
		if ch.ID == chainID {
			return ch, true
		}
	}
	return ChainDescriptor{}, false
}

// DefaultChain is the first declared chain.
func (c *WalletClientConfig) DefaultChain() (ChainDescriptor, bool) {
	if len(c.chains) == 0 {
		return ChainDescriptor{}, false
	}
	return c.chains[0], true
}

// Connector finds a connector by id, falling back to a match on kind.
func (c *WalletClientConfig) Connector(id string, kind ConnectorKind) (ConnectorDescriptor, bool) {
	for _, conn := range c.connectors {
		if id != "" && conn.ID == id {
			return conn, true
		}
	}
	for _, conn := range c.connectors {
		if kind != "" && conn.Kind == kind {
			return conn, true
		}
	}
	return ConnectorDescriptor{}, false
}

// StorageKey is the prefix of the cookie that persists wallet sessions.
func (c *WalletClientConfig) StorageKey() string {
	return c.storageKey
}
