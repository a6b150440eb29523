package entity

// ConnectionStatus is what the UI should assume before the wallet handshake completes.
type ConnectionStatus string

const (
	StatusDisconnected ConnectionStatus = "disconnected"
	StatusReconnecting ConnectionStatus = "reconnecting"
)

// InitialConnectionState is the best-effort reconstruction of a previous wallet session.
// It is computed once per render and superseded by live state after the handshake.
type InitialConnectionState struct {
	Connected      bool             `json:"connected"`
	Status         ConnectionStatus `json:"status"`
	AccountAddress string           `json:"accountAddress,omitempty"`
	Accounts       []string         `json:"accounts,omitempty"`
	ChainID        int64            `json:"chainId,omitempty"`
	ConnectorID    string           `json:"connectorId,omitempty"`
}

// Disconnected is the state used when no usable prior session exists.
func Disconnected() InitialConnectionState {
	return InitialConnectionState{Status: StatusDisconnected}
}

// Equal compares two states field by field.
func (s InitialConnectionState) Equal(o InitialConnectionState) bool {
	if s.Connected != o.Connected || s.Status != o.Status || s.AccountAddress != o.AccountAddress ||
		s.ChainID != o.ChainID || s.ConnectorID != o.ConnectorID || len(s.Accounts) != len(o.Accounts) {
		return false
	}
	for i := range s.Accounts {
		if s.Accounts[i] != o.Accounts[i] {
			return false
		}
	}
	return true
}
