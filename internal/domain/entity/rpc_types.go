package entity

// Protocol defines the type for RPC protocols.
type Protocol string

// Constants for known protocols.
const (
	ProtocolHTTP    Protocol = "http"
	ProtocolHTTPS   Protocol = "https"
	ProtocolWS      Protocol = "ws"
	ProtocolWSS     Protocol = "wss"
	ProtocolUnknown Protocol = "unknown"
)

// TransportStatus holds the outcome of probing the transport of one chain.
type TransportStatus struct {
	ChainID   int64    `json:"chainId"`
	URL       RPCURL   `json:"url"`
	Protocol  Protocol `json:"protocol"`
	IsWorking *bool    `json:"isWorking"`
	LatencyMs *int64   `json:"latencyMs,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// Balance is the native-currency balance of an account on one chain.
type Balance struct {
	ChainID   int64  `json:"chainId"`
	Address   string `json:"address"`
	Wei       string `json:"wei"`
	Formatted string `json:"formatted"`
	Symbol    string `json:"symbol"`
}

// BlockHeight is the latest block number observed on a chain.
type BlockHeight struct {
	ChainID int64  `json:"chainId"`
	Number  uint64 `json:"number"`
}
