package entity

// NetworkType defines the type for network classifications (e.g., mainnet, testnet).
type NetworkType string

// Constants for known network types.
const (
	NetworkMainnet NetworkType = "mainnet"
	NetworkTestnet NetworkType = "testnet"
	NetworkLocal   NetworkType = "local"
)

// Currency defines the native currency details of a chain.
type Currency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// ChainSpec is a row of the default chain table: what a chain is and where its
// public fallback endpoint lives.
type ChainSpec struct {
	ID          int64
	Name        string
	ShortName   string
	Network     NetworkType
	Currency    Currency
	FallbackRPC RPCURL
	EnvKey      string
	ExplorerURL string
}

// ChainDescriptor is a supported chain together with the transport endpoint resolved for it.
type ChainDescriptor struct {
	ID           int64       `json:"id"`
	Name         string      `json:"name"`
	ShortName    string      `json:"shortName"`
	Network      NetworkType `json:"network"`
	Currency     Currency    `json:"nativeCurrency"`
	RPC          RPCURL      `json:"rpcUrl"`
	UsesFallback bool        `json:"usesFallback"`
	ExplorerURL  string      `json:"explorerUrl,omitempty"`
}
