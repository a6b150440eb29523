package chaintable_dto

// NetworkTypeRaw defines the type for network classifications as written in the table.
type NetworkTypeRaw string

// Constants for known network types in the raw table.
const (
	NetworkMainnetRaw NetworkTypeRaw = "mainnet"
	NetworkTestnetRaw NetworkTypeRaw = "testnet"
	NetworkLocalRaw   NetworkTypeRaw = "local"
)

// TableRaw is the document root of the chain table.
type TableRaw struct {
	Chains []ChainRaw `yaml:"chains"`
}

// ChainRaw is one chain row as written in the table.
type ChainRaw struct {
	ID        int64          `yaml:"id"`
	Name      string         `yaml:"name"`
	ShortName string         `yaml:"shortName"`
	Network   NetworkTypeRaw `yaml:"network"`
	EnvKey    string         `yaml:"envKey"`
	RPC       string         `yaml:"rpc"`
	Explorer  string         `yaml:"explorer,omitempty"`
	Currency  CurrencyRaw    `yaml:"nativeCurrency"`
}

// CurrencyRaw defines the native currency details of a chain from raw data.
type CurrencyRaw struct {
	Name     string `yaml:"name"`
	Symbol   string `yaml:"symbol"`
	Decimals int    `yaml:"decimals"`
}
