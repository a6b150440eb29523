package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"jeonsevault-wallet/internal/registry"
)

// EnvPrefix is prepended to every environment variable the service reads.
const EnvPrefix = "JEONSEVAULT"

// Config holds all configuration for the application.
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Server  ServerConfig  `mapstructure:"server"`
	Logger  LoggerConfig  `mapstructure:"logger"`
	Wallet  WalletConfig  `mapstructure:"wallet"`
	Query   QueryConfig   `mapstructure:"query"`
	Checker CheckerConfig `mapstructure:"checker"`
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Name    string `mapstructure:"name" validate:"required"`
	Version string `mapstructure:"version"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string        `mapstructure:"port" validate:"required,numeric"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding" validate:"omitempty,oneof=json console"`
}

// WalletConfig holds the optional inputs of the chain/connector registry. Every field may
// be empty; the registry substitutes fallbacks.
type WalletConfig struct {
	AppName                    string            `mapstructure:"app_name"`
	ProjectID                  string            `mapstructure:"project_id"`
	ShowQRModal                bool              `mapstructure:"show_qr_modal"`
	StorageKey                 string            `mapstructure:"storage_key"`
	OmitUnconfiguredConnectors bool              `mapstructure:"omit_unconfigured_connectors"`
	RPC                        RPCOverrideConfig `mapstructure:"rpc"`
}

// RPCOverrideConfig holds per-chain RPC endpoint overrides, keyed by the chain table's env key.
type RPCOverrideConfig struct {
	Sepolia string `mapstructure:"sepolia"`
	Hardhat string `mapstructure:"hardhat"`
	Mainnet string `mapstructure:"mainnet"`
}

// QueryConfig holds settings for the query cache.
type QueryConfig struct {
	StaleTime       time.Duration `mapstructure:"stale_time"`
	ErrorTTL        time.Duration `mapstructure:"error_ttl" validate:"gte=0"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" validate:"gte=0"`
}

// CheckerConfig holds settings related to the transport probing process.
type CheckerConfig struct {
	CheckInterval time.Duration `mapstructure:"check_interval" validate:"gte=0"`
	CheckTimeout  time.Duration `mapstructure:"check_timeout" validate:"gt=0"`
	MaxWorkers    int           `mapstructure:"max_workers" validate:"gte=1"`
}

// Load reads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("app.name", "jeonsevault-wallet")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.request_timeout", "10s")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "json")
	v.SetDefault("wallet.app_name", "")
	v.SetDefault("wallet.project_id", "")
	v.SetDefault("wallet.show_qr_modal", true)
	v.SetDefault("wallet.storage_key", "wagmi")
	v.SetDefault("wallet.omit_unconfigured_connectors", false)
	v.SetDefault("wallet.rpc.sepolia", "")
	v.SetDefault("wallet.rpc.hardhat", "")
	v.SetDefault("wallet.rpc.mainnet", "")
	v.SetDefault("query.stale_time", "15s")
	v.SetDefault("query.error_ttl", "5s")
	v.SetDefault("query.cleanup_interval", "1m")
	v.SetDefault("checker.check_interval", "5m")
	v.SetDefault("checker.check_timeout", "5s")
	v.SetDefault("checker.max_workers", 4)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config from %s: %w", configPath, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// RPCOverrides returns the non-empty overrides keyed by chain table env key.
func (w WalletConfig) RPCOverrides() map[string]string {
	out := make(map[string]string, 3)
	for key, val := range map[string]string{
		"sepolia": w.RPC.Sepolia,
		"hardhat": w.RPC.Hardhat,
		"mainnet": w.RPC.Mainnet,
	} {
		if strings.TrimSpace(val) != "" {
			out[key] = strings.TrimSpace(val)
		}
	}
	return out
}

// WalletEnv maps the wallet section onto the registry inputs.
func (c *Config) WalletEnv() registry.Env {
	return registry.Env{
		RPCOverrides:     c.Wallet.RPCOverrides(),
		ProjectID:        c.Wallet.ProjectID,
		AppName:          c.Wallet.AppName,
		ShowQRModal:      c.Wallet.ShowQRModal,
		StorageKey:       c.Wallet.StorageKey,
		OmitUnconfigured: c.Wallet.OmitUnconfiguredConnectors,
	}
}

func (c CheckerConfig) GetTimeout() time.Duration {
	return c.CheckTimeout
}

func (c CheckerConfig) GetCheckInterval() time.Duration {
	return c.CheckInterval
}

func (c QueryConfig) GetStaleTime() time.Duration {
	return c.StaleTime
}

func (c QueryConfig) GetCleanupInterval() time.Duration {
	return c.CleanupInterval
}

func (c QueryConfig) GetErrorTTL() time.Duration {
	return c.ErrorTTL
}
