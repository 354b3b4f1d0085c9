package configloader

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds server-specific configurations.
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"readTimeout"`
	WriteTimeout int    `yaml:"writeTimeout"`
	IdleTimeout  int    `yaml:"idleTimeout"`
}

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// AggregatorConfig holds the liquidity-aggregator API configurations.
// APIKey is required for any upstream call; VersionHeader selects the
// aggregator protocol version and, with it, the signature-splice convention.
type AggregatorConfig struct {
	APIKey               string  `yaml:"apiKey"`
	VersionHeader        string  `yaml:"versionHeader"`
	RequestTimeoutMillis int64   `yaml:"requestTimeoutMillis"`
	RateLimitPerSecond   float64 `yaml:"rateLimitPerSecond"`
	RateLimitBurst       int     `yaml:"rateLimitBurst"`
}

// FeeConfig holds the integrator fee configuration. Fee parameters are sent
// upstream only when both a recipient and a positive bps value are set.
type FeeConfig struct {
	Recipient string `yaml:"recipient"`
	Bps       int    `yaml:"bps"`
}

// OrchestratorConfig holds the swap orchestrator tunables.
type OrchestratorConfig struct {
	DebounceMillis         int64   `yaml:"debounceMillis"`
	AllowanceRecheckMillis int64   `yaml:"allowanceRecheckMillis"`
	DefaultSlippagePercent float64 `yaml:"defaultSlippagePercent"`
}

// WalletConfig holds the local signer configuration for headless operation.
type WalletConfig struct {
	PrivateKey string `yaml:"privateKey"`
}

// TokenStoreConfig holds custom-token persistence configurations.
type TokenStoreConfig struct {
	Directory       string `yaml:"directory"`
	CacheTTLMinutes int    `yaml:"cacheTTLMinutes"`
}

// NetworkNodeConfig overrides RPC endpoints for a supported chain.
type NetworkNodeConfig struct {
	ChainID         uint64   `yaml:"chainID"`
	RPCURL          string   `yaml:"rpcURL"`
	FallbackRPCURLs []string `yaml:"fallbackRpcUrls"`
}

// PerformanceConfig holds performance-related configurations.
type PerformanceConfig struct {
	RPCCallTimeoutSeconds int `yaml:"rpc_call_timeout_seconds"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server       ServerConfig        `yaml:"server"`
	Logging      LoggingConfig       `yaml:"logging"`
	Aggregator   AggregatorConfig    `yaml:"aggregator"`
	Fee          FeeConfig           `yaml:"fee"`
	Orchestrator OrchestratorConfig  `yaml:"orchestrator"`
	Wallet       WalletConfig        `yaml:"wallet"`
	TokenStore   TokenStoreConfig    `yaml:"tokenStore"`
	Networks     []NetworkNodeConfig `yaml:"networks"`
	Performance  PerformanceConfig   `yaml:"performance"`
}

// Load reads the YAML configuration file from the given path and unmarshals it.
func Load(path string) (*Config, error) {
	logrus.Infof("Loading configuration from path: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}

	applyDefaults(&cfg)

	if cfg.Aggregator.APIKey == "" {
		logrus.Warn("aggregator.apiKey is not set; upstream price and quote requests will fail")
	}

	logrus.Info("Configuration loaded successfully.")
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
	}
	if cfg.Server.ReadTimeout <= 0 {
		cfg.Server.ReadTimeout = 15
	}
	if cfg.Server.WriteTimeout <= 0 {
		cfg.Server.WriteTimeout = 15
	}
	if cfg.Server.IdleTimeout <= 0 {
		cfg.Server.IdleTimeout = 60
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Aggregator.VersionHeader == "" {
		cfg.Aggregator.VersionHeader = "v2"
	}
	if cfg.Aggregator.RequestTimeoutMillis <= 0 {
		cfg.Aggregator.RequestTimeoutMillis = 10000
	}
	if cfg.Aggregator.RateLimitPerSecond <= 0 {
		cfg.Aggregator.RateLimitPerSecond = 5
	}
	if cfg.Aggregator.RateLimitBurst <= 0 {
		cfg.Aggregator.RateLimitBurst = 10
	}
	if cfg.Orchestrator.DebounceMillis <= 0 {
		cfg.Orchestrator.DebounceMillis = 500
	}
	if cfg.Orchestrator.AllowanceRecheckMillis <= 0 {
		// The chain state is not immediately queryable from every read path
		// right after an approval lands; re-read after a short delay.
		cfg.Orchestrator.AllowanceRecheckMillis = 2000
	}
	if cfg.Orchestrator.DefaultSlippagePercent <= 0 {
		cfg.Orchestrator.DefaultSlippagePercent = 0.01
	}
	if cfg.TokenStore.Directory == "" {
		cfg.TokenStore.Directory = "data/tokens"
	}
	if cfg.TokenStore.CacheTTLMinutes <= 0 {
		cfg.TokenStore.CacheTTLMinutes = 60
	}
	if cfg.Performance.RPCCallTimeoutSeconds <= 0 {
		cfg.Performance.RPCCallTimeoutSeconds = 10
	}
}
