package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dreamer-zq/nft-escrow/libs/log"
)

// NOTE: libs/cli must know to look in the config dir!
var (
	DefaultEscrowDir = ".escrowd"
	defaultConfigDir = "config"
	defaultDataDir   = "data"

	defaultConfigFileName = "config.toml"

	defaultConfigFilePath = filepath.Join(defaultConfigDir, defaultConfigFileName)
)

// Config defines the top level configuration for an escrow application node.
type Config struct {
	// Top level options use an anonymous struct
	BaseConfig `mapstructure:",squash"`

	// Options for services
	Escrow          *EscrowConfig          `mapstructure:"escrow" toml:"escrow"`
	Instrumentation *InstrumentationConfig `mapstructure:"instrumentation" toml:"instrumentation"`
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseConfig:      DefaultBaseConfig(),
		Escrow:          DefaultEscrowConfig(),
		Instrumentation: DefaultInstrumentationConfig(),
	}
}

// TestConfig returns a configuration that can be used for testing.
func TestConfig() *Config {
	return &Config{
		BaseConfig:      TestBaseConfig(),
		Escrow:          DefaultEscrowConfig(),
		Instrumentation: DefaultInstrumentationConfig(),
	}
}

// SetRoot sets the RootDir for all Config structs
func (cfg *Config) SetRoot(root string) *Config {
	cfg.BaseConfig.RootDir = root
	return cfg
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *Config) ValidateBasic() error {
	if err := cfg.BaseConfig.ValidateBasic(); err != nil {
		return err
	}
	if err := cfg.Escrow.ValidateBasic(); err != nil {
		return fmt.Errorf("error in [escrow] section: %w", err)
	}
	if err := cfg.Instrumentation.ValidateBasic(); err != nil {
		return fmt.Errorf("error in [instrumentation] section: %w", err)
	}
	return nil
}

//-----------------------------------------------------------------------------
// BaseConfig

// BaseConfig defines the base configuration for the application process.
type BaseConfig struct {
	// The root directory for all data.
	// This should be set in viper so it can unmarshal into this struct
	RootDir string `mapstructure:"home" toml:"-"`

	// TCP or UNIX socket address the ABCI server listens on for
	// connections from Tendermint
	ProxyApp string `mapstructure:"proxy_app" toml:"proxy_app"`

	// Mechanism to serve ABCI connections: socket | grpc
	ABCI string `mapstructure:"abci" toml:"abci"`

	// Database backend: goleveldb | cleveldb | boltdb | rocksdb | badgerdb | memdb
	DBBackend string `mapstructure:"db_backend" toml:"db_backend"`

	// Database directory
	DBPath string `mapstructure:"db_dir" toml:"db_dir"`

	// Output level for logging
	LogLevel string `mapstructure:"log_level" toml:"log_level"`

	// Output format: 'plain' (text) or 'json'
	LogFormat string `mapstructure:"log_format" toml:"log_format"`
}

// DefaultBaseConfig returns a default base configuration.
func DefaultBaseConfig() BaseConfig {
	return BaseConfig{
		ProxyApp:  "tcp://127.0.0.1:26658",
		ABCI:      "socket",
		DBBackend: "goleveldb",
		DBPath:    defaultDataDir,
		LogLevel:  log.LogLevelInfo,
		LogFormat: log.LogFormatPlain,
	}
}

// TestBaseConfig returns a base configuration for testing.
func TestBaseConfig() BaseConfig {
	cfg := DefaultBaseConfig()
	cfg.ProxyApp = "tcp://127.0.0.1:0"
	cfg.DBBackend = "memdb"
	return cfg
}

// DBDir returns the full path to the database directory
func (cfg BaseConfig) DBDir() string {
	return rootify(cfg.DBPath, cfg.RootDir)
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg BaseConfig) ValidateBasic() error {
	switch cfg.LogFormat {
	case log.LogFormatPlain, log.LogFormatText, log.LogFormatJSON:
	default:
		return errors.New("unknown log format (must be 'plain', 'text' or 'json')")
	}
	switch cfg.ABCI {
	case "socket", "grpc":
	default:
		return fmt.Errorf("unknown abci transport %q (must be 'socket' or 'grpc')", cfg.ABCI)
	}
	if cfg.ProxyApp == "" {
		return errors.New("proxy_app can't be empty")
	}
	if cfg.DBBackend == "" {
		return errors.New("db_backend can't be empty")
	}
	return nil
}

//-----------------------------------------------------------------------------
// EscrowConfig

// EscrowConfig defines the escrow contract settings.
type EscrowConfig struct {
	// Address of the account that holds escrowed assets and funds. Every
	// emitted instruction moves value out of (or mints into) this account.
	CustodyAddress string `mapstructure:"custody_address" toml:"custody_address"`
}

// DefaultEscrowConfig returns a default escrow configuration.
func DefaultEscrowConfig() *EscrowConfig {
	return &EscrowConfig{
		CustodyAddress: "escrow1custody",
	}
}

// ValidateBasic performs basic validation.
func (cfg *EscrowConfig) ValidateBasic() error {
	if strings.TrimSpace(cfg.CustodyAddress) == "" {
		return errors.New("custody_address can't be empty")
	}
	return nil
}

//-----------------------------------------------------------------------------
// InstrumentationConfig

// InstrumentationConfig defines the configuration for metrics reporting.
type InstrumentationConfig struct {
	// When true, Prometheus metrics are served under /metrics on
	// PrometheusListenAddr.
	Prometheus bool `mapstructure:"prometheus" toml:"prometheus"`

	// Address to listen for Prometheus collector(s) connections.
	PrometheusListenAddr string `mapstructure:"prometheus_listen_addr" toml:"prometheus_listen_addr"`

	// Maximum number of simultaneous connections.
	// 0 - unlimited.
	MaxOpenConnections int `mapstructure:"max_open_connections" toml:"max_open_connections"`

	// Instrumentation namespace.
	Namespace string `mapstructure:"namespace" toml:"namespace"`
}

// DefaultInstrumentationConfig returns a default configuration for metrics
// reporting.
func DefaultInstrumentationConfig() *InstrumentationConfig {
	return &InstrumentationConfig{
		Prometheus:           false,
		PrometheusListenAddr: ":26661",
		MaxOpenConnections:   3,
		Namespace:            "escrow",
	}
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *InstrumentationConfig) ValidateBasic() error {
	if cfg.MaxOpenConnections < 0 {
		return errors.New("max_open_connections can't be negative")
	}
	if cfg.Prometheus && cfg.PrometheusListenAddr == "" {
		return errors.New("prometheus_listen_addr can't be empty when prometheus is enabled")
	}
	return nil
}

//-----------------------------------------------------------------------------
// Utils

// helper function to make config creation independent of root dir
func rootify(path, root string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
