package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// DefaultContractID is the known vault contract, used when no contract id is
// configured. Absence of configuration is not an error.
const DefaultContractID = "CDLZFC3SYJYDZT7K67VZ75HPJVIEUVNIXF47ZG2FB2RMQQVU2HHGCYSC"

// GatewayConfig represents the vault gateway configuration
type GatewayConfig struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Network   NetworkConfig   `mapstructure:"network"`
	Vault     VaultConfig     `mapstructure:"vault"`
	Signer    SignerConfig    `mapstructure:"signer"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	PriceFeed PriceFeedConfig `mapstructure:"price_feed"`
	Partner   PartnerConfig   `mapstructure:"partner"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// NetworkConfig contains network registry settings
type NetworkConfig struct {
	// Default is the network used when the signer reports none.
	Default string `mapstructure:"default"`
	// OverridesFile optionally points at a YAML file with endpoint overrides
	// (local sandboxes, private RPC mirrors).
	OverridesFile string `mapstructure:"overrides_file"`
}

// VaultConfig contains vault contract settings
type VaultConfig struct {
	ContractID      string `mapstructure:"contract_id"`
	AssetContractID string `mapstructure:"asset_contract_id"`
}

// SignerConfig contains signer bridge settings
type SignerConfig struct {
	BridgeURL      string        `mapstructure:"bridge_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// PipelineConfig contains transaction pipeline settings
type PipelineConfig struct {
	// EnvelopeTTL is the validity window stamped into every built envelope.
	EnvelopeTTL time.Duration `mapstructure:"envelope_ttl"`
	// BaseFee is the inclusion fee, in raw units, before simulation adds the
	// resource fee.
	BaseFee int64 `mapstructure:"base_fee"`
	// SubmitTimeout bounds the confirmation wait after broadcast.
	SubmitTimeout time.Duration `mapstructure:"submit_timeout"`
	// ConfirmPollInterval is the polling cadence while waiting for confirmation.
	ConfirmPollInterval time.Duration `mapstructure:"confirm_poll_interval"`
	// FeeDebounce is the quiet period before a fee estimation request is sent.
	FeeDebounce time.Duration `mapstructure:"fee_debounce"`
}

// PriceFeedConfig contains price tracker settings
type PriceFeedConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	URL      string        `mapstructure:"url"`
	Interval time.Duration `mapstructure:"interval"`
}

// PartnerConfig contains partner session settings
type PartnerConfig struct {
	SessionSecret string        `mapstructure:"session_secret"`
	SessionMaxAge time.Duration `mapstructure:"session_max_age"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// Load loads gateway configuration from file and environment variables
func Load(configPath string) (*GatewayConfig, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config GatewayConfig
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "60s")
	viper.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.database", "vault_gateway")

	// Network defaults
	viper.SetDefault("network.default", "futurenet")

	// Vault defaults
	viper.SetDefault("vault.contract_id", DefaultContractID)

	// Signer bridge defaults
	viper.SetDefault("signer.bridge_url", "http://localhost:8391")
	viper.SetDefault("signer.request_timeout", "60s")

	// Pipeline defaults
	viper.SetDefault("pipeline.envelope_ttl", "30s")
	viper.SetDefault("pipeline.base_fee", 100000)
	viper.SetDefault("pipeline.submit_timeout", "60s")
	viper.SetDefault("pipeline.confirm_poll_interval", "2s")
	viper.SetDefault("pipeline.fee_debounce", "400ms")

	// Price feed defaults
	viper.SetDefault("price_feed.enabled", false)
	viper.SetDefault("price_feed.interval", "15s")

	// Partner defaults
	viper.SetDefault("partner.session_max_age", "24h")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output_path", "stdout")
}

func validate(config *GatewayConfig) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if config.Vault.ContractID == "" {
		// Treat "no configured contract id" as "use the known default".
		config.Vault.ContractID = DefaultContractID
	}
	if config.Partner.SessionSecret == "" {
		return fmt.Errorf("partner.session_secret is required")
	}
	if config.Pipeline.EnvelopeTTL <= 0 {
		return fmt.Errorf("pipeline.envelope_ttl must be positive")
	}
	return nil
}

// GetConnectionString returns a postgres connection string
func (c *DatabaseConfig) GetConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}
