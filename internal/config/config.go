// Package config loads the service configuration from YAML with environment
// overrides for deployment-specific values.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/AgriSubsidy-Network/verification_layer/pkg/logger"
)

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig         `yaml:"server"`
	Database  DatabaseConfig       `yaml:"database"`
	Logging   logger.LoggingConfig `yaml:"logging"`
	Providers ProvidersConfig      `yaml:"providers"`
	System    SystemConfig         `yaml:"system"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Address       string `yaml:"address"`
	RatePerSecond int    `yaml:"rate_per_second"`
	RateBurst     int    `yaml:"rate_burst"`
	AccessLogPath string `yaml:"access_log_path"`
}

// DatabaseConfig controls the PostgreSQL store. An empty DSN selects the
// in-memory store.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// ProviderEndpoint is one external collaborator HTTP endpoint. An empty URL
// selects the in-memory fake.
type ProviderEndpoint struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

// ProvidersConfig holds the collaborator endpoints.
type ProvidersConfig struct {
	FarmRegistry ProviderEndpoint `yaml:"farm_registry"`
	Policy       ProviderEndpoint `yaml:"policy"`
	Oracle       ProviderEndpoint `yaml:"oracle"`
	Applications ProviderEndpoint `yaml:"applications"`
	Custody      ProviderEndpoint `yaml:"custody"`
	Clock        ProviderEndpoint `yaml:"clock"`
}

// SystemConfig seeds the configuration singleton on first start.
type SystemConfig struct {
	AdminID         string `yaml:"admin_id"`
	OracleID        string `yaml:"oracle_id"`
	VerificationFee int64  `yaml:"verification_fee"`
	CustodyAccount  string `yaml:"custody_account"`
}

// Default returns a configuration suitable for local runs: in-memory store,
// in-memory providers and no rate limiting.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Address: ":8080",
		},
		Logging: logger.LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		System: SystemConfig{
			AdminID:        "admin",
			CustodyAccount: "verification-custody",
		},
	}
}

// Load reads the configuration file at path and applies environment
// overrides. A missing file is not an error; defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	if cfg.System.AdminID == "" {
		return Config{}, fmt.Errorf("system.admin_id is required")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Address, "VERIFIER_LISTEN_ADDR")
	setInt(&cfg.Server.RatePerSecond, "VERIFIER_RATE_PER_SECOND")
	setInt(&cfg.Server.RateBurst, "VERIFIER_RATE_BURST")
	setString(&cfg.Server.AccessLogPath, "VERIFIER_ACCESS_LOG")

	setString(&cfg.Database.DSN, "VERIFIER_DATABASE_DSN")

	setString(&cfg.Logging.Level, "VERIFIER_LOG_LEVEL")
	setString(&cfg.Logging.Format, "VERIFIER_LOG_FORMAT")

	setString(&cfg.Providers.FarmRegistry.URL, "VERIFIER_FARM_REGISTRY_URL")
	setString(&cfg.Providers.FarmRegistry.APIKey, "VERIFIER_FARM_REGISTRY_KEY")
	setString(&cfg.Providers.Policy.URL, "VERIFIER_POLICY_URL")
	setString(&cfg.Providers.Policy.APIKey, "VERIFIER_POLICY_KEY")
	setString(&cfg.Providers.Oracle.URL, "VERIFIER_ORACLE_URL")
	setString(&cfg.Providers.Oracle.APIKey, "VERIFIER_ORACLE_KEY")
	setString(&cfg.Providers.Applications.URL, "VERIFIER_APPLICATIONS_URL")
	setString(&cfg.Providers.Applications.APIKey, "VERIFIER_APPLICATIONS_KEY")
	setString(&cfg.Providers.Custody.URL, "VERIFIER_CUSTODY_URL")
	setString(&cfg.Providers.Custody.APIKey, "VERIFIER_CUSTODY_KEY")
	setString(&cfg.Providers.Clock.URL, "VERIFIER_CLOCK_URL")
	setString(&cfg.Providers.Clock.APIKey, "VERIFIER_CLOCK_KEY")

	setString(&cfg.System.AdminID, "VERIFIER_ADMIN_ID")
	setString(&cfg.System.OracleID, "VERIFIER_ORACLE_ID")
	setInt64(&cfg.System.VerificationFee, "VERIFIER_FEE")
	setString(&cfg.System.CustodyAccount, "VERIFIER_CUSTODY_ACCOUNT")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

func setInt64(dst *int64, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = parsed
		}
	}
}
