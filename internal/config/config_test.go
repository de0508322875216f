package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Address != ":8080" {
		t.Fatalf("address = %s, want :8080", cfg.Server.Address)
	}
	if cfg.System.AdminID != "admin" {
		t.Fatalf("admin id = %s, want admin", cfg.System.AdminID)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.DSN != "" {
		t.Fatalf("dsn = %s, want empty", cfg.Database.DSN)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  address: ":9090"
  rate_per_second: 50
database:
  dsn: "postgres://localhost/verification"
logging:
  level: debug
  format: json
system:
  admin_id: gov-admin
  oracle_id: oracle-7
  verification_fee: 25
  custody_account: treasury
providers:
  farm_registry:
    url: "https://registry.example.com"
    api_key: secret
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Address != ":9090" || cfg.Server.RatePerSecond != 50 {
		t.Fatalf("server = %+v", cfg.Server)
	}
	if cfg.Database.DSN != "postgres://localhost/verification" {
		t.Fatalf("dsn = %s", cfg.Database.DSN)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("log level = %s", cfg.Logging.Level)
	}
	if cfg.System.AdminID != "gov-admin" || cfg.System.VerificationFee != 25 {
		t.Fatalf("system = %+v", cfg.System)
	}
	if cfg.Providers.FarmRegistry.URL != "https://registry.example.com" {
		t.Fatalf("farm registry = %+v", cfg.Providers.FarmRegistry)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("VERIFIER_LISTEN_ADDR", ":7070")
	t.Setenv("VERIFIER_ADMIN_ID", "env-admin")
	t.Setenv("VERIFIER_FEE", "99")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Address != ":7070" {
		t.Fatalf("address = %s, want :7070", cfg.Server.Address)
	}
	if cfg.System.AdminID != "env-admin" {
		t.Fatalf("admin id = %s, want env-admin", cfg.System.AdminID)
	}
	if cfg.System.VerificationFee != 99 {
		t.Fatalf("fee = %d, want 99", cfg.System.VerificationFee)
	}
}
