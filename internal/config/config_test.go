package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
mode = "standalone"

[market]
owner_address = "0x00000000000000000000000000000000000000a1"
fee_rate_bps = 500
custodian_seed = "test-seed"
`

func TestLoadMergesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Market.FeeRateBps != 500 {
		t.Errorf("fee rate = %d, want 500", cfg.Market.FeeRateBps)
	}
	// Untouched fields keep their defaults.
	if cfg.Server.Port != 8080 {
		t.Errorf("server port = %d, want default 8080", cfg.Server.Port)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MARKETD_SERVER_PORT", "9999")
	t.Setenv("MARKETD_MARKET_FEE_RATE_BPS", "750")

	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("server port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Market.FeeRateBps != 750 {
		t.Errorf("fee rate = %d, want 750", cfg.Market.FeeRateBps)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad mode", func(c *Config) { c.Mode = "cluster" }},
		{"missing seed", func(c *Config) { c.Market.CustodianSeed = "" }},
		{"missing owner", func(c *Config) { c.Market.OwnerAddress = "" }},
		{"malformed owner", func(c *Config) { c.Market.OwnerAddress = "not-an-address" }},
		{"fee rate too high", func(c *Config) { c.Market.FeeRateBps = 10_001 }},
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"archive without bucket", func(c *Config) { c.Archive.Enabled = true; c.S3.Bucket = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, minimalConfig))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate should have failed")
			}
		})
	}
}
