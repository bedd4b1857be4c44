// Package config defines the top-level configuration for the marketplace
// daemon and provides validation helpers.
package config

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by MARKETD_* environment
// variables.
type Config struct {
	Market   MarketConfig   `toml:"market"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	Archive  ArchiveConfig  `toml:"archive"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// MarketConfig holds the initial marketplace parameters used to bootstrap
// the configuration singleton. After the first start they are owned by the
// on-ledger config and changed only through the admin operations.
type MarketConfig struct {
	OwnerAddress  string `toml:"owner_address"`
	FeeRateBps    uint64 `toml:"fee_rate_bps"`
	FeeRecipient  string `toml:"fee_recipient"`
	CustodianSeed string `toml:"custodian_seed"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for the event
// archiver.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ServerConfig holds the HTTP API parameters.
type ServerConfig struct {
	Port            int      `toml:"port"`
	CORSOrigins     []string `toml:"cors_origins"`
	APIKey          string   `toml:"api_key"`
	RateLimitPerSec int      `toml:"rate_limit_per_sec"`
}

// NotifyConfig holds optional settlement notification parameters.
type NotifyConfig struct {
	TelegramBotToken string `toml:"telegram_bot_token"`
	TelegramChatID   string `toml:"telegram_chat_id"`
	DiscordWebhook   string `toml:"discord_webhook"`
	MinAmount        uint64 `toml:"min_amount"`
}

// ArchiveConfig controls the periodic event archive to object storage.
type ArchiveConfig struct {
	Enabled         bool `toml:"enabled"`
	IntervalMinutes int  `toml:"interval_minutes"`
}

// Defaults returns a Config populated with sane development defaults.
func Defaults() Config {
	return Config{
		Mode:     "standalone",
		LogLevel: "info",
		Market: MarketConfig{
			FeeRateBps:    250,
			CustodianSeed: "marketd-dev",
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "marketd",
			User:          "marketd",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
		},
		Server: ServerConfig{
			Port:            8080,
			RateLimitPerSec: 20,
		},
		Archive: ArchiveConfig{
			IntervalMinutes: 60,
		},
	}
}

// Validate checks the configuration for structural problems. It is invoked
// once after Load, before any dependency is wired.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Mode) {
	case "serve", "standalone":
	default:
		return fmt.Errorf("config: unsupported mode %q", c.Mode)
	}

	if c.Market.CustodianSeed == "" {
		return fmt.Errorf("config: market.custodian_seed is required")
	}
	if c.Market.OwnerAddress == "" {
		return fmt.Errorf("config: market.owner_address is required")
	}
	if !common.IsHexAddress(c.Market.OwnerAddress) {
		return fmt.Errorf("config: market.owner_address %q is not a hex address", c.Market.OwnerAddress)
	}
	if c.Market.FeeRecipient != "" && !common.IsHexAddress(c.Market.FeeRecipient) {
		return fmt.Errorf("config: market.fee_recipient %q is not a hex address", c.Market.FeeRecipient)
	}
	if c.Market.FeeRateBps > 10_000 {
		return fmt.Errorf("config: market.fee_rate_bps %d exceeds 10000", c.Market.FeeRateBps)
	}

	if strings.ToLower(c.Mode) == "serve" {
		if c.Postgres.DSN == "" && (c.Postgres.Host == "" || c.Postgres.Database == "") {
			return fmt.Errorf("config: postgres connection parameters are required in serve mode")
		}
		if c.Redis.Addr == "" {
			return fmt.Errorf("config: redis.addr is required in serve mode")
		}
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}

	if c.Archive.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("config: s3.bucket is required when archiving is enabled")
		}
		if c.Archive.IntervalMinutes <= 0 {
			return fmt.Errorf("config: archive.interval_minutes must be positive")
		}
	}
	return nil
}
