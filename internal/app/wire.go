package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	s3blob "github.com/nftbay/marketd/internal/blob/s3"
	"github.com/nftbay/marketd/internal/cache/redis"
	"github.com/nftbay/marketd/internal/config"
	"github.com/nftbay/marketd/internal/custodian"
	"github.com/nftbay/marketd/internal/domain"
	"github.com/nftbay/marketd/internal/market"
	"github.com/nftbay/marketd/internal/notify"
	"github.com/nftbay/marketd/internal/store/memory"
	"github.com/nftbay/marketd/internal/store/postgres"
)

// Dependencies bundles everything the serve loop needs. It is constructed by
// Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Store  domain.Store
	Engine *market.Engine

	// EventBus and RateLimiter are nil in standalone mode.
	EventBus    *redis.EventBus
	RateLimiter *redis.RateLimiter

	// Archiver and ArchiveReader are nil unless archiving is enabled.
	Archiver      *s3blob.Archiver
	ArchiveReader *s3blob.Reader

	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}
	standalone := strings.ToLower(cfg.Mode) == "standalone"

	// --- Store ---
	if standalone {
		deps.Store = memory.New()
	} else {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}
		deps.Store = postgres.NewStore(pgClient)
	}

	// --- Redis (serve mode only) ---
	if !standalone {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.EventBus = redis.NewEventBus(redisClient, logger)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramBotToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramBotToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhook != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhook))
	}
	deps.Notifier = notify.NewNotifier(senders, nil, logger)

	// --- Engine ---
	cust, err := custodian.Derive(cfg.Market.CustodianSeed)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: custodian: %w", err)
	}

	var emitters []domain.Emitter
	if deps.EventBus != nil {
		emitters = append(emitters, deps.EventBus)
	}
	if len(senders) > 0 {
		emitters = append(emitters, notify.NewSettlementEmitter(deps.Notifier, cfg.Notify.MinAmount))
	}
	if standalone {
		emitters = append(emitters, logEmitter{logger: logger})
	}

	deps.Engine = market.New(deps.Store, cust, domain.MultiEmitter(emitters...), logger)

	owner := common.HexToAddress(cfg.Market.OwnerAddress)
	recipient := owner
	if cfg.Market.FeeRecipient != "" {
		recipient = common.HexToAddress(cfg.Market.FeeRecipient)
	}
	if err := deps.Engine.Bootstrap(ctx, domain.MarketplaceConfig{
		Owner:        owner,
		FeeRateBps:   cfg.Market.FeeRateBps,
		FeeRecipient: recipient,
	}); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: bootstrap: %w", err)
	}

	// --- S3 event archive (optional) ---
	if cfg.Archive.Enabled && deps.EventBus != nil {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		writer := s3blob.NewWriter(s3Client)
		interval := time.Duration(cfg.Archive.IntervalMinutes) * time.Minute
		deps.Archiver = s3blob.NewArchiver(deps.EventBus, writer, interval, logger)
		deps.ArchiveReader = s3blob.NewReader(s3Client)
	}

	return deps, cleanup, nil
}

// logEmitter writes every committed event to the structured log. Standalone
// mode has no event bus, so the log is the only event trail.
type logEmitter struct {
	logger *slog.Logger
}

func (l logEmitter) Emit(ctx context.Context, events ...domain.Event) {
	for _, ev := range events {
		l.logger.InfoContext(ctx, "event", slog.String("kind", ev.Kind()), slog.Any("payload", ev))
	}
}
