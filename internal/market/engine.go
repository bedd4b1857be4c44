// Package market implements the marketplace-and-auction escrow engine: the
// listing and auction state machines, bid escrow management, and the shared
// fee/royalty settlement arithmetic. Every operation runs as one transaction
// against a domain.Store; a failed operation leaves all ledgers, custody, and
// balances untouched.
package market

import (
	"context"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/nftbay/marketd/internal/custodian"
	"github.com/nftbay/marketd/internal/domain"
)

// Engine owns all state transitions of the marketplace. It never polls:
// every transition is triggered by a caller and runs to completion or aborts
// within a single Store.Do.
type Engine struct {
	store  domain.Store
	cust   *custodian.Custodian
	emit   domain.Emitter
	logger *slog.Logger
	nowFn  func() int64
}

// New creates an Engine. A nil emitter is replaced with a no-op one.
func New(store domain.Store, cust *custodian.Custodian, emitter domain.Emitter, logger *slog.Logger) *Engine {
	if emitter == nil {
		emitter = domain.NopEmitter{}
	}
	return &Engine{
		store:  store,
		cust:   cust,
		emit:   emitter,
		logger: logger.With(slog.String("component", "market")),
		nowFn:  func() int64 { return time.Now().Unix() },
	}
}

// SetNowFunc overrides the time source for deterministic tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// Custodian resolves the engine's custody identity.
func (e *Engine) Custodian() common.Address {
	return e.cust.Address()
}

// Bootstrap creates the marketplace configuration singleton if it does not
// exist yet. Subsequent calls are no-ops, so a restart never clobbers
// configuration changed through the admin operations since first deployment.
func (e *Engine) Bootstrap(ctx context.Context, cfg domain.MarketplaceConfig) error {
	return e.store.Do(ctx, func(tx domain.Tx) error {
		if _, ok, err := tx.Config(); err != nil {
			return err
		} else if ok {
			return nil
		}
		return tx.SetConfig(cfg)
	})
}

// config loads the singleton inside a transaction; the engine refuses to
// operate before Bootstrap has run.
func (e *Engine) config(tx domain.Tx) (domain.MarketplaceConfig, error) {
	cfg, ok, err := tx.Config()
	if err != nil {
		return domain.MarketplaceConfig{}, err
	}
	if !ok {
		return domain.MarketplaceConfig{}, domain.ErrNotFound
	}
	return cfg, nil
}

// run executes op transactionally and, on commit, emits the events the
// operation collected. Events are never emitted for an aborted operation.
func (e *Engine) run(ctx context.Context, op func(tx domain.Tx, evs *[]domain.Event) error) error {
	var evs []domain.Event
	if err := e.store.Do(ctx, func(tx domain.Tx) error {
		return op(tx, &evs)
	}); err != nil {
		return err
	}
	e.emit.Emit(ctx, evs...)
	return nil
}
