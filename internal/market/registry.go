package market

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/nftbay/marketd/internal/domain"
)

// SetOwner transfers administrative control of the marketplace. Only the
// current owner may call it. Custody is unaffected: held assets and open
// listings/auctions stay under the custodian identity.
func (e *Engine) SetOwner(ctx context.Context, caller, newOwner common.Address) error {
	return e.run(ctx, func(tx domain.Tx, evs *[]domain.Event) error {
		cfg, err := e.config(tx)
		if err != nil {
			return fmt.Errorf("market: set owner: %w", err)
		}
		if caller != cfg.Owner {
			return fmt.Errorf("market: set owner by %s: %w", caller, domain.ErrUnauthorized)
		}
		prev := cfg.Owner
		cfg.Owner = newOwner
		if err := tx.SetConfig(cfg); err != nil {
			return fmt.Errorf("market: set owner: %w", err)
		}
		*evs = append(*evs, domain.OwnerChangedEvent{Previous: prev, Owner: newOwner, At: e.nowFn()})
		return nil
	})
}

// SetFeeRate updates the platform cut. Rates above the basis-point
// denominator are rejected outright: together with a royalty they could only
// ever produce an underflowing remainder at settlement.
func (e *Engine) SetFeeRate(ctx context.Context, caller common.Address, rateBps uint64) error {
	return e.run(ctx, func(tx domain.Tx, evs *[]domain.Event) error {
		cfg, err := e.config(tx)
		if err != nil {
			return fmt.Errorf("market: set fee rate: %w", err)
		}
		if caller != cfg.Owner {
			return fmt.Errorf("market: set fee rate by %s: %w", caller, domain.ErrUnauthorized)
		}
		if rateBps > domain.FeeDenominator {
			return fmt.Errorf("market: fee rate %d bps: %w", rateBps, domain.ErrFeeRateTooHigh)
		}
		prev := cfg.FeeRateBps
		cfg.FeeRateBps = rateBps
		if err := tx.SetConfig(cfg); err != nil {
			return fmt.Errorf("market: set fee rate: %w", err)
		}
		*evs = append(*evs, domain.FeeRateChangedEvent{Previous: prev, RateBps: rateBps, At: e.nowFn()})
		return nil
	})
}

// SetFeeRecipient updates where the platform cut is paid.
func (e *Engine) SetFeeRecipient(ctx context.Context, caller, recipient common.Address) error {
	return e.run(ctx, func(tx domain.Tx, evs *[]domain.Event) error {
		cfg, err := e.config(tx)
		if err != nil {
			return fmt.Errorf("market: set fee recipient: %w", err)
		}
		if caller != cfg.Owner {
			return fmt.Errorf("market: set fee recipient by %s: %w", caller, domain.ErrUnauthorized)
		}
		prev := cfg.FeeRecipient
		cfg.FeeRecipient = recipient
		if err := tx.SetConfig(cfg); err != nil {
			return fmt.Errorf("market: set fee recipient: %w", err)
		}
		*evs = append(*evs, domain.FeeRecipientChangedEvent{Previous: prev, Recipient: recipient, At: e.nowFn()})
		return nil
	})
}
