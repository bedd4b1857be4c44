package notify

import (
	"context"
	"fmt"

	"github.com/nftbay/marketd/internal/domain"
)

// SettlementEmitter implements domain.Emitter and turns high-value
// settlements into operator notifications. Sales and auction claims at or
// above minAmount are forwarded; everything else is ignored.
type SettlementEmitter struct {
	notifier  *Notifier
	minAmount uint64
}

var _ domain.Emitter = (*SettlementEmitter)(nil)

// NewSettlementEmitter creates a SettlementEmitter delivering through the
// given Notifier.
func NewSettlementEmitter(notifier *Notifier, minAmount uint64) *SettlementEmitter {
	return &SettlementEmitter{
		notifier:  notifier,
		minAmount: minAmount,
	}
}

// Emit inspects each event and notifies on qualifying settlements. Delivery
// failures are already logged by the Notifier and never propagate.
func (s *SettlementEmitter) Emit(ctx context.Context, events ...domain.Event) {
	for _, ev := range events {
		switch e := ev.(type) {
		case domain.BoughtEvent:
			if e.Price < s.minAmount {
				continue
			}
			_ = s.notifier.Notify(ctx, e.Kind(), "Listing sold",
				fmt.Sprintf("%s sold to %s for %d (fee %d, royalty %d)",
					e.Asset.Key(), e.Buyer.Hex(), e.Price, e.Fee, e.Royalty))
		case domain.ClaimedEvent:
			if e.Amount < s.minAmount {
				continue
			}
			_ = s.notifier.Notify(ctx, e.Kind(), "Auction settled",
				fmt.Sprintf("%s claimed by %s for %d (fee %d, royalty %d)",
					e.Asset.Key(), e.Winner.Hex(), e.Amount, e.Fee, e.Royalty))
		}
	}
}
