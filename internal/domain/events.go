package domain

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// Event is a structured record of one successful ledger transition. Every
// mutating engine operation emits exactly one primary event (Bid additionally
// emits a BidRefunded for the outbid bidder).
type Event interface {
	// Kind is the dotted event name, e.g. "listing.created".
	Kind() string
}

// Emitter delivers events after an operation has committed. Implementations
// must not fail the operation: delivery problems are logged, never surfaced
// to the caller.
type Emitter interface {
	Emit(ctx context.Context, events ...Event)
}

// NopEmitter discards all events.
type NopEmitter struct{}

func (NopEmitter) Emit(context.Context, ...Event) {}

// MultiEmitter fans events out to every non-nil emitter in order.
func MultiEmitter(emitters ...Emitter) Emitter {
	out := make(multiEmitter, 0, len(emitters))
	for _, e := range emitters {
		if e != nil {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return NopEmitter{}
	}
	return out
}

type multiEmitter []Emitter

func (m multiEmitter) Emit(ctx context.Context, events ...Event) {
	for _, e := range m {
		e.Emit(ctx, events...)
	}
}

type ListedEvent struct {
	ListingID uint64         `json:"listing_id"`
	Asset     AssetID        `json:"asset"`
	Seller    common.Address `json:"seller"`
	Price     uint64         `json:"price"`
	At        int64          `json:"at"`
}

func (ListedEvent) Kind() string { return "listing.created" }

type DelistedEvent struct {
	ListingID uint64         `json:"listing_id"`
	Asset     AssetID        `json:"asset"`
	Seller    common.Address `json:"seller"`
	At        int64          `json:"at"`
}

func (DelistedEvent) Kind() string { return "listing.delisted" }

type BoughtEvent struct {
	ListingID uint64         `json:"listing_id"`
	Asset     AssetID        `json:"asset"`
	Seller    common.Address `json:"seller"`
	Buyer     common.Address `json:"buyer"`
	Price     uint64         `json:"price"`
	Fee       uint64         `json:"fee"`
	Royalty   uint64         `json:"royalty"`
	At        int64          `json:"at"`
}

func (BoughtEvent) Kind() string { return "listing.bought" }

type AuctionInitiatedEvent struct {
	AuctionID       uint64         `json:"auction_id"`
	Asset           AssetID        `json:"asset"`
	Seller          common.Address `json:"seller"`
	MinBid          uint64         `json:"min_bid"`
	DurationSeconds int64          `json:"duration_seconds"`
	At              int64          `json:"at"`
}

func (AuctionInitiatedEvent) Kind() string { return "auction.initiated" }

type BidPlacedEvent struct {
	AuctionID uint64         `json:"auction_id"`
	Asset     AssetID        `json:"asset"`
	Bidder    common.Address `json:"bidder"`
	Amount    uint64         `json:"amount"`
	At        int64          `json:"at"`
}

func (BidPlacedEvent) Kind() string { return "auction.bid" }

// BidRefundedEvent records the synchronous refund of an outbid bidder's
// escrow. It accompanies the BidPlacedEvent of the bid that displaced it.
type BidRefundedEvent struct {
	AuctionID uint64         `json:"auction_id"`
	Asset     AssetID        `json:"asset"`
	Bidder    common.Address `json:"bidder"`
	Amount    uint64         `json:"amount"`
	At        int64          `json:"at"`
}

func (BidRefundedEvent) Kind() string { return "auction.bid_refunded" }

type AuctionCancelledEvent struct {
	AuctionID uint64         `json:"auction_id"`
	Asset     AssetID        `json:"asset"`
	Seller    common.Address `json:"seller"`
	At        int64          `json:"at"`
}

func (AuctionCancelledEvent) Kind() string { return "auction.cancelled" }

type ClaimedEvent struct {
	AuctionID uint64         `json:"auction_id"`
	Asset     AssetID        `json:"asset"`
	Seller    common.Address `json:"seller"`
	Winner    common.Address `json:"winner"`
	Amount    uint64         `json:"amount"`
	Fee       uint64         `json:"fee"`
	Royalty   uint64         `json:"royalty"`
	At        int64          `json:"at"`
}

func (ClaimedEvent) Kind() string { return "auction.claimed" }

type OwnerChangedEvent struct {
	Previous common.Address `json:"previous"`
	Owner    common.Address `json:"owner"`
	At       int64          `json:"at"`
}

func (OwnerChangedEvent) Kind() string { return "admin.owner_changed" }

type FeeRateChangedEvent struct {
	Previous uint64 `json:"previous"`
	RateBps  uint64 `json:"rate_bps"`
	At       int64  `json:"at"`
}

func (FeeRateChangedEvent) Kind() string { return "admin.fee_rate_changed" }

type FeeRecipientChangedEvent struct {
	Previous  common.Address `json:"previous"`
	Recipient common.Address `json:"recipient"`
	At        int64          `json:"at"`
}

func (FeeRecipientChangedEvent) Kind() string { return "admin.fee_recipient_changed" }
