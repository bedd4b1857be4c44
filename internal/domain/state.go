package domain

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// Tx is the transactional view of all engine state: the three unique-key
// ledgers, the marketplace configuration singleton, the custodian id counter,
// and the host-ledger primitives (unique-asset transfer, value transfer,
// balance and royalty lookup). Every engine operation performs all of its
// reads, writes, and transfers against one Tx; if the operation returns an
// error nothing it did through the Tx is observed.
type Tx interface {
	// Listing ledger, keyed by AssetID.
	GetListing(asset AssetID) (Listing, bool, error)
	PutListing(l Listing) error
	DeleteListing(asset AssetID) error

	// Auction ledger, keyed by AssetID.
	GetAuction(asset AssetID) (Auction, bool, error)
	PutAuction(a Auction) error
	DeleteAuction(asset AssetID) error

	// Bid escrow table, keyed by (AssetID, bidder).
	GetEscrow(asset AssetID, bidder common.Address) (BidEscrow, bool, error)
	PutEscrow(e BidEscrow) error
	DeleteEscrow(asset AssetID, bidder common.Address) error

	// Marketplace configuration singleton.
	Config() (MarketplaceConfig, bool, error)
	SetConfig(cfg MarketplaceConfig) error

	// NextID returns the next strictly increasing identifier issued under the
	// custodian identity. Ids are never reused, even across failed operations
	// of the same transaction's siblings, because the increment commits with
	// the operation that consumed it.
	NextID() (uint64, error)

	// Host-ledger primitives. Each moves custody atomically within the
	// enclosing transaction and fails without side effects:
	// TransferAsset with ErrInsufficientAsset when from does not hold the
	// asset, TransferValue with ErrInsufficientFunds when from's balance is
	// short.
	TransferAsset(from, to common.Address, asset AssetID) error
	TransferValue(from, to common.Address, amount uint64) error
	Balance(account common.Address) (uint64, error)

	// Royalty returns the creator royalty terms for an asset. The zero
	// RoyaltyInfo (Denominator == 0) means no royalty is due.
	Royalty(asset AssetID) (RoyaltyInfo, error)
}

// Store runs engine operations transactionally and serves the read-only
// query surface. Do executes fn against a fresh Tx and commits its effects
// iff fn returns nil; a non-nil error discards every mutation. Calls to Do
// are serializable with respect to each other.
type Store interface {
	Do(ctx context.Context, fn func(tx Tx) error) error

	// Read-side queries, outside the transition engine.
	ListListings(ctx context.Context) ([]Listing, error)
	ListAuctions(ctx context.Context) ([]Auction, error)
	GetListing(ctx context.Context, asset AssetID) (Listing, error)
	GetAuction(ctx context.Context, asset AssetID) (Auction, error)
	GetConfig(ctx context.Context) (MarketplaceConfig, error)
}
