package domain

import "github.com/ethereum/go-ethereum/common"

// Auction is a timed-auction record. The zero HighestBidder address together
// with a zero HighestBid means no bid has been placed yet; the two fields move
// together (HighestBid == 0 iff HighestBidder is the zero address).
type Auction struct {
	AuctionID       uint64         `json:"auction_id"`
	Asset           AssetID        `json:"asset"`
	Seller          common.Address `json:"seller"`
	MinBid          uint64         `json:"min_bid"`
	CreatedAt       int64          `json:"created_at"`
	DurationSeconds int64          `json:"duration_seconds"`
	HighestBidder   common.Address `json:"highest_bidder"`
	HighestBid      uint64         `json:"highest_bid"`
}

// HasBid reports whether any bid stands on the auction.
func (a Auction) HasBid() bool { return a.HighestBid > 0 }

// EndsAt is the unix second at which the bidding window closes. Bids are
// accepted through this instant; Claim is allowed only strictly after it.
func (a Auction) EndsAt() int64 { return a.CreatedAt + a.DurationSeconds }

// Expired reports whether the bidding window has closed at the given unix
// second.
func (a Auction) Expired(now int64) bool { return now > a.EndsAt() }

// BidEscrow is value locked against a specific bid, held by the custodian. At
// most one exists per (asset, bidder) pair, and after any successful operation
// the only escrow still holding funds for an auction is the current highest
// bidder's.
type BidEscrow struct {
	Asset  AssetID        `json:"asset"`
	Bidder common.Address `json:"bidder"`
	Amount uint64         `json:"amount"`
}
