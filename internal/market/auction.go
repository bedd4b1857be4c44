package market

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/nftbay/marketd/internal/domain"
)

// InitiateAuction withdraws the asset from the caller into custody and opens
// a timed auction with no standing bid. Like List, it refuses an asset that
// already sits in either ledger.
func (e *Engine) InitiateAuction(ctx context.Context, caller common.Address, asset domain.AssetID, minBid uint64, durationSeconds int64) (uint64, error) {
	var auctionID uint64
	err := e.run(ctx, func(tx domain.Tx, evs *[]domain.Event) error {
		if _, ok, err := tx.GetAuction(asset); err != nil {
			return fmt.Errorf("market: initiate auction %s: %w", asset, err)
		} else if ok {
			return fmt.Errorf("market: initiate auction %s: %w", asset, domain.ErrAlreadyExists)
		}
		if _, ok, err := tx.GetListing(asset); err != nil {
			return fmt.Errorf("market: initiate auction %s: %w", asset, err)
		} else if ok {
			return fmt.Errorf("market: initiate auction %s: listed: %w", asset, domain.ErrAlreadyExists)
		}

		if err := tx.TransferAsset(caller, e.cust.Address(), asset); err != nil {
			return fmt.Errorf("market: initiate auction %s: %w", asset, err)
		}

		id, err := e.cust.NextID(tx)
		if err != nil {
			return fmt.Errorf("market: initiate auction %s: next id: %w", asset, err)
		}
		now := e.nowFn()
		a := domain.Auction{
			AuctionID:       id,
			Asset:           asset,
			Seller:          caller,
			MinBid:          minBid,
			CreatedAt:       now,
			DurationSeconds: durationSeconds,
		}
		if err := tx.PutAuction(a); err != nil {
			return fmt.Errorf("market: initiate auction %s: %w", asset, err)
		}

		auctionID = id
		*evs = append(*evs, domain.AuctionInitiatedEvent{
			AuctionID:       id,
			Asset:           asset,
			Seller:          caller,
			MinBid:          minBid,
			DurationSeconds: durationSeconds,
			At:              now,
		})
		return nil
	})
	if err != nil {
		return 0, err
	}
	return auctionID, nil
}

// Bid locks the caller's amount in escrow and makes it the standing bid. The
// previous high bidder's escrow is refunded in the same atomic step, so at
// commit only the new highest bidder has funds locked. A bid must meet the
// minimum and strictly exceed the standing bid; ties lose. A bidder raising
// their own bid has the old escrow refunded before the new amount is locked.
func (e *Engine) Bid(ctx context.Context, caller common.Address, asset domain.AssetID, amount uint64) error {
	return e.run(ctx, func(tx domain.Tx, evs *[]domain.Event) error {
		a, ok, err := tx.GetAuction(asset)
		if err != nil {
			return fmt.Errorf("market: bid %s: %w", asset, err)
		}
		if !ok {
			return fmt.Errorf("market: bid %s: %w", asset, domain.ErrNotFound)
		}
		if caller == a.Seller {
			return fmt.Errorf("market: bid %s: %w", asset, domain.ErrSelfBid)
		}
		now := e.nowFn()
		if now > a.EndsAt() {
			return fmt.Errorf("market: bid %s: %w", asset, domain.ErrAuctionExpired)
		}
		if amount < a.MinBid || amount <= a.HighestBid {
			return fmt.Errorf("market: bid %s: %d against min %d high %d: %w",
				asset, amount, a.MinBid, a.HighestBid, domain.ErrBidTooLow)
		}

		// Refund the displaced escrow first; within the transaction the
		// ordering is unobservable, and refund-first lets a bidder raise
		// their own bid without double funding.
		if a.HasBid() {
			prev, ok, err := tx.GetEscrow(asset, a.HighestBidder)
			if err != nil {
				return fmt.Errorf("market: bid %s: %w", asset, err)
			}
			if !ok {
				return fmt.Errorf("market: bid %s: escrow missing for high bidder %s", asset, a.HighestBidder)
			}
			if err := tx.TransferValue(e.cust.Address(), prev.Bidder, prev.Amount); err != nil {
				return fmt.Errorf("market: bid %s: refund: %w", asset, err)
			}
			if err := tx.DeleteEscrow(asset, prev.Bidder); err != nil {
				return fmt.Errorf("market: bid %s: %w", asset, err)
			}
			*evs = append(*evs, domain.BidRefundedEvent{
				AuctionID: a.AuctionID, Asset: asset, Bidder: prev.Bidder, Amount: prev.Amount, At: now,
			})
		}

		if err := tx.TransferValue(caller, e.cust.Address(), amount); err != nil {
			return fmt.Errorf("market: bid %s: %w", asset, err)
		}
		if err := tx.PutEscrow(domain.BidEscrow{Asset: asset, Bidder: caller, Amount: amount}); err != nil {
			return fmt.Errorf("market: bid %s: %w", asset, err)
		}

		a.HighestBidder = caller
		a.HighestBid = amount
		if err := tx.PutAuction(a); err != nil {
			return fmt.Errorf("market: bid %s: %w", asset, err)
		}

		*evs = append(*evs, domain.BidPlacedEvent{
			AuctionID: a.AuctionID, Asset: asset, Bidder: caller, Amount: amount, At: now,
		})
		return nil
	})
}

// CancelAuction returns the asset to the seller and removes the auction. It
// is only possible while no bid stands: a seller may not cancel out from
// under a committed bidder.
func (e *Engine) CancelAuction(ctx context.Context, caller common.Address, asset domain.AssetID) error {
	return e.run(ctx, func(tx domain.Tx, evs *[]domain.Event) error {
		a, ok, err := tx.GetAuction(asset)
		if err != nil {
			return fmt.Errorf("market: cancel auction %s: %w", asset, err)
		}
		if !ok {
			return fmt.Errorf("market: cancel auction %s: %w", asset, domain.ErrNotFound)
		}
		if caller != a.Seller {
			return fmt.Errorf("market: cancel auction %s by %s: %w", asset, caller, domain.ErrUnauthorized)
		}
		if a.HasBid() {
			return fmt.Errorf("market: cancel auction %s: %w", asset, domain.ErrBidderExists)
		}

		if err := tx.TransferAsset(e.cust.Address(), caller, asset); err != nil {
			return fmt.Errorf("market: cancel auction %s: %w", asset, err)
		}
		if err := tx.DeleteAuction(asset); err != nil {
			return fmt.Errorf("market: cancel auction %s: %w", asset, err)
		}

		*evs = append(*evs, domain.AuctionCancelledEvent{
			AuctionID: a.AuctionID, Asset: asset, Seller: a.Seller, At: e.nowFn(),
		})
		return nil
	})
}

// Claim settles an expired auction. With a standing bid only the winning
// bidder may claim: their escrow is split into platform fee, creator royalty,
// and seller remainder, and the asset leaves custody for the winner. An
// auction that expired without a single bid can only be reclaimed by its
// seller, with no value movement. Claim is disallowed at the exact expiry
// instant; the window must have strictly passed.
func (e *Engine) Claim(ctx context.Context, caller common.Address, asset domain.AssetID) error {
	return e.run(ctx, func(tx domain.Tx, evs *[]domain.Event) error {
		a, ok, err := tx.GetAuction(asset)
		if err != nil {
			return fmt.Errorf("market: claim %s: %w", asset, err)
		}
		if !ok {
			return fmt.Errorf("market: claim %s: %w", asset, domain.ErrNotFound)
		}
		now := e.nowFn()
		if !a.Expired(now) {
			return fmt.Errorf("market: claim %s: ends at %d: %w", asset, a.EndsAt(), domain.ErrAuctionLive)
		}

		if !a.HasBid() {
			// Nothing was bid; the seller takes the asset back.
			if caller != a.Seller {
				return fmt.Errorf("market: claim %s by %s: no bids: %w", asset, caller, domain.ErrUnauthorized)
			}
			if err := tx.TransferAsset(e.cust.Address(), a.Seller, asset); err != nil {
				return fmt.Errorf("market: claim %s: %w", asset, err)
			}
			if err := tx.DeleteAuction(asset); err != nil {
				return fmt.Errorf("market: claim %s: %w", asset, err)
			}
			*evs = append(*evs, domain.ClaimedEvent{
				AuctionID: a.AuctionID, Asset: asset, Seller: a.Seller, Winner: a.Seller, At: now,
			})
			return nil
		}

		if caller != a.HighestBidder {
			return fmt.Errorf("market: claim %s by %s: %w", asset, caller, domain.ErrUnauthorized)
		}

		esc, ok, err := tx.GetEscrow(asset, a.HighestBidder)
		if err != nil {
			return fmt.Errorf("market: claim %s: %w", asset, err)
		}
		if !ok {
			return fmt.Errorf("market: claim %s: escrow missing for winner %s", asset, a.HighestBidder)
		}

		cfg, err := e.config(tx)
		if err != nil {
			return fmt.Errorf("market: claim %s: %w", asset, err)
		}
		roy, err := tx.Royalty(asset)
		if err != nil {
			return fmt.Errorf("market: claim %s: royalty: %w", asset, err)
		}
		sp, err := computeSplit(esc.Amount, cfg.FeeRateBps, roy)
		if err != nil {
			return fmt.Errorf("market: claim %s: %w", asset, err)
		}

		// The escrow funds sit with the custodian; the split pays out of
		// custody, not out of the claimant's balance.
		if err := paySplit(tx, e.cust.Address(), a.Seller, cfg, roy, sp); err != nil {
			return fmt.Errorf("market: claim %s: %w", asset, err)
		}
		if err := tx.TransferAsset(e.cust.Address(), caller, asset); err != nil {
			return fmt.Errorf("market: claim %s: %w", asset, err)
		}
		if err := tx.DeleteEscrow(asset, a.HighestBidder); err != nil {
			return fmt.Errorf("market: claim %s: %w", asset, err)
		}
		if err := tx.DeleteAuction(asset); err != nil {
			return fmt.Errorf("market: claim %s: %w", asset, err)
		}

		*evs = append(*evs, domain.ClaimedEvent{
			AuctionID: a.AuctionID,
			Asset:     asset,
			Seller:    a.Seller,
			Winner:    caller,
			Amount:    esc.Amount,
			Fee:       sp.Fee,
			Royalty:   sp.Royalty,
			At:        now,
		})
		return nil
	})
}
