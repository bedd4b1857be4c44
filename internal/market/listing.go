package market

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/nftbay/marketd/internal/domain"
)

// List withdraws the asset from the caller into custody and opens a
// fixed-price listing. An asset can be in at most one ledger at a time: a
// standing listing or auction for the same AssetID rejects the call.
func (e *Engine) List(ctx context.Context, caller common.Address, asset domain.AssetID, price uint64) (uint64, error) {
	var listingID uint64
	err := e.run(ctx, func(tx domain.Tx, evs *[]domain.Event) error {
		if _, ok, err := tx.GetListing(asset); err != nil {
			return fmt.Errorf("market: list %s: %w", asset, err)
		} else if ok {
			return fmt.Errorf("market: list %s: %w", asset, domain.ErrAlreadyExists)
		}
		if _, ok, err := tx.GetAuction(asset); err != nil {
			return fmt.Errorf("market: list %s: %w", asset, err)
		} else if ok {
			return fmt.Errorf("market: list %s: under auction: %w", asset, domain.ErrAlreadyExists)
		}

		if err := tx.TransferAsset(caller, e.cust.Address(), asset); err != nil {
			return fmt.Errorf("market: list %s: %w", asset, err)
		}

		id, err := e.cust.NextID(tx)
		if err != nil {
			return fmt.Errorf("market: list %s: next id: %w", asset, err)
		}
		now := e.nowFn()
		l := domain.Listing{
			ListingID: id,
			Asset:     asset,
			Seller:    caller,
			Price:     price,
			CreatedAt: now,
		}
		if err := tx.PutListing(l); err != nil {
			return fmt.Errorf("market: list %s: %w", asset, err)
		}

		listingID = id
		*evs = append(*evs, domain.ListedEvent{
			ListingID: id, Asset: asset, Seller: caller, Price: price, At: now,
		})
		return nil
	})
	if err != nil {
		return 0, err
	}
	return listingID, nil
}

// Delist returns the custodied asset to its seller and removes the listing.
func (e *Engine) Delist(ctx context.Context, caller common.Address, asset domain.AssetID) error {
	return e.run(ctx, func(tx domain.Tx, evs *[]domain.Event) error {
		l, ok, err := tx.GetListing(asset)
		if err != nil {
			return fmt.Errorf("market: delist %s: %w", asset, err)
		}
		if !ok {
			return fmt.Errorf("market: delist %s: %w", asset, domain.ErrNotFound)
		}
		if caller != l.Seller {
			return fmt.Errorf("market: delist %s by %s: %w", asset, caller, domain.ErrUnauthorized)
		}

		if err := tx.TransferAsset(e.cust.Address(), caller, asset); err != nil {
			return fmt.Errorf("market: delist %s: %w", asset, err)
		}
		if err := tx.DeleteListing(asset); err != nil {
			return fmt.Errorf("market: delist %s: %w", asset, err)
		}

		*evs = append(*evs, domain.DelistedEvent{
			ListingID: l.ListingID, Asset: asset, Seller: l.Seller, At: e.nowFn(),
		})
		return nil
	})
}

// Buy settles a listing at its asking price: the platform fee, creator
// royalty, and seller remainder are paid from the buyer's balance, the asset
// leaves custody for the buyer, and the listing is removed. Either all of it
// happens or none of it does.
func (e *Engine) Buy(ctx context.Context, caller common.Address, asset domain.AssetID) error {
	return e.run(ctx, func(tx domain.Tx, evs *[]domain.Event) error {
		l, ok, err := tx.GetListing(asset)
		if err != nil {
			return fmt.Errorf("market: buy %s: %w", asset, err)
		}
		if !ok {
			return fmt.Errorf("market: buy %s: %w", asset, domain.ErrNotFound)
		}
		if caller == l.Seller {
			return fmt.Errorf("market: buy %s: %w", asset, domain.ErrSelfTrade)
		}

		cfg, err := e.config(tx)
		if err != nil {
			return fmt.Errorf("market: buy %s: %w", asset, err)
		}
		roy, err := tx.Royalty(asset)
		if err != nil {
			return fmt.Errorf("market: buy %s: royalty: %w", asset, err)
		}
		sp, err := computeSplit(l.Price, cfg.FeeRateBps, roy)
		if err != nil {
			return fmt.Errorf("market: buy %s: %w", asset, err)
		}

		balance, err := tx.Balance(caller)
		if err != nil {
			return fmt.Errorf("market: buy %s: %w", asset, err)
		}
		if balance < l.Price {
			return fmt.Errorf("market: buy %s: balance %d below price %d: %w",
				asset, balance, l.Price, domain.ErrInsufficientFunds)
		}

		if err := paySplit(tx, caller, l.Seller, cfg, roy, sp); err != nil {
			return fmt.Errorf("market: buy %s: %w", asset, err)
		}
		if err := tx.TransferAsset(e.cust.Address(), caller, asset); err != nil {
			return fmt.Errorf("market: buy %s: %w", asset, err)
		}
		if err := tx.DeleteListing(asset); err != nil {
			return fmt.Errorf("market: buy %s: %w", asset, err)
		}

		*evs = append(*evs, domain.BoughtEvent{
			ListingID: l.ListingID,
			Asset:     asset,
			Seller:    l.Seller,
			Buyer:     caller,
			Price:     l.Price,
			Fee:       sp.Fee,
			Royalty:   sp.Royalty,
			At:        e.nowFn(),
		})
		return nil
	})
}

// BatchList opens one listing per (asset, price) pair, in order. Batches are
// best-effort: entries already committed stay committed when a later entry
// fails. The returned ids cover the committed prefix.
func (e *Engine) BatchList(ctx context.Context, caller common.Address, assets []domain.AssetID, prices []uint64) ([]uint64, error) {
	if len(assets) != len(prices) {
		return nil, fmt.Errorf("market: batch list: %d assets vs %d prices: %w",
			len(assets), len(prices), domain.ErrLengthMismatch)
	}
	ids := make([]uint64, 0, len(assets))
	for i, asset := range assets {
		id, err := e.List(ctx, caller, asset, prices[i])
		if err != nil {
			return ids, fmt.Errorf("market: batch list entry %d: %w", i, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// BatchDelist delists the given assets in order, best-effort. The returned
// count is the committed prefix length.
func (e *Engine) BatchDelist(ctx context.Context, caller common.Address, assets []domain.AssetID) (int, error) {
	for i, asset := range assets {
		if err := e.Delist(ctx, caller, asset); err != nil {
			return i, fmt.Errorf("market: batch delist entry %d: %w", i, err)
		}
	}
	return len(assets), nil
}

// BatchBuy buys the given assets in order, best-effort. The returned count is
// the committed prefix length.
func (e *Engine) BatchBuy(ctx context.Context, caller common.Address, assets []domain.AssetID) (int, error) {
	for i, asset := range assets {
		if err := e.Buy(ctx, caller, asset); err != nil {
			return i, fmt.Errorf("market: batch buy entry %d: %w", i, err)
		}
	}
	return len(assets), nil
}
