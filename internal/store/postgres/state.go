package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"

	"github.com/nftbay/marketd/internal/domain"
)

// Store implements domain.Store. Do runs its function inside one
// serializable pgx transaction; the database rollback is what provides the
// engine's all-or-nothing commit.
type Store struct {
	client *Client
}

var _ domain.Store = (*Store)(nil)

// NewStore creates a Store backed by the given Client.
func NewStore(client *Client) *Store {
	return &Store{client: client}
}

// Do executes fn against a transaction-scoped domain.Tx, committing iff fn
// returns nil.
func (s *Store) Do(ctx context.Context, fn func(tx domain.Tx) error) error {
	pgtx, err := s.client.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = pgtx.Rollback(ctx) }()

	if err := fn(&tx{ctx: ctx, tx: pgtx}); err != nil {
		return err
	}
	if err := pgtx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

// amount columns are NUMERIC(20,0) so the full uint64 range fits; values
// cross the wire as decimal strings.
func formatAmount(v uint64) string { return strconv.FormatUint(v, 10) }

func parseAmount(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("postgres: parse amount %q: %w", s, err)
	}
	return v, nil
}

const listingCols = `asset_key, listing_id, creator, collection, name, edition, seller, price::text, created_at`

type rowScanner interface{ Scan(dest ...any) error }

func scanListing(sc rowScanner) (domain.Listing, error) {
	var (
		l                         domain.Listing
		assetKey, creator, seller string
		price                     string
		edition                   int64
	)
	err := sc.Scan(&assetKey, &l.ListingID, &creator, &l.Asset.Collection, &l.Asset.Name,
		&edition, &seller, &price, &l.CreatedAt)
	if err != nil {
		return domain.Listing{}, err
	}
	l.Asset.Creator = common.HexToAddress(creator)
	l.Asset.Edition = uint64(edition)
	l.Seller = common.HexToAddress(seller)
	if l.Price, err = parseAmount(price); err != nil {
		return domain.Listing{}, err
	}
	return l, nil
}

const auctionCols = `asset_key, auction_id, creator, collection, name, edition, seller,
	min_bid::text, created_at, duration_seconds, highest_bidder, highest_bid::text`

func scanAuction(sc rowScanner) (domain.Auction, error) {
	var (
		a                                 domain.Auction
		assetKey, creator, seller, bidder string
		minBid, highestBid                string
		edition                           int64
	)
	err := sc.Scan(&assetKey, &a.AuctionID, &creator, &a.Asset.Collection, &a.Asset.Name,
		&edition, &seller, &minBid, &a.CreatedAt, &a.DurationSeconds, &bidder, &highestBid)
	if err != nil {
		return domain.Auction{}, err
	}
	a.Asset.Creator = common.HexToAddress(creator)
	a.Asset.Edition = uint64(edition)
	a.Seller = common.HexToAddress(seller)
	a.HighestBidder = common.HexToAddress(bidder)
	if a.MinBid, err = parseAmount(minBid); err != nil {
		return domain.Auction{}, err
	}
	if a.HighestBid, err = parseAmount(highestBid); err != nil {
		return domain.Auction{}, err
	}
	return a, nil
}

// --- Read-side queries ---

func (s *Store) ListListings(ctx context.Context) ([]domain.Listing, error) {
	rows, err := s.client.pool.Query(ctx,
		`SELECT `+listingCols+` FROM listings ORDER BY listing_id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list listings: %w", err)
	}
	defer rows.Close()

	var out []domain.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan listing: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) ListAuctions(ctx context.Context) ([]domain.Auction, error) {
	rows, err := s.client.pool.Query(ctx,
		`SELECT `+auctionCols+` FROM auctions ORDER BY auction_id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list auctions: %w", err)
	}
	defer rows.Close()

	var out []domain.Auction
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan auction: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) GetListing(ctx context.Context, asset domain.AssetID) (domain.Listing, error) {
	row := s.client.pool.QueryRow(ctx,
		`SELECT `+listingCols+` FROM listings WHERE asset_key = $1`, asset.Key())
	l, err := scanListing(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Listing{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Listing{}, fmt.Errorf("postgres: get listing %s: %w", asset, err)
	}
	return l, nil
}

func (s *Store) GetAuction(ctx context.Context, asset domain.AssetID) (domain.Auction, error) {
	row := s.client.pool.QueryRow(ctx,
		`SELECT `+auctionCols+` FROM auctions WHERE asset_key = $1`, asset.Key())
	a, err := scanAuction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Auction{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Auction{}, fmt.Errorf("postgres: get auction %s: %w", asset, err)
	}
	return a, nil
}

func (s *Store) GetConfig(ctx context.Context) (domain.MarketplaceConfig, error) {
	var ownerAddr, feeRecipient string
	var feeRate int64
	err := s.client.pool.QueryRow(ctx,
		`SELECT owner_addr, fee_rate_bps, fee_recipient FROM marketplace_config`,
	).Scan(&ownerAddr, &feeRate, &feeRecipient)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.MarketplaceConfig{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.MarketplaceConfig{}, fmt.Errorf("postgres: get config: %w", err)
	}
	return domain.MarketplaceConfig{
		Owner:        common.HexToAddress(ownerAddr),
		FeeRateBps:   uint64(feeRate),
		FeeRecipient: common.HexToAddress(feeRecipient),
	}, nil
}

// --- Transaction ---

type tx struct {
	ctx context.Context
	tx  pgx.Tx
}

var _ domain.Tx = (*tx)(nil)

func (t *tx) GetListing(asset domain.AssetID) (domain.Listing, bool, error) {
	row := t.tx.QueryRow(t.ctx,
		`SELECT `+listingCols+` FROM listings WHERE asset_key = $1`, asset.Key())
	l, err := scanListing(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Listing{}, false, nil
	}
	if err != nil {
		return domain.Listing{}, false, fmt.Errorf("postgres: get listing %s: %w", asset, err)
	}
	return l, true, nil
}

func (t *tx) PutListing(l domain.Listing) error {
	_, err := t.tx.Exec(t.ctx, `
		INSERT INTO listings (asset_key, listing_id, creator, collection, name, edition, seller, price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric, $9)
		ON CONFLICT (asset_key) DO UPDATE SET
			listing_id = EXCLUDED.listing_id,
			seller = EXCLUDED.seller,
			price = EXCLUDED.price,
			created_at = EXCLUDED.created_at`,
		l.Asset.Key(), int64(l.ListingID), l.Asset.Creator.Hex(), l.Asset.Collection,
		l.Asset.Name, int64(l.Asset.Edition), l.Seller.Hex(), formatAmount(l.Price), l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: put listing %s: %w", l.Asset, err)
	}
	return nil
}

func (t *tx) DeleteListing(asset domain.AssetID) error {
	if _, err := t.tx.Exec(t.ctx, `DELETE FROM listings WHERE asset_key = $1`, asset.Key()); err != nil {
		return fmt.Errorf("postgres: delete listing %s: %w", asset, err)
	}
	return nil
}

func (t *tx) GetAuction(asset domain.AssetID) (domain.Auction, bool, error) {
	row := t.tx.QueryRow(t.ctx,
		`SELECT `+auctionCols+` FROM auctions WHERE asset_key = $1`, asset.Key())
	a, err := scanAuction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Auction{}, false, nil
	}
	if err != nil {
		return domain.Auction{}, false, fmt.Errorf("postgres: get auction %s: %w", asset, err)
	}
	return a, true, nil
}

func (t *tx) PutAuction(a domain.Auction) error {
	_, err := t.tx.Exec(t.ctx, `
		INSERT INTO auctions (asset_key, auction_id, creator, collection, name, edition, seller,
			min_bid, created_at, duration_seconds, highest_bidder, highest_bid)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric, $9, $10, $11, $12::numeric)
		ON CONFLICT (asset_key) DO UPDATE SET
			highest_bidder = EXCLUDED.highest_bidder,
			highest_bid = EXCLUDED.highest_bid`,
		a.Asset.Key(), int64(a.AuctionID), a.Asset.Creator.Hex(), a.Asset.Collection,
		a.Asset.Name, int64(a.Asset.Edition), a.Seller.Hex(),
		formatAmount(a.MinBid), a.CreatedAt, a.DurationSeconds,
		a.HighestBidder.Hex(), formatAmount(a.HighestBid),
	)
	if err != nil {
		return fmt.Errorf("postgres: put auction %s: %w", a.Asset, err)
	}
	return nil
}

func (t *tx) DeleteAuction(asset domain.AssetID) error {
	if _, err := t.tx.Exec(t.ctx, `DELETE FROM auctions WHERE asset_key = $1`, asset.Key()); err != nil {
		return fmt.Errorf("postgres: delete auction %s: %w", asset, err)
	}
	return nil
}

func (t *tx) GetEscrow(asset domain.AssetID, bidder common.Address) (domain.BidEscrow, bool, error) {
	var amount string
	err := t.tx.QueryRow(t.ctx,
		`SELECT amount::text FROM bid_escrows WHERE asset_key = $1 AND bidder = $2`,
		asset.Key(), bidder.Hex(),
	).Scan(&amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.BidEscrow{}, false, nil
	}
	if err != nil {
		return domain.BidEscrow{}, false, fmt.Errorf("postgres: get escrow %s/%s: %w", asset, bidder, err)
	}
	v, err := parseAmount(amount)
	if err != nil {
		return domain.BidEscrow{}, false, err
	}
	return domain.BidEscrow{Asset: asset, Bidder: bidder, Amount: v}, true, nil
}

func (t *tx) PutEscrow(e domain.BidEscrow) error {
	_, err := t.tx.Exec(t.ctx, `
		INSERT INTO bid_escrows (asset_key, bidder, amount)
		VALUES ($1, $2, $3::numeric)
		ON CONFLICT (asset_key, bidder) DO UPDATE SET amount = EXCLUDED.amount`,
		e.Asset.Key(), e.Bidder.Hex(), formatAmount(e.Amount),
	)
	if err != nil {
		return fmt.Errorf("postgres: put escrow %s/%s: %w", e.Asset, e.Bidder, err)
	}
	return nil
}

func (t *tx) DeleteEscrow(asset domain.AssetID, bidder common.Address) error {
	_, err := t.tx.Exec(t.ctx,
		`DELETE FROM bid_escrows WHERE asset_key = $1 AND bidder = $2`,
		asset.Key(), bidder.Hex())
	if err != nil {
		return fmt.Errorf("postgres: delete escrow %s/%s: %w", asset, bidder, err)
	}
	return nil
}

func (t *tx) Config() (domain.MarketplaceConfig, bool, error) {
	var ownerAddr, feeRecipient string
	var feeRate int64
	err := t.tx.QueryRow(t.ctx,
		`SELECT owner_addr, fee_rate_bps, fee_recipient FROM marketplace_config`,
	).Scan(&ownerAddr, &feeRate, &feeRecipient)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.MarketplaceConfig{}, false, nil
	}
	if err != nil {
		return domain.MarketplaceConfig{}, false, fmt.Errorf("postgres: get config: %w", err)
	}
	return domain.MarketplaceConfig{
		Owner:        common.HexToAddress(ownerAddr),
		FeeRateBps:   uint64(feeRate),
		FeeRecipient: common.HexToAddress(feeRecipient),
	}, true, nil
}

func (t *tx) SetConfig(cfg domain.MarketplaceConfig) error {
	_, err := t.tx.Exec(t.ctx, `
		INSERT INTO marketplace_config (id, owner_addr, fee_rate_bps, fee_recipient, updated_at)
		VALUES (TRUE, $1, $2, $3, NOW())
		ON CONFLICT (id) DO UPDATE SET
			owner_addr = EXCLUDED.owner_addr,
			fee_rate_bps = EXCLUDED.fee_rate_bps,
			fee_recipient = EXCLUDED.fee_recipient,
			updated_at = NOW()`,
		cfg.Owner.Hex(), int64(cfg.FeeRateBps), cfg.FeeRecipient.Hex(),
	)
	if err != nil {
		return fmt.Errorf("postgres: set config: %w", err)
	}
	return nil
}

func (t *tx) NextID() (uint64, error) {
	var id int64
	err := t.tx.QueryRow(t.ctx,
		`UPDATE custodian_counter SET last_id = last_id + 1 WHERE id RETURNING last_id`,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("postgres: next id: %w", err)
	}
	return uint64(id), nil
}

func (t *tx) TransferAsset(from, to common.Address, asset domain.AssetID) error {
	tag, err := t.tx.Exec(t.ctx,
		`UPDATE asset_holdings SET holder = $1 WHERE asset_key = $2 AND holder = $3`,
		to.Hex(), asset.Key(), from.Hex())
	if err != nil {
		return fmt.Errorf("postgres: transfer asset %s: %w", asset, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: transfer asset %s from %s: %w", asset, from, domain.ErrInsufficientAsset)
	}
	return nil
}

func (t *tx) TransferValue(from, to common.Address, amount uint64) error {
	if amount == 0 {
		return nil
	}
	tag, err := t.tx.Exec(t.ctx, `
		UPDATE balances SET amount = amount - $1::numeric
		WHERE account = $2 AND amount >= $1::numeric`,
		formatAmount(amount), from.Hex())
	if err != nil {
		return fmt.Errorf("postgres: debit %s: %w", from, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: debit %d from %s: %w", amount, from, domain.ErrInsufficientFunds)
	}
	_, err = t.tx.Exec(t.ctx, `
		INSERT INTO balances (account, amount) VALUES ($1, $2::numeric)
		ON CONFLICT (account) DO UPDATE SET amount = balances.amount + EXCLUDED.amount`,
		to.Hex(), formatAmount(amount))
	if err != nil {
		return fmt.Errorf("postgres: credit %s: %w", to, err)
	}
	return nil
}

func (t *tx) Balance(account common.Address) (uint64, error) {
	var amount string
	err := t.tx.QueryRow(t.ctx,
		`SELECT amount::text FROM balances WHERE account = $1`, account.Hex(),
	).Scan(&amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("postgres: balance %s: %w", account, err)
	}
	return parseAmount(amount)
}

func (t *tx) Royalty(asset domain.AssetID) (domain.RoyaltyInfo, error) {
	var recipient string
	var num, den int64
	err := t.tx.QueryRow(t.ctx,
		`SELECT recipient, numerator, denominator FROM royalties WHERE asset_key = $1`,
		asset.Key(),
	).Scan(&recipient, &num, &den)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.RoyaltyInfo{}, nil
	}
	if err != nil {
		return domain.RoyaltyInfo{}, fmt.Errorf("postgres: royalty %s: %w", asset, err)
	}
	return domain.RoyaltyInfo{
		Recipient:   common.HexToAddress(recipient),
		Numerator:   uint64(num),
		Denominator: uint64(den),
	}, nil
}
