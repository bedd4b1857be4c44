// Package memory implements domain.Store entirely in process. A mutex
// serializes transactions and a copy-on-begin snapshot provides the
// all-or-nothing commit: when the transaction function returns an error the
// pre-transaction state is restored wholesale.
//
// The package doubles as the host-ledger fixture for tests and standalone
// mode: MintAsset, Credit, and SetRoyalty seed the holdings, balances, and
// royalty tables that the Tx primitives operate on.
package memory

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/nftbay/marketd/internal/domain"
)

type state struct {
	listings  map[string]domain.Listing
	auctions  map[string]domain.Auction
	escrows   map[string]domain.BidEscrow
	config    *domain.MarketplaceConfig
	lastID    uint64
	holdings  map[string]common.Address
	balances  map[common.Address]uint64
	royalties map[string]domain.RoyaltyInfo
}

func newState() *state {
	return &state{
		listings:  make(map[string]domain.Listing),
		auctions:  make(map[string]domain.Auction),
		escrows:   make(map[string]domain.BidEscrow),
		holdings:  make(map[string]common.Address),
		balances:  make(map[common.Address]uint64),
		royalties: make(map[string]domain.RoyaltyInfo),
	}
}

func (s *state) clone() *state {
	c := &state{
		listings:  maps.Clone(s.listings),
		auctions:  maps.Clone(s.auctions),
		escrows:   maps.Clone(s.escrows),
		lastID:    s.lastID,
		holdings:  maps.Clone(s.holdings),
		balances:  maps.Clone(s.balances),
		royalties: maps.Clone(s.royalties),
	}
	if s.config != nil {
		cfg := *s.config
		c.config = &cfg
	}
	return c
}

// Store is the in-memory domain.Store.
type Store struct {
	mu sync.Mutex
	st *state
}

var _ domain.Store = (*Store)(nil)

// New creates an empty Store.
func New() *Store {
	return &Store{st: newState()}
}

func escrowKey(asset domain.AssetID, bidder common.Address) string {
	return asset.Key() + "|" + bidder.Hex()
}

// Do runs fn against a snapshot-backed transaction. The snapshot is restored
// when fn fails, so a failed operation leaves no trace.
func (s *Store) Do(ctx context.Context, fn func(tx domain.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(&tx{st: s.st}); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

// --- Read-side queries ---

func (s *Store) ListListings(ctx context.Context) ([]domain.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Listing, 0, len(s.st.listings))
	for _, l := range s.st.listings {
		out = append(out, l)
	}
	return out, nil
}

func (s *Store) ListAuctions(ctx context.Context) ([]domain.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Auction, 0, len(s.st.auctions))
	for _, a := range s.st.auctions {
		out = append(out, a)
	}
	return out, nil
}

func (s *Store) GetListing(ctx context.Context, asset domain.AssetID) (domain.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.st.listings[asset.Key()]
	if !ok {
		return domain.Listing{}, domain.ErrNotFound
	}
	return l, nil
}

func (s *Store) GetAuction(ctx context.Context, asset domain.AssetID) (domain.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.st.auctions[asset.Key()]
	if !ok {
		return domain.Auction{}, domain.ErrNotFound
	}
	return a, nil
}

func (s *Store) GetConfig(ctx context.Context) (domain.MarketplaceConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.st.config == nil {
		return domain.MarketplaceConfig{}, domain.ErrNotFound
	}
	return *s.st.config, nil
}

// --- Host-ledger fixture helpers ---

// MintAsset records holder as the current owner of asset.
func (s *Store) MintAsset(asset domain.AssetID, holder common.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.holdings[asset.Key()] = holder
}

// Credit adds amount to the account's balance.
func (s *Store) Credit(account common.Address, amount uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.balances[account] += amount
}

// SetRoyalty registers the royalty terms for an asset.
func (s *Store) SetRoyalty(asset domain.AssetID, info domain.RoyaltyInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.royalties[asset.Key()] = info
}

// Balance reports the account's current balance.
func (s *Store) Balance(account common.Address) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.balances[account]
}

// Holder reports the current holder of asset and whether it exists.
func (s *Store) Holder(asset domain.AssetID) (common.Address, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.st.holdings[asset.Key()]
	return h, ok
}

// --- Transaction ---

type tx struct {
	st *state
}

func (t *tx) GetListing(asset domain.AssetID) (domain.Listing, bool, error) {
	l, ok := t.st.listings[asset.Key()]
	return l, ok, nil
}

func (t *tx) PutListing(l domain.Listing) error {
	t.st.listings[l.Asset.Key()] = l
	return nil
}

func (t *tx) DeleteListing(asset domain.AssetID) error {
	delete(t.st.listings, asset.Key())
	return nil
}

func (t *tx) GetAuction(asset domain.AssetID) (domain.Auction, bool, error) {
	a, ok := t.st.auctions[asset.Key()]
	return a, ok, nil
}

func (t *tx) PutAuction(a domain.Auction) error {
	t.st.auctions[a.Asset.Key()] = a
	return nil
}

func (t *tx) DeleteAuction(asset domain.AssetID) error {
	delete(t.st.auctions, asset.Key())
	return nil
}

func (t *tx) GetEscrow(asset domain.AssetID, bidder common.Address) (domain.BidEscrow, bool, error) {
	e, ok := t.st.escrows[escrowKey(asset, bidder)]
	return e, ok, nil
}

func (t *tx) PutEscrow(e domain.BidEscrow) error {
	t.st.escrows[escrowKey(e.Asset, e.Bidder)] = e
	return nil
}

func (t *tx) DeleteEscrow(asset domain.AssetID, bidder common.Address) error {
	delete(t.st.escrows, escrowKey(asset, bidder))
	return nil
}

func (t *tx) Config() (domain.MarketplaceConfig, bool, error) {
	if t.st.config == nil {
		return domain.MarketplaceConfig{}, false, nil
	}
	return *t.st.config, true, nil
}

func (t *tx) SetConfig(cfg domain.MarketplaceConfig) error {
	t.st.config = &cfg
	return nil
}

func (t *tx) NextID() (uint64, error) {
	t.st.lastID++
	return t.st.lastID, nil
}

func (t *tx) TransferAsset(from, to common.Address, asset domain.AssetID) error {
	holder, ok := t.st.holdings[asset.Key()]
	if !ok || holder != from {
		return fmt.Errorf("memory: transfer asset %s from %s: %w", asset, from, domain.ErrInsufficientAsset)
	}
	t.st.holdings[asset.Key()] = to
	return nil
}

func (t *tx) TransferValue(from, to common.Address, amount uint64) error {
	if amount == 0 {
		return nil
	}
	if t.st.balances[from] < amount {
		return fmt.Errorf("memory: transfer %d from %s: %w", amount, from, domain.ErrInsufficientFunds)
	}
	t.st.balances[from] -= amount
	t.st.balances[to] += amount
	return nil
}

func (t *tx) Balance(account common.Address) (uint64, error) {
	return t.st.balances[account], nil
}

func (t *tx) Royalty(asset domain.AssetID) (domain.RoyaltyInfo, error) {
	return t.st.royalties[asset.Key()], nil
}
