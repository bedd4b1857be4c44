package market

import (
	"context"
	"log/slog"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/nftbay/marketd/internal/custodian"
	"github.com/nftbay/marketd/internal/domain"
	"github.com/nftbay/marketd/internal/store/memory"
)

var (
	owner    = common.HexToAddress("0x0000000000000000000000000000000000000001")
	treasury = common.HexToAddress("0x0000000000000000000000000000000000000002")
	seller   = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	buyer    = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	bidderA  = common.HexToAddress("0x00000000000000000000000000000000000000cc")
	bidderB  = common.HexToAddress("0x00000000000000000000000000000000000000dd")
	artist   = common.HexToAddress("0x00000000000000000000000000000000000000ee")
)

// captureEmitter records every emitted event for assertions.
type captureEmitter struct {
	events []domain.Event
}

func (c *captureEmitter) Emit(_ context.Context, evs ...domain.Event) {
	c.events = append(c.events, evs...)
}

func (c *captureEmitter) kinds() []string {
	out := make([]string, len(c.events))
	for i, ev := range c.events {
		out[i] = ev.Kind()
	}
	return out
}

// fixture bundles an engine over a fresh memory store with a controllable
// clock and a bootstrapped 5% fee configuration.
type fixture struct {
	engine *Engine
	store  *memory.Store
	emit   *captureEmitter
	now    int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st := memory.New()
	cust, err := custodian.Derive("test")
	if err != nil {
		t.Fatalf("custodian.Derive: %v", err)
	}
	emit := &captureEmitter{}
	eng := New(st, cust, emit, slog.Default())

	f := &fixture{engine: eng, store: st, emit: emit, now: 1_000_000}
	eng.SetNowFunc(func() int64 { return f.now })

	err = eng.Bootstrap(context.Background(), domain.MarketplaceConfig{
		Owner:        owner,
		FeeRateBps:   500,
		FeeRecipient: treasury,
	})
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	return f
}

func (f *fixture) advance(seconds int64) { f.now += seconds }

func asset(name string) domain.AssetID {
	return domain.AssetID{
		Creator:    artist,
		Collection: "test-collection",
		Name:       name,
		Edition:    1,
	}
}

// mintListed seeds seller with the asset and lists it, returning the listing id.
func (f *fixture) mintListed(t *testing.T, a domain.AssetID, price uint64) uint64 {
	t.Helper()
	f.store.MintAsset(a, seller)
	id, err := f.engine.List(context.Background(), seller, a, price)
	if err != nil {
		t.Fatalf("List(%s): %v", a, err)
	}
	return id
}

// mintAuctioned seeds seller with the asset and opens an auction on it.
func (f *fixture) mintAuctioned(t *testing.T, a domain.AssetID, minBid uint64, duration int64) uint64 {
	t.Helper()
	f.store.MintAsset(a, seller)
	id, err := f.engine.InitiateAuction(context.Background(), seller, a, minBid, duration)
	if err != nil {
		t.Fatalf("InitiateAuction(%s): %v", a, err)
	}
	return id
}
