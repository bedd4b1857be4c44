package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/nftbay/marketd/internal/custodian"
	"github.com/nftbay/marketd/internal/domain"
	"github.com/nftbay/marketd/internal/market"
	"github.com/nftbay/marketd/internal/store/memory"
)

func custodianForTest() (*custodian.Custodian, error) {
	return custodian.Derive("handler-test")
}

var (
	testOwner  = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	testSeller = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	testBuyer  = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	testArtist = common.HexToAddress("0x00000000000000000000000000000000000000c1")
)

func testAsset(name string) domain.AssetID {
	return domain.AssetID{
		Creator:    testArtist,
		Collection: "gallery",
		Name:       name,
		Edition:    1,
	}
}

// newTestAPI stands up the mutation and query handlers on a mux wired to an
// engine over an in-memory store.
func newTestAPI(t *testing.T) (*http.ServeMux, *memory.Store) {
	t.Helper()

	store := memory.New()
	cust, err := custodianForTest()
	if err != nil {
		t.Fatalf("derive custodian: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := market.New(store, cust, nil, logger)
	if err := engine.Bootstrap(context.Background(), domain.MarketplaceConfig{
		Owner:        testOwner,
		FeeRateBps:   500,
		FeeRecipient: testOwner,
	}); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	listings := NewListingHandler(engine, logger)
	auctions := NewAuctionHandler(engine, logger)
	query := NewQueryHandler(store, logger)

	const assetPath = "/{creator}/{collection}/{name}/{edition}"
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/listings", query.ListListings)
	mux.HandleFunc("GET /api/listings"+assetPath, query.GetListing)
	mux.HandleFunc("POST /api/listings", listings.CreateListing)
	mux.HandleFunc("DELETE /api/listings"+assetPath, listings.Delist)
	mux.HandleFunc("POST /api/listings"+assetPath+"/buy", listings.Buy)
	mux.HandleFunc("POST /api/auctions", auctions.Create)
	mux.HandleFunc("POST /api/auctions"+assetPath+"/bids", auctions.Bid)
	return mux, store
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path string, from common.Address, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if from != (common.Address{}) {
		req.Header.Set(callerHeader, from.Hex())
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func assetPathOf(a domain.AssetID) string {
	return "/" + a.Key()
}

func TestCreateAndBuyListing(t *testing.T) {
	mux, store := newTestAPI(t)
	a := testAsset("sunrise")
	store.MintAsset(a, testSeller)
	store.Credit(testBuyer, 1_000)

	body, _ := json.Marshal(map[string]any{"asset": a, "price": 400})
	rec := doJSON(t, mux, http.MethodPost, "/api/listings", testSeller, string(body))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create listing: status %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, mux, http.MethodGet, "/api/listings"+assetPathOf(a), common.Address{}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get listing: status %d", rec.Code)
	}

	rec = doJSON(t, mux, http.MethodPost, "/api/listings"+assetPathOf(a)+"/buy", testBuyer, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("buy: status %d, body %s", rec.Code, rec.Body.String())
	}
	if holder, _ := store.Holder(a); holder != testBuyer {
		t.Errorf("holder = %s, want buyer", holder.Hex())
	}

	// The listing is consumed by the sale.
	rec = doJSON(t, mux, http.MethodGet, "/api/listings"+assetPathOf(a), common.Address{}, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after buy: status %d, want 404", rec.Code)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	mux, store := newTestAPI(t)
	a := testAsset("dusk")
	store.MintAsset(a, testSeller)

	body, _ := json.Marshal(map[string]any{"asset": a, "price": 100})

	// Missing caller header.
	rec := doJSON(t, mux, http.MethodPost, "/api/listings", common.Address{}, string(body))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing caller: status %d, want 400", rec.Code)
	}

	// Listing an asset the caller does not hold.
	rec = doJSON(t, mux, http.MethodPost, "/api/listings", testBuyer, string(body))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("not holder: status %d, want 422", rec.Code)
	}

	// Duplicate listing.
	if rec = doJSON(t, mux, http.MethodPost, "/api/listings", testSeller, string(body)); rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d", rec.Code)
	}
	rec = doJSON(t, mux, http.MethodPost, "/api/listings", testSeller, string(body))
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate: status %d, want 409", rec.Code)
	}

	// Seller buying own listing.
	rec = doJSON(t, mux, http.MethodPost, "/api/listings"+assetPathOf(a)+"/buy", testSeller, "")
	if rec.Code != http.StatusConflict {
		t.Errorf("self trade: status %d, want 409", rec.Code)
	}

	// Delist by a stranger.
	rec = doJSON(t, mux, http.MethodDelete, "/api/listings"+assetPathOf(a), testBuyer, "")
	if rec.Code != http.StatusForbidden {
		t.Errorf("foreign delist: status %d, want 403", rec.Code)
	}

	// Bid on an asset with no auction.
	rec = doJSON(t, mux, http.MethodPost, "/api/auctions"+assetPathOf(a)+"/bids", testBuyer, `{"amount":10}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("bid without auction: status %d, want 404", rec.Code)
	}
}

func TestAuctionEndpoints(t *testing.T) {
	mux, store := newTestAPI(t)
	a := testAsset("night")
	store.MintAsset(a, testSeller)
	store.Credit(testBuyer, 500)

	body, _ := json.Marshal(map[string]any{"asset": a, "min_bid": 100, "duration_seconds": 3600})
	rec := doJSON(t, mux, http.MethodPost, "/api/auctions", testSeller, string(body))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create auction: status %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, mux, http.MethodPost, "/api/auctions"+assetPathOf(a)+"/bids", testBuyer, `{"amount":150}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("bid: status %d, body %s", rec.Code, rec.Body.String())
	}
	if got := store.Balance(testBuyer); got != 350 {
		t.Errorf("bidder balance = %d, want 350 after escrow", got)
	}

	rec = doJSON(t, mux, http.MethodPost, "/api/auctions"+assetPathOf(a)+"/bids", testBuyer, `{"amount":150}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("tie bid: status %d, want 400", rec.Code)
	}
}
