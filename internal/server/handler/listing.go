package handler

import (
	"log/slog"
	"net/http"

	"github.com/nftbay/marketd/internal/domain"
	"github.com/nftbay/marketd/internal/market"
)

// ListingHandler serves the listing mutation endpoints.
type ListingHandler struct {
	engine *market.Engine
	logger *slog.Logger
}

// NewListingHandler creates a ListingHandler backed by the given engine.
func NewListingHandler(engine *market.Engine, logger *slog.Logger) *ListingHandler {
	return &ListingHandler{
		engine: engine,
		logger: logHandler(logger, "listing"),
	}
}

type createListingRequest struct {
	Asset domain.AssetID `json:"asset"`
	Price uint64         `json:"price"`
}

// CreateListing places an asset under custody at a fixed price.
// POST /api/listings
func (h *ListingHandler) CreateListing(w http.ResponseWriter, r *http.Request) {
	from, ok := caller(w, r)
	if !ok {
		return
	}
	var req createListingRequest
	if !decodeBody(w, r, &req) {
		return
	}

	id, err := h.engine.List(r.Context(), from, req.Asset, req.Price)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"listing_id": id,
		"asset":      req.Asset.Key(),
	})
}

// Delist returns a listed asset to its seller.
// DELETE /api/listings/{creator}/{collection}/{name}/{edition}
func (h *ListingHandler) Delist(w http.ResponseWriter, r *http.Request) {
	from, ok := caller(w, r)
	if !ok {
		return
	}
	asset, ok := assetFromPath(w, r)
	if !ok {
		return
	}

	if err := h.engine.Delist(r.Context(), from, asset); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"asset": asset.Key()})
}

// Buy settles a listing at its asked price.
// POST /api/listings/{creator}/{collection}/{name}/{edition}/buy
func (h *ListingHandler) Buy(w http.ResponseWriter, r *http.Request) {
	from, ok := caller(w, r)
	if !ok {
		return
	}
	asset, ok := assetFromPath(w, r)
	if !ok {
		return
	}

	if err := h.engine.Buy(r.Context(), from, asset); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"asset": asset.Key()})
}

type batchListRequest struct {
	Assets []domain.AssetID `json:"assets"`
	Prices []uint64         `json:"prices"`
}

type batchAssetsRequest struct {
	Assets []domain.AssetID `json:"assets"`
}

// BatchCreate lists several assets in order, stopping at the first failure.
// Entries before the failure stay committed.
// POST /api/listings/batch
func (h *ListingHandler) BatchCreate(w http.ResponseWriter, r *http.Request) {
	from, ok := caller(w, r)
	if !ok {
		return
	}
	var req batchListRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ids, err := h.engine.BatchList(r.Context(), from, req.Assets, req.Prices)
	if err != nil {
		writeJSON(w, statusFor(err), map[string]any{
			"listing_ids": ids,
			"completed":   len(ids),
			"error":       err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"listing_ids": ids,
		"completed":   len(ids),
	})
}

// BatchDelist delists several assets in order, stopping at the first failure.
// POST /api/listings/batch/delist
func (h *ListingHandler) BatchDelist(w http.ResponseWriter, r *http.Request) {
	from, ok := caller(w, r)
	if !ok {
		return
	}
	var req batchAssetsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	n, err := h.engine.BatchDelist(r.Context(), from, req.Assets)
	if err != nil {
		writeJSON(w, statusFor(err), map[string]any{
			"completed": n,
			"error":     err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"completed": n})
}

// BatchBuy buys several listings in order, stopping at the first failure.
// POST /api/listings/batch/buy
func (h *ListingHandler) BatchBuy(w http.ResponseWriter, r *http.Request) {
	from, ok := caller(w, r)
	if !ok {
		return
	}
	var req batchAssetsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	n, err := h.engine.BatchBuy(r.Context(), from, req.Assets)
	if err != nil {
		writeJSON(w, statusFor(err), map[string]any{
			"completed": n,
			"error":     err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"completed": n})
}
