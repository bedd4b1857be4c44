package handler

import (
	"log/slog"
	"net/http"

	"github.com/nftbay/marketd/internal/domain"
	"github.com/nftbay/marketd/internal/market"
)

// AuctionHandler serves the auction mutation endpoints.
type AuctionHandler struct {
	engine *market.Engine
	logger *slog.Logger
}

// NewAuctionHandler creates an AuctionHandler backed by the given engine.
func NewAuctionHandler(engine *market.Engine, logger *slog.Logger) *AuctionHandler {
	return &AuctionHandler{
		engine: engine,
		logger: logHandler(logger, "auction"),
	}
}

type createAuctionRequest struct {
	Asset           domain.AssetID `json:"asset"`
	MinBid          uint64         `json:"min_bid"`
	DurationSeconds int64          `json:"duration_seconds"`
}

// Create places an asset under custody and opens bidding.
// POST /api/auctions
func (h *AuctionHandler) Create(w http.ResponseWriter, r *http.Request) {
	from, ok := caller(w, r)
	if !ok {
		return
	}
	var req createAuctionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	id, err := h.engine.InitiateAuction(r.Context(), from, req.Asset, req.MinBid, req.DurationSeconds)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"auction_id": id,
		"asset":      req.Asset.Key(),
	})
}

type bidRequest struct {
	Amount uint64 `json:"amount"`
}

// Bid escrows a new highest bid, refunding the previous one.
// POST /api/auctions/{creator}/{collection}/{name}/{edition}/bids
func (h *AuctionHandler) Bid(w http.ResponseWriter, r *http.Request) {
	from, ok := caller(w, r)
	if !ok {
		return
	}
	asset, ok := assetFromPath(w, r)
	if !ok {
		return
	}
	var req bidRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.engine.Bid(r.Context(), from, asset, req.Amount); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"asset":  asset.Key(),
		"amount": req.Amount,
	})
}

// Cancel ends an auction with no standing bid and returns the asset.
// DELETE /api/auctions/{creator}/{collection}/{name}/{edition}
func (h *AuctionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	from, ok := caller(w, r)
	if !ok {
		return
	}
	asset, ok := assetFromPath(w, r)
	if !ok {
		return
	}

	if err := h.engine.CancelAuction(r.Context(), from, asset); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"asset": asset.Key()})
}

// Claim settles an expired auction: the winner collects the asset, or the
// seller reclaims it when nobody bid.
// POST /api/auctions/{creator}/{collection}/{name}/{edition}/claim
func (h *AuctionHandler) Claim(w http.ResponseWriter, r *http.Request) {
	from, ok := caller(w, r)
	if !ok {
		return
	}
	asset, ok := assetFromPath(w, r)
	if !ok {
		return
	}

	if err := h.engine.Claim(r.Context(), from, asset); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"asset": asset.Key()})
}
