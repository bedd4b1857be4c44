package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/nftbay/marketd/internal/domain"
)

// QueryHandler serves the read-only query surface straight off the store,
// outside the transition engine.
type QueryHandler struct {
	store  domain.Store
	logger *slog.Logger
}

// NewQueryHandler creates a QueryHandler backed by the given store.
func NewQueryHandler(store domain.Store, logger *slog.Logger) *QueryHandler {
	return &QueryHandler{
		store:  store,
		logger: logHandler(logger, "query"),
	}
}

// ListListings returns every active listing.
// GET /api/listings
func (h *QueryHandler) ListListings(w http.ResponseWriter, r *http.Request) {
	listings, err := h.store.ListListings(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list listings", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"listings": listings,
		"count":    len(listings),
	})
}

// GetListing returns one listing by asset identity.
// GET /api/listings/{creator}/{collection}/{name}/{edition}
func (h *QueryHandler) GetListing(w http.ResponseWriter, r *http.Request) {
	asset, ok := assetFromPath(w, r)
	if !ok {
		return
	}
	l, err := h.store.GetListing(r.Context(), asset)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "listing not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "get listing", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// ListAuctions returns every active auction.
// GET /api/auctions
func (h *QueryHandler) ListAuctions(w http.ResponseWriter, r *http.Request) {
	auctions, err := h.store.ListAuctions(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list auctions", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"auctions": auctions,
		"count":    len(auctions),
	})
}

// GetAuction returns one auction by asset identity.
// GET /api/auctions/{creator}/{collection}/{name}/{edition}
func (h *QueryHandler) GetAuction(w http.ResponseWriter, r *http.Request) {
	asset, ok := assetFromPath(w, r)
	if !ok {
		return
	}
	a, err := h.store.GetAuction(r.Context(), asset)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "auction not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "get auction", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// GetConfig returns the current marketplace configuration.
// GET /api/config
func (h *QueryHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.store.GetConfig(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "marketplace not bootstrapped")
			return
		}
		h.logger.ErrorContext(r.Context(), "get config", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}
