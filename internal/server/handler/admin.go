package handler

import (
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/nftbay/marketd/internal/market"
)

// AdminHandler serves the owner-gated marketplace configuration endpoints.
type AdminHandler struct {
	engine *market.Engine
	logger *slog.Logger
}

// NewAdminHandler creates an AdminHandler backed by the given engine.
func NewAdminHandler(engine *market.Engine, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		engine: engine,
		logger: logHandler(logger, "admin"),
	}
}

type setOwnerRequest struct {
	Owner string `json:"owner"`
}

// SetOwner hands the marketplace over to a new owner.
// PUT /api/admin/owner
func (h *AdminHandler) SetOwner(w http.ResponseWriter, r *http.Request) {
	from, ok := caller(w, r)
	if !ok {
		return
	}
	var req setOwnerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !common.IsHexAddress(req.Owner) {
		writeError(w, http.StatusBadRequest, "malformed owner address")
		return
	}

	if err := h.engine.SetOwner(r.Context(), from, common.HexToAddress(req.Owner)); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"owner": req.Owner})
}

type setFeeRateRequest struct {
	RateBps uint64 `json:"rate_bps"`
}

// SetFeeRate updates the marketplace fee rate in basis points.
// PUT /api/admin/fee-rate
func (h *AdminHandler) SetFeeRate(w http.ResponseWriter, r *http.Request) {
	from, ok := caller(w, r)
	if !ok {
		return
	}
	var req setFeeRateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.engine.SetFeeRate(r.Context(), from, req.RateBps); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"rate_bps": req.RateBps})
}

type setFeeRecipientRequest struct {
	Recipient string `json:"recipient"`
}

// SetFeeRecipient redirects future fee proceeds to a new account.
// PUT /api/admin/fee-recipient
func (h *AdminHandler) SetFeeRecipient(w http.ResponseWriter, r *http.Request) {
	from, ok := caller(w, r)
	if !ok {
		return
	}
	var req setFeeRecipientRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !common.IsHexAddress(req.Recipient) {
		writeError(w, http.StatusBadRequest, "malformed recipient address")
		return
	}

	if err := h.engine.SetFeeRecipient(r.Context(), from, common.HexToAddress(req.Recipient)); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"recipient": req.Recipient})
}
