package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// HealthHandler serves the health-check endpoint.
type HealthHandler struct {
	custodian common.Address
	logger    *slog.Logger
}

// NewHealthHandler creates a HealthHandler reporting the given custodian
// identity.
func NewHealthHandler(custodian common.Address, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{custodian: custodian, logger: logger}
}

// HealthCheck responds with a simple JSON status indicating the server is alive.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"custodian": h.custodian.Hex(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
