// Package handler implements the HTTP API handlers for the marketplace
// engine: listing and auction mutations, admin operations, and the read-only
// query surface.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"github.com/nftbay/marketd/internal/domain"
)

// callerHeader carries the acting identity for mutation endpoints. The engine
// performs its own authorization against the ledgers; the header only states
// who is acting.
const callerHeader = "X-Market-Caller"

// writeJSON marshals v as JSON and writes it to the response with the given
// HTTP status code. If marshaling fails, it falls back to a plain-text 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a JSON-formatted error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeEngineError maps an engine error to an HTTP status via errors.Is and
// writes the JSON error body.
func writeEngineError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrLengthMismatch),
		errors.Is(err, domain.ErrBidTooLow),
		errors.Is(err, domain.ErrFeeRateTooHigh):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, domain.ErrSelfTrade),
		errors.Is(err, domain.ErrSelfBid),
		errors.Is(err, domain.ErrAuctionExpired),
		errors.Is(err, domain.ErrAuctionLive),
		errors.Is(err, domain.ErrBidderExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrInsufficientAsset),
		errors.Is(err, domain.ErrSplitExceedsAmount):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// caller extracts the acting address from the X-Market-Caller header. The
// bool result reports whether a valid address was present; on false an error
// response has already been written.
func caller(w http.ResponseWriter, r *http.Request) (common.Address, bool) {
	v := r.Header.Get(callerHeader)
	if v == "" {
		writeError(w, http.StatusBadRequest, "missing "+callerHeader+" header")
		return common.Address{}, false
	}
	if !common.IsHexAddress(v) {
		writeError(w, http.StatusBadRequest, "malformed "+callerHeader+" address")
		return common.Address{}, false
	}
	return common.HexToAddress(v), true
}

// assetFromPath reconstructs an AssetID from the four path segments
// {creator}/{collection}/{name}/{edition} using Go 1.22+ routing
// (http.Request.PathValue). On failure an error response has been written.
func assetFromPath(w http.ResponseWriter, r *http.Request) (domain.AssetID, bool) {
	creator := r.PathValue("creator")
	if !common.IsHexAddress(creator) {
		writeError(w, http.StatusBadRequest, "malformed creator address")
		return domain.AssetID{}, false
	}
	edition, err := strconv.ParseUint(r.PathValue("edition"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed edition")
		return domain.AssetID{}, false
	}
	asset := domain.AssetID{
		Creator:    common.HexToAddress(creator),
		Collection: r.PathValue("collection"),
		Name:       r.PathValue("name"),
		Edition:    edition,
	}
	if asset.Collection == "" || asset.Name == "" {
		writeError(w, http.StatusBadRequest, "malformed asset path")
		return domain.AssetID{}, false
	}
	return asset, true
}

// decodeBody unmarshals the request body into v, capping the body size.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}

// logHandler is a convenience to attach slog fields in handler code.
func logHandler(logger *slog.Logger, handler string) *slog.Logger {
	return logger.With(slog.String("handler", handler))
}
