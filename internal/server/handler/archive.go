package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	s3blob "github.com/nftbay/marketd/internal/blob/s3"
	"github.com/nftbay/marketd/internal/domain"
)

// ArchiveHandler serves the event archive objects stored in object storage.
// It is only registered when archiving is enabled.
type ArchiveHandler struct {
	reader *s3blob.Reader
	logger *slog.Logger
}

// NewArchiveHandler creates an ArchiveHandler backed by the given reader.
func NewArchiveHandler(reader *s3blob.Reader, logger *slog.Logger) *ArchiveHandler {
	return &ArchiveHandler{
		reader: reader,
		logger: logHandler(logger, "archive"),
	}
}

// ListArchives enumerates the stored event archive objects.
// GET /api/archives
func (h *ArchiveHandler) ListArchives(w http.ResponseWriter, r *http.Request) {
	infos, err := h.reader.List(r.Context(), "archive/events/")
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list archives", slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, "archive listing failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"archives": infos,
		"count":    len(infos),
	})
}

// GetArchive streams one archive object back to the caller.
// GET /api/archives/{path...}
func (h *ArchiveHandler) GetArchive(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")
	if path == "" || strings.Contains(path, "..") {
		writeError(w, http.StatusBadRequest, "malformed archive path")
		return
	}

	body, err := h.reader.Get(r.Context(), "archive/events/"+path)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "archive not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "get archive", slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, "archive fetch failed")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/x-ndjson")
	if _, err := io.Copy(w, body); err != nil {
		h.logger.ErrorContext(r.Context(), "stream archive", slog.String("error", err.Error()))
	}
}
