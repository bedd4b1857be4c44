package s3blob

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	redisc "github.com/nftbay/marketd/internal/cache/redis"
)

// StreamSource is the durable event stream the archiver drains. The Redis
// EventBus provides the production implementation; ids follow Redis stream
// id conventions ("-" for the beginning, "(" prefix for exclusive starts).
type StreamSource interface {
	StreamRange(ctx context.Context, start, end string) ([]redisc.StreamEntry, error)
}

// Archiver periodically drains the event stream into JSONL objects under
// archive/events/. The Redis stream is capped, so the archive is the
// long-term record; each run uploads only the entries that arrived since the
// previous one.
type Archiver struct {
	source   StreamSource
	writer   *Writer
	interval time.Duration
	logger   *slog.Logger

	cursor string // start id for the next drain, exclusive after the first run
}

// NewArchiver creates an Archiver draining source into writer every interval.
func NewArchiver(source StreamSource, writer *Writer, interval time.Duration, logger *slog.Logger) *Archiver {
	return &Archiver{
		source:   source,
		writer:   writer,
		interval: interval,
		logger:   logger.With(slog.String("component", "archiver")),
		cursor:   "-",
	}
}

// Run drains the stream on every tick until the context is cancelled. Errors
// are logged and the next tick retries; a failed upload never advances the
// cursor, so no entry is skipped.
func (a *Archiver) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Final best-effort drain on shutdown.
			drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if _, err := a.ArchiveOnce(drainCtx); err != nil {
				a.logger.Error("final drain failed", slog.String("error", err.Error()))
			}
			cancel()
			return ctx.Err()
		case <-ticker.C:
			n, err := a.ArchiveOnce(ctx)
			if err != nil {
				a.logger.ErrorContext(ctx, "archive run failed", slog.String("error", err.Error()))
				continue
			}
			if n > 0 {
				a.logger.InfoContext(ctx, "archived events", slog.Int("count", n))
			}
		}
	}
}

// ArchiveOnce drains every stream entry after the cursor, uploads them as one
// JSONL object, and advances the cursor past the last archived entry. It
// returns the number of entries archived; zero means nothing new.
func (a *Archiver) ArchiveOnce(ctx context.Context) (int, error) {
	entries, err := a.source.StreamRange(ctx, a.cursor, "+")
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive drain: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	var buf bytes.Buffer
	for _, e := range entries {
		buf.Write(e.Payload)
		buf.WriteByte('\n')
	}

	last := entries[len(entries)-1].ID
	path := archivePath(time.Now().UTC(), last)
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf.Bytes()), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive upload: %w", err)
	}

	a.cursor = "(" + last
	return len(entries), nil
}

// archivePath builds the S3 key for one archive object, partitioned by
// year-month and suffixed with the last stream id it contains so successive
// drains never collide.
//
//	archive/events/2026-08/20260828T120000-1756382400000-3.jsonl
func archivePath(now time.Time, lastID string) string {
	return fmt.Sprintf("archive/events/%s/%s-%s.jsonl",
		now.Format("2006-01"), now.Format("20060102T150405"), lastID)
}
