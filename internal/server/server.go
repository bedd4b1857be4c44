// Package server exposes the marketplace engine over HTTP and WebSocket.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nftbay/marketd/internal/server/handler"
	"github.com/nftbay/marketd/internal/server/middleware"
	"github.com/nftbay/marketd/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port            int
	CORSOrigins     []string
	APIKey          string // if empty, authentication is disabled
	RateLimitPerSec int    // if zero or no limiter, rate limiting is disabled
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health   *handler.HealthHandler
	Listings *handler.ListingHandler
	Auctions *handler.AuctionHandler
	Admin    *handler.AdminHandler
	Query    *handler.QueryHandler

	// Archives is optional; nil leaves the archive routes unregistered.
	Archives *handler.ArchiveHandler
}

// Server is the HTTP + WebSocket API server for the marketplace daemon.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

const assetPath = "/{creator}/{collection}/{name}/{edition}"

// NewServer creates a new Server with all routes registered on the ServeMux.
// It wires up middleware (logging, CORS, auth, rate limiting) and attaches
// the WebSocket hub. limiter may be nil to disable rate limiting.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter middleware.Limiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check (no auth required).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Read-only queries.
	mux.HandleFunc("GET /api/config", handlers.Query.GetConfig)
	mux.HandleFunc("GET /api/listings", handlers.Query.ListListings)
	mux.HandleFunc("GET /api/listings"+assetPath, handlers.Query.GetListing)
	mux.HandleFunc("GET /api/auctions", handlers.Query.ListAuctions)
	mux.HandleFunc("GET /api/auctions"+assetPath, handlers.Query.GetAuction)

	// Listing operations.
	mux.HandleFunc("POST /api/listings", handlers.Listings.CreateListing)
	mux.HandleFunc("DELETE /api/listings"+assetPath, handlers.Listings.Delist)
	mux.HandleFunc("POST /api/listings"+assetPath+"/buy", handlers.Listings.Buy)
	mux.HandleFunc("POST /api/listings/batch", handlers.Listings.BatchCreate)
	mux.HandleFunc("POST /api/listings/batch/delist", handlers.Listings.BatchDelist)
	mux.HandleFunc("POST /api/listings/batch/buy", handlers.Listings.BatchBuy)

	// Auction operations.
	mux.HandleFunc("POST /api/auctions", handlers.Auctions.Create)
	mux.HandleFunc("POST /api/auctions"+assetPath+"/bids", handlers.Auctions.Bid)
	mux.HandleFunc("DELETE /api/auctions"+assetPath, handlers.Auctions.Cancel)
	mux.HandleFunc("POST /api/auctions"+assetPath+"/claim", handlers.Auctions.Claim)

	// Owner-gated configuration.
	mux.HandleFunc("PUT /api/admin/owner", handlers.Admin.SetOwner)
	mux.HandleFunc("PUT /api/admin/fee-rate", handlers.Admin.SetFeeRate)
	mux.HandleFunc("PUT /api/admin/fee-recipient", handlers.Admin.SetFeeRecipient)

	// Event archive downloads.
	if handlers.Archives != nil {
		mux.HandleFunc("GET /api/archives", handlers.Archives.ListArchives)
		mux.HandleFunc("GET /api/archives/{path...}", handlers.Archives.GetArchive)
	}

	// WebSocket event feed.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain.
	var h http.Handler = mux

	if limiter != nil && cfg.RateLimitPerSec > 0 {
		h = middleware.RateLimit(limiter, cfg.RateLimitPerSec, time.Second)(h)
	}

	// Apply auth middleware (skips if APIKey is empty).
	h = middleware.Auth(cfg.APIKey)(h)

	// Apply request logging middleware.
	h = middleware.Logging(logger)(h)

	// Apply CORS middleware.
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
