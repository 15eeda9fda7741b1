package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/gobank/internal/adapter/http/handler"
	"github.com/iho/gobank/internal/adapter/http/middleware"
	"github.com/iho/gobank/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler     *handler.AccountHandler
	CardHandler        *handler.CardHandler
	TransactionHandler *handler.TransactionHandler
	QRHandler          *handler.QRHandler
	LoanHandler        *handler.LoanHandler
	DepositHandler     *handler.DepositHandler
	LoanTypeHandler    *handler.CatalogHandler
	DepositTypeHandler *handler.CatalogHandler
	HealthHandler      *handler.HealthHandler

	// Authenticate puts a principal in the request context. Required.
	Authenticate func(http.Handler) http.Handler

	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter
	HTTPMetrics      *middleware.HTTPMetrics
	MetricsHandler   http.Handler
	Logger           *zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	if cfg.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(*cfg.Logger).Wrap)
	}
	r.Use(middleware.Recovery)
	if cfg.HTTPMetrics != nil {
		r.Use(cfg.HTTPMetrics.Wrap)
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cfg.Authenticate)

		// Idempotency middleware for mutating requests, keyed per caller
		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL).Wrap)
		}

		// Accounts
		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", cfg.AccountHandler.Create)
			r.Get("/", cfg.AccountHandler.List)
			r.Get("/{number}", cfg.AccountHandler.Get)
			r.Patch("/{number}", cfg.AccountHandler.Rename)
			r.Delete("/{number}", cfg.AccountHandler.Delete)
			r.Put("/{number}/default", cfg.AccountHandler.SetDefault)
		})

		// Cards
		r.Route("/cards", func(r chi.Router) {
			r.Post("/", cfg.CardHandler.Issue)
			r.Get("/", cfg.CardHandler.List)
			r.Get("/{number}", cfg.CardHandler.Get)
		})

		// Transactions
		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", cfg.TransactionHandler.Create)
			r.Get("/", cfg.TransactionHandler.List)
			r.Get("/{id}", cfg.TransactionHandler.Get)
		})

		// QR
		r.Get("/qr", cfg.QRHandler.Generate)
		r.Get("/qr/resolve", cfg.QRHandler.Resolve)

		// Loans and deposits
		r.Route("/loans", func(r chi.Router) {
			r.Post("/", cfg.LoanHandler.Create)
			r.Get("/", cfg.LoanHandler.List)
			r.Get("/{id}", cfg.LoanHandler.Get)
			r.Put("/{id}", cfg.LoanHandler.Update)
		})
		r.Route("/deposits", func(r chi.Router) {
			r.Post("/", cfg.DepositHandler.Create)
			r.Get("/", cfg.DepositHandler.List)
			r.Get("/{id}", cfg.DepositHandler.Get)
			r.Put("/{id}", cfg.DepositHandler.Update)
		})

		// Catalogs
		r.Route("/loan-types", catalogRoutes(cfg.LoanTypeHandler))
		r.Route("/deposit-types", catalogRoutes(cfg.DepositTypeHandler))
	})

	return r
}

func catalogRoutes(h *handler.CatalogHandler) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Post("/", h.Create)
			r.Delete("/{id}", h.Delete)
			r.Post("/{id}/options", h.AddOption)
			r.Delete("/{id}/options", h.RemoveOption)
			r.Put("/{id}/availability", h.SetAvailability)
		})
	}
}
