// Package httpapi exposes the settlement, budgeting, analytics, rate and
// import services as a JSON API. Every authenticated route reads the acting
// user from the X-User-ID header.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	applog "kopilka/internal/log"
	"kopilka/internal/services"
)

// Services bundles the application services the API fronts.
type Services struct {
	Users        *services.UserService
	Transactions *services.TransactionService
	Budgets      *services.BudgetService
	Analytics    *services.AnalyticsService
	Currency     *services.CurrencyService
	Imports      *services.ImportService
}

// Server is a ready-to-run HTTP server for the JSON API.
type Server struct {
	http.Server

	svc    Services
	logger *applog.Logger
}

// NewServer configures routes and middleware, returning a server bound to
// addr.
func NewServer(addr string, svc Services, logger *applog.Logger) *Server {
	s := &Server{
		Server: http.Server{
			Addr:           addr,
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   30 * time.Second,
			IdleTimeout:    60 * time.Second,
			MaxHeaderBytes: 1 << 16,
		},
		svc:    svc,
		logger: logger.WithComponent(applog.ComponentHTTP),
	}

	r := chi.NewRouter()
	r.Use(applog.Middleware(s.logger))
	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleHealth)

	limiter := newRateLimiter(120)
	r.Route("/api", func(r chi.Router) {
		r.Use(traceMiddleware(s.logger))
		r.Use(limiter.middleware)
		r.Use(securityHeaders)

		r.Post("/users", s.handleRegisterUser)
		r.Get("/users/me", s.handleCurrentUser)

		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", s.handleCreateTransaction)
			r.Get("/", s.handleListTransactions)
			r.Get("/{id}", s.handleGetTransaction)
			r.Patch("/{id}", s.handleUpdateTransaction)
			r.Delete("/{id}", s.handleDeleteTransaction)
		})

		r.Route("/budgets", func(r chi.Router) {
			r.Post("/", s.handleCreateBudget)
			r.Get("/", s.handleListBudgets)
			r.Get("/{id}", s.handleGetBudget)
			r.Patch("/{id}", s.handleUpdateBudget)
			r.Delete("/{id}", s.handleDeleteBudget)
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/totals", s.handleTotals)
			r.Get("/shares", s.handleCategoryShares)
			r.Get("/compare", s.handleComparePeriods)
		})

		r.Route("/rates", func(r chi.Router) {
			r.Post("/refresh", s.handleRefreshRates)
			r.Get("/{currency}", s.handleGetRate)
		})

		r.Route("/imports", func(r chi.Router) {
			r.Post("/", s.handleStartImport)
			r.Get("/{id}", s.handleGetImportJob)
		})
	})

	s.Handler = r
	return s
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
