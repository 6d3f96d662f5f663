package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const maxBodyBytes = 64 << 10

// NewRouter wires the ledger endpoints onto a chi router.
func NewRouter(h *APIHandler, requestTimeout time.Duration) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.RequestSize(maxBodyBytes))

	r.Get("/api/health", h.HealthCheckHandler)

	r.Route("/api/v1/accounts", func(r chi.Router) {
		r.Post("/", h.OpenAccountHandler)
		r.Get("/", h.ListAccountsHandler)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetAccountHandler)
			r.Get("/balance", h.BalanceHandler)
			r.Post("/deposit", h.DepositHandler)
			r.Post("/withdraw", h.WithdrawHandler)
			r.Post("/transfer", h.TransferHandler)
			r.Post("/interest", h.InterestHandler)
			r.Get("/history", h.HistoryHandler)
			r.Get("/statement", h.StatementHandler)
		})
	})

	return r
}
