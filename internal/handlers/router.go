package handlers

import (
	"net/http"

	"investfund/internal/config"
	"investfund/internal/db"
	"investfund/internal/middleware"
	"investfund/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handler struct {
	txRunner    db.TxRunner
	cfg         config.Config
	users       UserStore
	admins      AdminStore
	audit       AuditStore
	ledger      LedgerStore
	investments InvestmentStore
	profits     ProfitStore
	withdrawals WithdrawalStore
	balances    BalanceService
	ingest      IngestService
	settlement  WithdrawalService
	hub         *websocket.Hub
}

func New(txRunner db.TxRunner, cfg config.Config, users UserStore, admins AdminStore, audit AuditStore, ledger LedgerStore, investments InvestmentStore, profits ProfitStore, withdrawals WithdrawalStore, balances BalanceService, ingest IngestService, settlement WithdrawalService, hub *websocket.Hub) *Handler {
	return &Handler{
		txRunner:    txRunner,
		cfg:         cfg,
		users:       users,
		admins:      admins,
		audit:       audit,
		ledger:      ledger,
		investments: investments,
		profits:     profits,
		withdrawals: withdrawals,
		balances:    balances,
		ingest:      ingest,
		settlement:  settlement,
		hub:         hub,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(middleware.Auth(h.cfg.JWTSecret)).Get("/me", h.Me)
		r.With(middleware.Auth(h.cfg.JWTSecret)).Post("/payout", h.SetPayout)
	})
	router.With(middleware.Auth(h.cfg.JWTSecret)).Get("/balance", h.GetBalance)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Get("/ledger", h.ListLedger)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Get("/investments", h.ListInvestments)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Post("/payments/ingest", h.IngestPayment)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Post("/withdrawals", h.CreateWithdrawal)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Get("/withdrawals", h.ListWithdrawals)
	router.Get("/ws/balances", h.WSBalances)

	router.Route("/admin", func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))
		r.With(middleware.RequireAdmin(h.admins, "")).Get("/withdrawals", h.AdminListWithdrawals)
		r.With(middleware.RequireAdmin(h.admins, "")).Post("/withdrawals/resolve", h.ResolveWithdrawal)
		r.With(middleware.RequireAdmin(h.admins, "")).Post("/profits", h.AdminCreateProfit)
		r.With(middleware.RequireAdmin(h.admins, "")).Get("/audit", h.ListAuditLogs)
	})

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}
