package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"investfund/internal/config"
	"investfund/internal/db"
	"investfund/internal/handlers"
	"investfund/internal/provider"
	"investfund/internal/services"
	"investfund/internal/store"
	"investfund/internal/websocket"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer database.Close()

	users := store.NewUserStore(database)
	admins := store.NewAdminStore(database)
	audit := store.NewAuditStore(database)
	ledger := store.NewLedgerStore(database)
	investments := store.NewInvestmentStore(database)
	profits := store.NewProfitStore(database)
	withdrawals := store.NewWithdrawalStore(database)
	txRunner := db.NewTxRunner(database)
	hub := websocket.NewHub()

	stripe := provider.NewClient(cfg.StripeAPIBase, cfg.StripeSecretKey, cfg.ProviderTimeout)
	balances := services.NewBalanceService(investments, profits, ledger)
	ingest := services.NewIngestService(txRunner, investments, users, audit, stripe, balances, hub)
	settlement := services.NewWithdrawalService(txRunner, withdrawals, ledger, users, balances, audit, hub, cfg.WithdrawalFeeBps, cfg.WithdrawalMinimum)

	handler := handlers.New(txRunner, cfg, users, admins, audit, ledger, investments, profits, withdrawals, balances, ingest, settlement, hub)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("investfund API listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
