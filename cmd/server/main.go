package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkale/btcfolio/internal/api"
	"github.com/mkale/btcfolio/internal/auth"
	"github.com/mkale/btcfolio/internal/config"
	"github.com/mkale/btcfolio/internal/db"
	"github.com/mkale/btcfolio/internal/ledger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Main entry point: loads configuration, connects the store, and serves
// the HTTP API.
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	database, err := db.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close(ctx)

	authService := auth.NewAuthService(database, cfg.JWTSecret, cfg.TokenTTL, cfg.BcryptCost)
	ledgerService := ledger.NewService(database)
	handler := api.NewHandler(database, ledgerService, authService)

	r := chi.NewRouter()

	// Enable CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Serve the static client
	r.Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))

	// Account snapshot stream (token in query string)
	r.Get("/ws", handler.StreamAccount)

	// Public endpoints
	r.Post("/api/register", handler.Register)
	r.Post("/api/login", handler.Login)

	// Protected endpoints (require bearer token)
	r.Group(func(r chi.Router) {
		r.Use(handler.JWTAuthMiddleware)
		r.Get("/api/user", handler.GetUser)
		r.Post("/api/deposit", handler.Deposit)
		r.Post("/api/withdraw", handler.Withdraw)
		r.Post("/api/buy-btc", handler.BuyBTC)
		r.Post("/api/sell-btc", handler.SellBTC)
		r.Get("/api/transactions", handler.GetTransactions)
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM
	shutdownCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-shutdownCtx.Done()
	slog.Info("shutting down server")

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(stopCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
