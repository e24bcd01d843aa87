package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/mkale/btcfolio/internal/auth"
	"github.com/mkale/btcfolio/internal/config"
	"github.com/mkale/btcfolio/internal/db"
	"github.com/mkale/btcfolio/internal/ledger"
)

// Seed the database with a demo account and some trading history
func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	database, err := db.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(ctx)

	// Skip seeding if the demo account already exists
	if _, err := database.GetUserByEmail(ctx, "demo@btcfolio.local"); err == nil {
		fmt.Println("Demo account already exists. No need to seed.")
		os.Exit(0)
	} else if !errors.Is(err, db.ErrNotFound) {
		log.Fatalf("Failed to check demo account: %v", err)
	}

	authService := auth.NewAuthService(database, cfg.JWTSecret, cfg.TokenTTL, cfg.BcryptCost)
	user, err := authService.Register(ctx, "Demo Trader", "demo@btcfolio.local", "demo-password")
	if err != nil {
		log.Fatalf("Failed to create demo account: %v", err)
	}

	// Build a plausible history through the ledger so every balance
	// change has its matching transaction record.
	ledgerService := ledger.NewService(database)
	if _, err := ledgerService.Deposit(ctx, user.ID, 10000); err != nil {
		log.Fatalf("Failed to seed deposit: %v", err)
	}
	if _, _, err := ledgerService.BuyBTC(ctx, user.ID, 3000, 30000); err != nil {
		log.Fatalf("Failed to seed BTC purchase: %v", err)
	}
	if _, _, err := ledgerService.SellBTC(ctx, user.ID, 0.05, 32000); err != nil {
		log.Fatalf("Failed to seed BTC sale: %v", err)
	}
	if _, err := ledgerService.Withdraw(ctx, user.ID, 500); err != nil {
		log.Fatalf("Failed to seed withdrawal: %v", err)
	}

	fmt.Println("Successfully seeded the database with a demo account!")
}
