// Package ledger implements the four balance-mutating operations on a
// user's account: deposit, withdraw, buy BTC, sell BTC. Every mutation
// is atomic with respect to the user's record and appends exactly one
// transaction record; the store enforces both in a single database
// transaction.
package ledger

import (
	"context"
	"errors"

	"github.com/mkale/btcfolio/internal/db"
	"github.com/mkale/btcfolio/internal/models"
)

var (
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrInvalidPrice  = errors.New("price must be positive")
)

// Service exposes the ledger operations over a store.
type Service struct {
	DB *db.DB
}

// NewService creates a new ledger service
func NewService(db *db.DB) *Service {
	return &Service{DB: db}
}

// Deposit credits amount to the user's balance and returns the new balance.
func (s *Service) Deposit(ctx context.Context, userID int64, amount float64) (float64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return s.DB.Deposit(ctx, userID, amount)
}

// Withdraw debits amount from the user's balance and returns the new
// balance. Fails with db.ErrInsufficientFunds if the balance is too low.
func (s *Service) Withdraw(ctx context.Context, userID int64, amount float64) (float64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return s.DB.Withdraw(ctx, userID, amount)
}

// BuyBTC spends amount of cash on BTC at the caller-supplied price and
// returns the new balance and BTC holding. The price is taken as given;
// there is no server-side price oracle.
func (s *Service) BuyBTC(ctx context.Context, userID int64, amount, price float64) (float64, float64, error) {
	if amount <= 0 {
		return 0, 0, ErrInvalidAmount
	}
	if price <= 0 {
		return 0, 0, ErrInvalidPrice
	}
	btcBought := amount / price
	return s.DB.BuyBTC(ctx, userID, amount, btcBought, price)
}

// SellBTC sells btcAmount of the user's BTC at the caller-supplied price
// and returns the new balance and BTC holding. Fails with
// db.ErrInsufficientBTC if the holding is too small.
func (s *Service) SellBTC(ctx context.Context, userID int64, btcAmount, price float64) (float64, float64, error) {
	if btcAmount <= 0 {
		return 0, 0, ErrInvalidAmount
	}
	if price <= 0 {
		return 0, 0, ErrInvalidPrice
	}
	proceeds := btcAmount * price
	return s.DB.SellBTC(ctx, userID, btcAmount, proceeds, price)
}

// Transactions returns the user's full transaction history, oldest first.
func (s *Service) Transactions(ctx context.Context, userID int64) ([]models.Transaction, error) {
	return s.DB.GetUserTransactions(ctx, userID)
}
