package models

import "time"

// User represents a registered account and its ledger totals.
// PasswordHash is excluded from every JSON projection.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Balance      float64   `json:"balance"`   // Cash balance in USD
	BTCAmount    float64   `json:"btcAmount"` // BTC holding, 8 decimal places
	CreatedAt    time.Time `json:"createdAt"`
}

// Transaction types
const (
	TxDeposit  = "deposit"
	TxWithdraw = "withdraw"
	TxBuy      = "buy"
	TxSell     = "sell"
)

// Transaction is one immutable ledger entry. BTCAmount and Price are
// present for buy/sell entries only.
type Transaction struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Amount    float64   `json:"amount"` // Currency units moved
	BTCAmount *float64  `json:"btcAmount,omitempty"`
	Price     *float64  `json:"price,omitempty"` // BTC price used for the trade
	CreatedAt time.Time `json:"date"`
}
