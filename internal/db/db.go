package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/mkale/btcfolio/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Storage-level failure conditions. The ledger and handlers map these to
// HTTP status codes.
var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInsufficientBTC   = errors.New("insufficient BTC")
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	Pool *pgxpool.Pool
}

// NewDB initializes a new database connection pool
func NewDB(ctx context.Context, connString string) (*DB, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close closes the database connection pool
func (db *DB) Close(ctx context.Context) error {
	db.Pool.Close()
	return nil
}

// CreateUser inserts a new user. The unique constraint on email rejects
// duplicate registrations atomically; a violation maps to ErrDuplicateEmail.
func (db *DB) CreateUser(ctx context.Context, name, email, passwordHash string) (*models.User, error) {
	user := &models.User{}
	err := db.Pool.QueryRow(ctx,
		"INSERT INTO users (name, email, password_hash) VALUES ($1, $2, $3) RETURNING id, name, email, password_hash, balance, btc_amount, created_at",
		name, email, passwordHash).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Balance, &user.BTCAmount, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	err := db.Pool.QueryRow(ctx,
		"SELECT id, name, email, password_hash, balance, btc_amount, created_at FROM users WHERE email = $1",
		email).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Balance, &user.BTCAmount, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by ID
func (db *DB) GetUserByID(ctx context.Context, userID int64) (*models.User, error) {
	user := &models.User{}
	err := db.Pool.QueryRow(ctx,
		"SELECT id, name, email, password_hash, balance, btc_amount, created_at FROM users WHERE id = $1",
		userID).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Balance, &user.BTCAmount, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// Deposit credits a user's balance and appends the matching transaction
// record in the same database transaction.
func (db *DB) Deposit(ctx context.Context, userID int64, amount float64) (float64, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var balance float64
	err = tx.QueryRow(ctx,
		"UPDATE users SET balance = balance + $1 WHERE id = $2 RETURNING balance",
		amount, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("failed to update balance: %w", err)
	}

	_, err = tx.Exec(ctx,
		"INSERT INTO transactions (user_id, type, amount) VALUES ($1, $2, $3)",
		userID, models.TxDeposit, amount)
	if err != nil {
		return 0, fmt.Errorf("failed to record transaction: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return balance, nil
}

// Withdraw debits a user's balance if sufficient funds are available.
// The balance check is part of the UPDATE itself, so two concurrent
// withdrawals against the same row cannot both pass the guard.
func (db *DB) Withdraw(ctx context.Context, userID int64, amount float64) (float64, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock the row for update to prevent concurrent modifications
	var current float64
	err = tx.QueryRow(ctx,
		"SELECT balance FROM users WHERE id = $1 FOR UPDATE",
		userID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}

	var balance float64
	err = tx.QueryRow(ctx,
		"UPDATE users SET balance = balance - $1 WHERE id = $2 AND balance >= $1 RETURNING balance",
		amount, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrInsufficientFunds
		}
		return 0, fmt.Errorf("failed to update balance: %w", err)
	}

	_, err = tx.Exec(ctx,
		"INSERT INTO transactions (user_id, type, amount) VALUES ($1, $2, $3)",
		userID, models.TxWithdraw, amount)
	if err != nil {
		return 0, fmt.Errorf("failed to record transaction: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return balance, nil
}

// BuyBTC converts part of a user's cash balance into BTC at the given
// price. The caller supplies the BTC quantity bought; the funds guard is
// part of the UPDATE.
func (db *DB) BuyBTC(ctx context.Context, userID int64, amount, btcBought, price float64) (float64, float64, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var current float64
	err = tx.QueryRow(ctx,
		"SELECT balance FROM users WHERE id = $1 FOR UPDATE",
		userID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, ErrNotFound
		}
		return 0, 0, fmt.Errorf("failed to get balance: %w", err)
	}

	var balance, btcAmount float64
	err = tx.QueryRow(ctx,
		"UPDATE users SET balance = balance - $1, btc_amount = btc_amount + $2 WHERE id = $3 AND balance >= $1 RETURNING balance, btc_amount",
		amount, btcBought, userID).Scan(&balance, &btcAmount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, ErrInsufficientFunds
		}
		return 0, 0, fmt.Errorf("failed to update balances: %w", err)
	}

	_, err = tx.Exec(ctx,
		"INSERT INTO transactions (user_id, type, amount, btc_amount, price) VALUES ($1, $2, $3, $4, $5)",
		userID, models.TxBuy, amount, btcBought, price)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to record transaction: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return balance, btcAmount, nil
}

// SellBTC converts part of a user's BTC holding back into cash at the
// given price. The holding guard is part of the UPDATE.
func (db *DB) SellBTC(ctx context.Context, userID int64, btcSold, proceeds, price float64) (float64, float64, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var current float64
	err = tx.QueryRow(ctx,
		"SELECT btc_amount FROM users WHERE id = $1 FOR UPDATE",
		userID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, ErrNotFound
		}
		return 0, 0, fmt.Errorf("failed to get BTC amount: %w", err)
	}

	var balance, btcAmount float64
	err = tx.QueryRow(ctx,
		"UPDATE users SET balance = balance + $1, btc_amount = btc_amount - $2 WHERE id = $3 AND btc_amount >= $2 RETURNING balance, btc_amount",
		proceeds, btcSold, userID).Scan(&balance, &btcAmount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, ErrInsufficientBTC
		}
		return 0, 0, fmt.Errorf("failed to update balances: %w", err)
	}

	_, err = tx.Exec(ctx,
		"INSERT INTO transactions (user_id, type, amount, btc_amount, price) VALUES ($1, $2, $3, $4, $5)",
		userID, models.TxSell, proceeds, btcSold, price)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to record transaction: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return balance, btcAmount, nil
}

// GetUserTransactions retrieves a user's full transaction history in
// insertion order.
func (db *DB) GetUserTransactions(ctx context.Context, userID int64) ([]models.Transaction, error) {
	rows, err := db.Pool.Query(ctx,
		"SELECT id, type, amount, btc_amount, price, created_at FROM transactions WHERE user_id = $1 ORDER BY id",
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user transactions: %w", err)
	}
	defer rows.Close()

	var txns []models.Transaction
	for rows.Next() {
		var txn models.Transaction
		if err := rows.Scan(&txn.ID, &txn.Type, &txn.Amount, &txn.BTCAmount, &txn.Price, &txn.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return txns, nil
}
