package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mkale/btcfolio/internal/auth"
	"github.com/mkale/btcfolio/internal/db"
	"github.com/mkale/btcfolio/internal/ledger"
	"github.com/mkale/btcfolio/internal/models"
)

type contextKey string

const userIDKey contextKey = "user_id"

// Handler contains dependencies for HTTP handlers
type Handler struct {
	DB          *db.DB
	Ledger      *ledger.Service
	AuthService *auth.AuthService
}

// NewHandler creates a new handler
func NewHandler(db *db.DB, lg *ledger.Service, authService *auth.AuthService) *Handler {
	return &Handler{DB: db, Ledger: lg, AuthService: authService}
}

// writeJSON sends a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("write JSON response", "error", err)
	}
}

// writeError sends a JSON error response with a human-readable message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// userIDFromContext extracts the authenticated user ID set by the auth
// middleware.
func userIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDKey).(int64)
	return userID, ok
}

// Register handles user registration. On success the response carries a
// token so the client can skip a separate login.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.AuthService.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, db.ErrDuplicateEmail) {
			writeError(w, http.StatusBadRequest, "User already exists")
			return
		}
		if errors.Is(err, auth.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("register user", "error", err)
		writeError(w, http.StatusInternalServerError, "Error creating user")
		return
	}

	token, err := h.AuthService.IssueToken(user.ID)
	if err != nil {
		slog.Error("issue token", "error", err)
		writeError(w, http.StatusInternalServerError, "Error creating user")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"token": token})
}

// Login handles user login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusBadRequest, "Invalid email or password")
			return
		}
		slog.Error("login", "error", err)
		writeError(w, http.StatusInternalServerError, "Error logging in")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// JWTAuthMiddleware verifies bearer tokens. A missing credential is 401;
// a credential that fails verification is 403.
func (h *Handler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.Header.Get("Authorization")
		if tokenString == "" {
			writeError(w, http.StatusUnauthorized, "Authorization header required")
			return
		}
		tokenString = strings.TrimPrefix(tokenString, "Bearer ")

		userID, err := h.AuthService.VerifyToken(tokenString)
		if err != nil {
			writeError(w, http.StatusForbidden, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUser returns the authenticated user's account. The token's subject
// is the only identity used; there is no target-user parameter.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.DB.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusForbidden, "Invalid or expired token")
			return
		}
		slog.Error("get user", "error", err)
		writeError(w, http.StatusInternalServerError, "Error fetching user data")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// Deposit credits the authenticated user's balance
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req struct {
		Amount float64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	balance, err := h.Ledger.Deposit(r.Context(), userID, req.Amount)
	if err != nil {
		h.writeLedgerError(w, err, "Error processing deposit")
		return
	}

	writeJSON(w, http.StatusOK, map[string]float64{"balance": balance})
}

// Withdraw debits the authenticated user's balance
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req struct {
		Amount float64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	balance, err := h.Ledger.Withdraw(r.Context(), userID, req.Amount)
	if err != nil {
		h.writeLedgerError(w, err, "Error processing withdrawal")
		return
	}

	writeJSON(w, http.StatusOK, map[string]float64{"balance": balance})
}

// BuyBTC converts cash to BTC at the caller-supplied price
func (h *Handler) BuyBTC(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req struct {
		Amount   float64 `json:"amount"`
		BTCPrice float64 `json:"btcPrice"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	balance, btcAmount, err := h.Ledger.BuyBTC(r.Context(), userID, req.Amount, req.BTCPrice)
	if err != nil {
		h.writeLedgerError(w, err, "Error processing BTC purchase")
		return
	}

	writeJSON(w, http.StatusOK, map[string]float64{
		"balance":   balance,
		"btcAmount": btcAmount,
	})
}

// SellBTC converts BTC back to cash at the caller-supplied price
func (h *Handler) SellBTC(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req struct {
		BTCAmount float64 `json:"btcAmount"`
		BTCPrice  float64 `json:"btcPrice"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	balance, btcAmount, err := h.Ledger.SellBTC(r.Context(), userID, req.BTCAmount, req.BTCPrice)
	if err != nil {
		h.writeLedgerError(w, err, "Error processing BTC sale")
		return
	}

	writeJSON(w, http.StatusOK, map[string]float64{
		"balance":   balance,
		"btcAmount": btcAmount,
	})
}

// GetTransactions returns the authenticated user's full transaction
// history, oldest first.
func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	txns, err := h.Ledger.Transactions(r.Context(), userID)
	if err != nil {
		slog.Error("get transactions", "error", err)
		writeError(w, http.StatusInternalServerError, "Error fetching transactions")
		return
	}
	if txns == nil {
		txns = []models.Transaction{}
	}

	writeJSON(w, http.StatusOK, txns)
}

// writeLedgerError maps ledger failures to status codes: precondition
// and business-rule violations are 400, everything else is 500.
func (h *Handler) writeLedgerError(w http.ResponseWriter, err error, serverMsg string) {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, ledger.ErrInvalidPrice):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, db.ErrInsufficientFunds):
		writeError(w, http.StatusBadRequest, "Insufficient funds")
	case errors.Is(err, db.ErrInsufficientBTC):
		writeError(w, http.StatusBadRequest, "Insufficient BTC")
	case errors.Is(err, db.ErrNotFound):
		writeError(w, http.StatusForbidden, "Invalid or expired token")
	default:
		slog.Error("ledger operation", "error", err)
		writeError(w, http.StatusInternalServerError, serverMsg)
	}
}
