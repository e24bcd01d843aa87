package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
}

// snapshotInterval is how often an idle stream re-sends the account state.
const snapshotInterval = 5 * time.Second

// StreamAccount pushes the authenticated user's balance and BTC holding
// over a websocket: once on connect, then on an interval. Browsers cannot
// set headers on websocket dials, so the token travels in the query string.
func (h *Handler) StreamAccount(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, http.StatusUnauthorized, "token query parameter required")
		return
	}
	userID, err := h.AuthService.VerifyToken(token)
	if err != nil {
		writeError(w, http.StatusForbidden, "Invalid or expired token")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade connection", "error", err)
		return
	}
	defer conn.Close()

	// Drain reads to detect disconnection
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(snapshotInterval)
	defer ticker.Stop()

	for {
		if err := h.writeSnapshot(r.Context(), conn, userID); err != nil {
			return
		}
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

func (h *Handler) writeSnapshot(ctx context.Context, conn *websocket.Conn, userID int64) error {
	user, err := h.DB.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	data, err := json.Marshal(map[string]float64{
		"balance":   user.Balance,
		"btcAmount": user.BTCAmount,
	})
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}
