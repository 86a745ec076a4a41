// internal/handlers/wallet.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/whitejack/server/internal/wallet"
)

// WalletBalanceHandler serves GET /wallet/balance for the session's client.
func WalletBalanceHandler(logger *logrus.Logger, store wallet.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		clientID, err := sessionClientID(r)
		if err != nil {
			http.Error(w, "invalid session", http.StatusForbidden)
			return
		}

		balance, err := store.Balance(r.Context(), clientID)
		if err != nil {
			logger.Errorf("Failed to read balance for client %s: %v", clientID, err)
			http.Error(w, "failed to read balance", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"clientId": clientID.String(),
			"balance":  balance,
		})
	}
}
