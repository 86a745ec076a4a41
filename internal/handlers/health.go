// internal/handlers/health.go
package handlers

import "net/http"

// HealthHandler is a trivial liveness probe.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
