// internal/handlers/session.go
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/whitejack/server/internal/auth"
)

// sessionCookieName is the cookie carrying the signed guest session token.
const sessionCookieName = "session_token"

// EnsureGuestSession resolves the caller's guest identity from the session
// cookie, minting a fresh one when the cookie is absent, expired or invalid.
// Must run before any WebSocket upgrade so the Set-Cookie header can still be
// written.
func EnsureGuestSession(w http.ResponseWriter, r *http.Request) (uuid.UUID, error) {
	cookieHeader := r.Header.Get("Cookie")
	if strings.Contains(cookieHeader, sessionCookieName+"=") {
		token := extractCookieToken(cookieHeader, sessionCookieName)
		if sub, err := auth.AuthenticateJWT(token); err == nil {
			if clientID, parseErr := uuid.Parse(sub); parseErr == nil {
				return clientID, nil
			}
		}
		// Invalid or stale token: fall through and mint a fresh identity.
	}

	clientID := uuid.New()
	token, err := auth.CreateJWT(clientID.String())
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create session JWT: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		HttpOnly: true,
		Path:     "/",
	})
	return clientID, nil
}

// sessionClientID authenticates a plain HTTP request from its session cookie.
func sessionClientID(r *http.Request) (uuid.UUID, error) {
	token := extractCookieToken(r.Header.Get("Cookie"), sessionCookieName)
	if token == "" {
		return uuid.Nil, fmt.Errorf("missing session cookie")
	}
	sub, err := auth.AuthenticateJWT(token)
	if err != nil {
		return uuid.Nil, err
	}
	clientID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid client id in token: %w", err)
	}
	return clientID, nil
}
