// internal/handlers/ws_codes.go
package handlers

// InvalidAuthTokenError is the close code sent when a client's session
// cannot be established before the WebSocket upgrade completes.
const InvalidAuthTokenError = 3001
