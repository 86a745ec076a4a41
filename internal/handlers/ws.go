// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/whitejack/server/internal/game"
	"github.com/whitejack/server/internal/middleware"
	"github.com/whitejack/server/internal/models"
)

// WSHandler upgrades the HTTP connection to WebSocket, resolves the caller's
// guest session, registers the connection, and runs the read loop until the
// client goes away. Room teardown happens on exit.
func WSHandler(logger *logrus.Logger, rs *RoomServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Session resolution must precede the upgrade: Set-Cookie cannot be
		// written once the connection is hijacked.
		clientID, err := EnsureGuestSession(w, r)
		if err != nil {
			logger.Warnf("Session resolution failed for %s: %v", r.RemoteAddr, err)
			if c, aerr := websocket.Accept(w, r, &websocket.AcceptOptions{
				OriginPatterns: []string{"*"},
			}); aerr == nil {
				c.Close(websocket.StatusCode(InvalidAuthTokenError), "Authentication failed.")
			}
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			logger.Warnf("WebSocket accept error from %s: %v", r.RemoteAddr, err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "Internal server error during handler exit.")

		rs.Register(clientID, c)
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)
		logger.Infof("Client %s connected.", clientID)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		err = readMessages(ctx, c, rs, clientID, logger)

		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, err)
		rs.Disconnect(clientID)
	}
}

// readMessages continuously reads client messages, decodes them into intents
// and routes them through the room server. It exits on read error, closure or
// context cancellation; a nil return means a clean close.
func readMessages(ctx context.Context, c *websocket.Conn, rs *RoomServer, clientID uuid.UUID, logger *logrus.Logger) error {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				logger.Infof("WebSocket closed normally for client %s.", clientID)
				return nil
			}
			if strings.Contains(err.Error(), "context canceled") {
				logger.Infof("WebSocket context canceled for client %s.", clientID)
				return nil
			}
			logger.Warnf("Error reading from WebSocket for client %s: %v (Status: %d)", clientID, err, status)
			return err
		}

		if msgType != websocket.MessageText {
			logger.Warnf("Received non-text message type %d from client %s. Ignoring.", msgType, clientID)
			continue
		}

		var payload map[string]interface{}
		if err := json.Unmarshal(data, &payload); err != nil {
			logger.Warnf("Invalid JSON received from client %s: %v. Data: %s", clientID, err, string(data))
			sendWsError(ctx, c, "Invalid JSON format.")
			continue
		}

		intentType, _ := payload["type"].(string)
		if intentType == "ping" {
			sendWsMessage(ctx, c, map[string]string{"type": "pong"})
			continue
		}

		logger.Debugf("Received intent '%s' from client %s.", intentType, clientID)

		if err := rs.Dispatch(clientID, models.Intent{Type: intentType, Payload: payload}); err != nil {
			logger.Debugf("Intent '%s' from client %s rejected: %v", intentType, clientID, err)
			sendWsError(ctx, c, err.Error())
		}

		select {
		case <-ctx.Done():
			logger.Infof("Context canceled after processing message for client %s.", clientID)
			return nil
		default:
		}
	}
}

// sendWsMessage marshals a message and sends it to the WebSocket client.
// Includes logging for errors and uses a write timeout.
func sendWsMessage(ctx context.Context, c *websocket.Conn, message interface{}) {
	if c == nil {
		log.Println("Error: Attempted to send WebSocket message on nil connection.")
		return
	}
	msgBytes, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling WebSocket message: %v", err)
		return
	}

	writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = c.Write(writeCtx, websocket.MessageText, msgBytes)
	if err != nil {
		status := websocket.CloseStatus(err)
		if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && !strings.Contains(err.Error(), "context deadline exceeded") {
			log.Printf("Error writing WebSocket message: %v (Status: %d)", err, status)
		} else if strings.Contains(err.Error(), "context deadline exceeded") {
			log.Printf("Timeout writing WebSocket message: %v", err)
		}
	}
}

// sendWsError sends a structured error event to the client.
func sendWsError(ctx context.Context, c *websocket.Conn, errorMsg string) {
	sendWsMessage(ctx, c, game.Event{
		Type:    game.EventError,
		Message: errorMsg,
	})
}
