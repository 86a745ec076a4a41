// internal/handlers/room_server.go
package handlers

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/whitejack/server/internal/game"
	"github.com/whitejack/server/internal/models"
	"github.com/whitejack/server/internal/wallet"
)

// RoomServer owns the room registry and the mapping from client identity to
// live WebSocket connection. All intent routing funnels through Dispatch so
// the WS read loop stays a thin shell.
type RoomServer struct {
	mu    sync.Mutex
	conns map[uuid.UUID]*websocket.Conn

	Rooms  *game.RoomStore
	Wallet wallet.Store
	logger *logrus.Logger
}

func NewRoomServer(logger *logrus.Logger, w wallet.Store) *RoomServer {
	return &RoomServer{
		conns:  make(map[uuid.UUID]*websocket.Conn),
		Rooms:  game.NewRoomStore(),
		Wallet: w,
		logger: logger,
	}
}

// Register associates a client identity with its live connection.
func (rs *RoomServer) Register(clientID uuid.UUID, c *websocket.Conn) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.conns[clientID] = c
}

// Unregister drops a client's connection mapping.
func (rs *RoomServer) Unregister(clientID uuid.UUID) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	delete(rs.conns, clientID)
}

func (rs *RoomServer) conn(clientID uuid.UUID) *websocket.Conn {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.conns[clientID]
}

// bindBroadcast attaches the per-seat send closure to a room. The closure is
// invoked while the room lock is held, so it resolves the target connection,
// marshals once, and hands the write to a goroutine; room logic must never
// block on transport latency.
func (rs *RoomServer) bindBroadcast(room *game.Room) {
	room.BroadcastToSeatFn = func(seat models.Seat, ev game.Event) {
		clientID, seated := room.Clients[seat]
		if !seated {
			return
		}
		c := rs.conn(clientID)
		if c == nil {
			return
		}

		data, err := json.Marshal(ev)
		if err != nil {
			rs.logger.Errorf("Failed to marshal event (%s) for room %s: %v", ev.Type, room.Code, err)
			return
		}

		go func(conn *websocket.Conn, payload []byte) {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
				rs.logger.Warnf("Failed to write event (%s) to client %s in room %s: %v", ev.Type, clientID, room.Code, err)
			}
		}(c, data)
	}
}

// Dispatch routes one decoded client intent. It resolves the caller's room,
// serializes through the room lock and invokes the matching game handler.
// Returned errors are sent back to the offending caller only.
func (rs *RoomServer) Dispatch(clientID uuid.UUID, intent models.Intent) error {
	switch intent.Type {
	case "CREATE_ROOM":
		return rs.createRoom(clientID, intent.Payload)
	case "JOIN_ROOM":
		return rs.joinRoom(clientID, payloadString(intent.Payload, "roomId"))
	case "LEAVE_ROOM":
		rs.Leave(clientID)
		return nil
	}

	room, ok := rs.Rooms.FindRoomByClient(clientID)
	if !ok {
		return game.ErrNotFound
	}
	room.Mu.Lock()
	defer room.Mu.Unlock()

	seat, ok := room.SeatOf(clientID)
	if !ok {
		return game.ErrNotFound
	}

	switch intent.Type {
	case "HIT":
		return room.HandleDraw(seat)
	case "STAND":
		return room.HandleStand(seat)
	case "USE_SPECIAL_CARD":
		return room.HandleAbility(seat, game.AbilityID(payloadString(intent.Payload, "cardType")), intent.Payload)
	case "PLAY_AGAIN":
		return room.HandleRematch(seat)
	default:
		return game.ErrInvalidTarget
	}
}

// createRoom allocates a fresh room for the creator, applies any rule
// overrides, and pushes ROOM_CREATED with the room code to join by.
func (rs *RoomServer) createRoom(clientID uuid.UUID, payload map[string]interface{}) error {
	if room, seated := rs.Rooms.FindRoomByClient(clientID); seated {
		rs.logger.Warnf("Client %s tried to create a room while seated in %s.", clientID, room.Code)
		return game.ErrFull
	}

	rules := game.DefaultRules()
	if overrides, ok := payload["rules"].(map[string]interface{}); ok {
		if err := rules.Update(overrides); err != nil {
			return err
		}
	}

	bet := payloadInt64(payload, "bet")
	room := rs.Rooms.CreateRoom(clientID, bet, rules)
	room.Wallet = rs.Wallet
	rs.bindBroadcast(room)

	room.Mu.Lock()
	room.BroadcastState(game.EventRoomCreated)
	room.Mu.Unlock()

	rs.logger.Infof("Client %s created room %s (bet %d).", clientID, room.Code, bet)
	return nil
}

// joinRoom seats the client as the second player; a successful join deals
// round 1 and both seats receive GAME_STARTED. A client already seated
// somewhere (including the target room's own host) is rejected, keeping the
// client-to-room index one-to-one so teardown always finds the right room.
func (rs *RoomServer) joinRoom(clientID uuid.UUID, code string) error {
	if cur, seated := rs.Rooms.FindRoomByClient(clientID); seated {
		rs.logger.Warnf("Client %s tried to join %s while seated in %s.", clientID, code, cur.Code)
		return game.ErrFull
	}

	room, ok := rs.Rooms.GetRoom(code)
	if !ok {
		return game.ErrNotFound
	}

	room.Mu.Lock()
	defer room.Mu.Unlock()
	if err := room.Join(clientID); err != nil {
		return err
	}
	rs.Rooms.BindClient(clientID, room.Code)
	room.BroadcastState(game.EventGameStarted)
	rs.logger.Infof("Client %s joined room %s.", clientID, room.Code)
	return nil
}

// Leave tears a room down after an explicit LEAVE_ROOM intent.
func (rs *RoomServer) Leave(clientID uuid.UUID) {
	rs.teardown(clientID, game.EventPlayerLeft)
}

// Disconnect tears a room down after the client's transport dropped.
func (rs *RoomServer) Disconnect(clientID uuid.UUID) {
	rs.Unregister(clientID)
	rs.teardown(clientID, game.EventPlayerDisconnected)
}

// teardown notifies the remaining seat and deletes the room. A two-seat room
// cannot continue once either player is gone.
func (rs *RoomServer) teardown(clientID uuid.UUID, evType game.EventType) {
	room, ok := rs.Rooms.FindRoomByClient(clientID)
	if !ok {
		return
	}

	room.Mu.Lock()
	if seat, seated := room.SeatOf(clientID); seated {
		other := seat.Other()
		if _, occupied := room.Clients[other]; occupied {
			room.NotifySeat(other, game.Event{
				Type:     evType,
				RoomCode: room.Code,
				Seat:     seat,
			})
		}
	}
	room.Mu.Unlock()

	rs.Rooms.DeleteRoom(room.Code)
	rs.logger.Infof("Room %s closed (%s by client %s).", room.Code, evType, clientID)
}

// payloadString extracts a string field from a loose JSON payload.
func payloadString(payload map[string]interface{}, key string) string {
	if payload == nil {
		return ""
	}
	s, _ := payload[key].(string)
	return s
}

// payloadInt64 extracts an integer field from a loose JSON payload.
func payloadInt64(payload map[string]interface{}, key string) int64 {
	if payload == nil {
		return 0
	}
	switch v := payload[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}
