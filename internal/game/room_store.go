// internal/game/room_store.go
package game

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const roomCodeLength = 6

// RoomStore is an in-memory registry of active rooms, keyed by room code,
// with a secondary index from client identity to room code.
type RoomStore struct {
	mu       sync.Mutex
	rooms    map[string]*Room
	byClient map[uuid.UUID]string
	rng      *rand.Rand
}

func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms:    make(map[string]*Room),
		byClient: make(map[uuid.UUID]string),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// generateCode produces a collision-checked short join code.
// Assumes s.mu is held.
func (s *RoomStore) generateCode() string {
	for {
		var b strings.Builder
		for i := 0; i < roomCodeLength; i++ {
			b.WriteByte(roomCodeAlphabet[s.rng.Intn(len(roomCodeAlphabet))])
		}
		code := b.String()
		if _, exists := s.rooms[code]; !exists {
			return code
		}
	}
}

// CreateRoom allocates a fresh room with the caller in seat A.
func (s *RoomStore) CreateRoom(host uuid.UUID, bet int64, rules RoomRules) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()

	code := s.generateCode()
	room := NewRoom(code, host, bet, rules)
	s.rooms[code] = room
	s.byClient[host] = code
	return room
}

// GetRoom fetches a room by its join code.
func (s *RoomStore) GetRoom(code string) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[strings.ToUpper(code)]
	return room, ok
}

// BindClient records which room a client belongs to. Called after a
// successful join.
func (s *RoomStore) BindClient(client uuid.UUID, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byClient[client] = code
}

// FindRoomByClient resolves the room a client is seated in, if any.
func (s *RoomStore) FindRoomByClient(client uuid.UUID) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code, ok := s.byClient[client]
	if !ok {
		return nil, false
	}
	room, ok := s.rooms[code]
	return room, ok
}

// DeleteRoom removes a room and all client bindings pointing at it.
func (s *RoomStore) DeleteRoom(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[code]
	if !ok {
		return
	}
	delete(s.rooms, code)
	for _, client := range room.Clients {
		if s.byClient[client] == code {
			delete(s.byClient, client)
		}
	}
}

// Count reports the number of active rooms.
func (s *RoomStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}
