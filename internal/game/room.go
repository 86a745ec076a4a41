// internal/game/room.go
package game

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/whitejack/server/internal/cache"
	"github.com/whitejack/server/internal/deck"
	"github.com/whitejack/server/internal/models"
)

// Wallet is the external balance collaborator. The room only ever applies
// deltas; reads happen outside the game layer.
type Wallet interface {
	ApplyDelta(ctx context.Context, clientID uuid.UUID, delta int64) error
}

// SeatState is the authoritative per-seat state for the current round.
type SeatState struct {
	Hand               []models.Card
	Stopped            bool
	Score              int
	WantsRematch       bool
	AbilitiesRemaining int
}

// Reveal holds transient caller-only payloads produced by abilities. It is
// attached to the owner's snapshots until the next round starts.
type Reveal struct {
	NextCardPeek       *models.Card   `json:"nextCardPeek,omitempty"`
	OpponentCardReveal *models.Card   `json:"opponentCardReveal,omitempty"`
	DeckHistogram      map[string]int `json:"deckHistogram,omitempty"`
	DeckTotal          int            `json:"deckTotal,omitempty"`
	BonusAmount        int            `json:"bonusAmount,omitempty"`
}

// RoundState is the current round's game state. It is replaced wholesale at
// round start and never partially merged.
type RoundState struct {
	Seats       map[models.Seat]*SeatState
	CurrentTurn models.Seat // empty before the first deal
	Started     bool
	Over        bool
	Winner      string // "player1", "player2", "draw" or empty
	// DeckShuffled is raised when a low-water reshuffle happened and cleared
	// after exactly one state broadcast.
	DeckShuffled bool
	Reveals      map[models.Seat]*Reveal
}

// Room is the aggregate for one two-seat session. All intents for a room are
// serialized through Mu; rooms never share mutable state with each other.
type Room struct {
	Code    string
	Clients map[models.Seat]uuid.UUID
	Bet     int64
	Rules   RoomRules

	Deck        *deck.Deck
	RoundNumber int
	MatchScore  map[models.Seat]int
	State       *RoundState

	rng         *rand.Rand
	actionIndex int

	Mu sync.Mutex

	// BroadcastToSeatFn delivers an event to a single seat's connection.
	// Snapshots are viewer-specific, so all state fan-out goes seat by seat.
	BroadcastToSeatFn func(seat models.Seat, ev Event)

	// Wallet applies bet debits, win credits and Bonus credits. May be nil.
	Wallet Wallet
}

// NewRoom builds a room with seat A filled, a freshly shuffled deck and an
// empty pre-game state.
func NewRoom(code string, host uuid.UUID, bet int64, rules RoomRules) *Room {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	r := &Room{
		Code:    code,
		Clients: map[models.Seat]uuid.UUID{models.SeatA: host},
		Bet:     bet,
		Rules:   rules,
		Deck:    deck.New(rng),
		MatchScore: map[models.Seat]int{
			models.SeatA: 0,
			models.SeatB: 0,
		},
		rng: rng,
	}
	r.State = &RoundState{
		Seats: map[models.Seat]*SeatState{
			models.SeatA: {Hand: []models.Card{}, AbilitiesRemaining: rules.AbilityCount},
		},
		Reveals: map[models.Seat]*Reveal{},
	}
	return r
}

// Join seats the given client as seat B and deals round 1.
// Assumes lock is held.
func (r *Room) Join(client uuid.UUID) error {
	if _, taken := r.Clients[models.SeatB]; taken {
		return ErrFull
	}
	r.Clients[models.SeatB] = client
	r.startRound()
	return nil
}

// SeatOf resolves a client identity to its seat within the room.
// Assumes lock is held.
func (r *Room) SeatOf(client uuid.UUID) (models.Seat, bool) {
	for seat, id := range r.Clients {
		if id == client {
			return seat, true
		}
	}
	return "", false
}

// seatState returns the acting seat's state or nil pre-deal.
// Assumes lock is held.
func (r *Room) seatState(seat models.Seat) *SeatState {
	if r.State == nil {
		return nil
	}
	return r.State.Seats[seat]
}

// drawCard pops the next card, rebuilding and reshuffling the deck first if
// it has fallen below the low-water mark. Assumes lock is held.
func (r *Room) drawCard() models.Card {
	if r.Deck.Len() < r.Rules.LowWaterMark {
		r.Deck.Rebuild()
		r.State.DeckShuffled = true
		log.Printf("Room %s: deck below low-water mark, rebuilt and reshuffled (%d cards).", r.Code, r.Deck.Len())
		r.logAction(uuid.Nil, "deck_reshuffle", map[string]interface{}{"cardsRemaining": r.Deck.Len()})
	}
	c, ok := r.Deck.Draw()
	if !ok {
		// Unreachable while LowWaterMark >= 1; guard anyway.
		r.Deck.Rebuild()
		r.State.DeckShuffled = true
		c, _ = r.Deck.Draw()
	}
	return c
}

// fireEventToSeat sends an event to one seat's connection if the transport
// hook is wired. Assumes lock is held.
func (r *Room) fireEventToSeat(seat models.Seat, ev Event) {
	if r.BroadcastToSeatFn == nil {
		log.Printf("Warning: BroadcastToSeatFn is nil for room %s, dropping event %s.", r.Code, ev.Type)
		return
	}
	r.BroadcastToSeatFn(seat, ev)
}

// broadcastState sends each seated player their view of the current state,
// then lowers the one-shot reshuffle flag. Assumes lock is held.
func (r *Room) broadcastState(evType EventType) {
	for seat := range r.Clients {
		snap := r.snapshotFor(seat)
		r.fireEventToSeat(seat, Event{
			Type:     evType,
			RoomCode: r.Code,
			Seat:     seat,
			State:    snap,
		})
	}
	if r.State != nil {
		r.State.DeckShuffled = false
	}
}

// NotifySeat sends a stateless event to one seat. Used by the transport layer
// for leave/disconnect notices. Assumes lock is held by the caller.
func (r *Room) NotifySeat(seat models.Seat, ev Event) {
	r.fireEventToSeat(seat, ev)
}

// BroadcastState is the transport layer's entry point for pushing the
// current state after membership changes (join, rematch joins handled
// internally). Assumes lock is held by the caller.
func (r *Room) BroadcastState(evType EventType) {
	r.broadcastState(evType)
}

// creditWallet applies a delta outside the lock path; wallet latency must
// never stall intent processing. Assumes lock is held when called.
func (r *Room) creditWallet(client uuid.UUID, delta int64) {
	if r.Wallet == nil || delta == 0 {
		return
	}
	go func(w Wallet, id uuid.UUID, d int64, code string) {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := w.ApplyDelta(ctx, id, d); err != nil {
			log.Printf("Room %s: wallet delta %d for %s failed: %v", code, d, id, err)
		}
	}(r.Wallet, client, delta, r.Code)
}

// logAction publishes an action record to the history queue. Assumes lock is
// held; the publish itself is asynchronous and nil-safe.
func (r *Room) logAction(actor uuid.UUID, actionType string, payload map[string]interface{}) {
	r.actionIndex++
	if payload == nil {
		payload = make(map[string]interface{})
	}
	record := cache.RoomActionRecord{
		RoomCode:      r.Code,
		ActionIndex:   r.actionIndex,
		ActorClientID: actor,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}
	go func(rec cache.RoomActionRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := cache.PublishRoomAction(ctx, rec); err != nil {
			log.Printf("Room %s: failed to publish action %d: %v", rec.RoomCode, rec.ActionIndex, err)
		}
	}(record)
}
