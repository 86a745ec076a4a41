// internal/game/room_test.go
package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/whitejack/server/internal/models"
)

// mockBroadcaster records every seat-addressed event a room fires.
type mockBroadcaster struct {
	mu     sync.Mutex
	events []seatEvent
}

type seatEvent struct {
	seat models.Seat
	ev   Event
}

func (m *mockBroadcaster) fn(seat models.Seat, ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, seatEvent{seat: seat, ev: ev})
}

// lastFor returns the most recent event of a given type addressed to a seat.
func (m *mockBroadcaster) lastFor(seat models.Seat, t EventType) (Event, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.events) - 1; i >= 0; i-- {
		if m.events[i].seat == seat && m.events[i].ev.Type == t {
			return m.events[i].ev, true
		}
	}
	return Event{}, false
}

type walletDelta struct {
	client uuid.UUID
	delta  int64
}

// mockWallet captures async ApplyDelta calls on a buffered channel.
type mockWallet struct {
	deltas chan walletDelta
}

func newMockWallet() *mockWallet {
	return &mockWallet{deltas: make(chan walletDelta, 16)}
}

func (m *mockWallet) ApplyDelta(ctx context.Context, clientID uuid.UUID, delta int64) error {
	m.deltas <- walletDelta{client: clientID, delta: delta}
	return nil
}

func (m *mockWallet) waitDelta(t *testing.T) walletDelta {
	t.Helper()
	select {
	case d := <-m.deltas:
		return d
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for wallet delta")
		return walletDelta{}
	}
}

// newStartedRoom creates a two-seat room with round 1 dealt.
func newStartedRoom(t *testing.T) (*Room, *mockBroadcaster, uuid.UUID, uuid.UUID) {
	t.Helper()
	hostID := uuid.New()
	guestID := uuid.New()
	mb := &mockBroadcaster{}
	r := NewRoom("TEST01", hostID, 0, DefaultRules())
	r.BroadcastToSeatFn = mb.fn
	require.NoError(t, r.Join(guestID))
	return r, mb, hostID, guestID
}

// setHand overwrites a seat's hand and rescored total for deterministic
// assertions.
func setHand(r *Room, seat models.Seat, cards ...models.Card) {
	ss := r.State.Seats[seat]
	ss.Hand = cards
	ss.Score = scoreOf(cards)
	ss.Stopped = false
}

func scoreOf(cards []models.Card) int {
	total := 0
	aces := 0
	for _, c := range cards {
		total += c.Value
		if c.IsAce() {
			aces++
		}
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return total
}

func card(rank string, value int) models.Card {
	return models.Card{Suit: "♠", Rank: rank, Value: value}
}

func TestNewRoomPreGame(t *testing.T) {
	hostID := uuid.New()
	r := NewRoom("ABCDEF", hostID, 25, DefaultRules())

	seat, ok := r.SeatOf(hostID)
	require.True(t, ok)
	assert.Equal(t, models.SeatA, seat)
	assert.False(t, r.State.Started)
	assert.Equal(t, 0, r.RoundNumber)
	assert.Equal(t, int64(25), r.Bet)
}

func TestSnapshotBeforeGameStarts(t *testing.T) {
	r := NewRoom("ABCDEF", uuid.New(), 25, DefaultRules())

	snap := r.snapshotFor(models.SeatA)
	assert.False(t, snap.GameStarted)
	assert.False(t, snap.GameOver)
	assert.Empty(t, snap.Players)
	assert.Equal(t, int64(25), snap.Bet)
	assert.Equal(t, 0, snap.RoundNumber)
}

func TestJoinDealsRoundOne(t *testing.T) {
	r, mb, hostID, guestID := newStartedRoom(t)

	assert.Equal(t, 1, r.RoundNumber)
	assert.True(t, r.State.Started)
	assert.Equal(t, models.SeatA, r.State.CurrentTurn, "odd rounds open with seat A")
	for _, seat := range []models.Seat{models.SeatA, models.SeatB} {
		ss := r.State.Seats[seat]
		assert.Len(t, ss.Hand, 2)
		assert.Equal(t, DefaultRules().AbilityCount, ss.AbilitiesRemaining)
		assert.False(t, ss.Stopped)
		assert.Equal(t, scoreOf(ss.Hand), ss.Score)
	}

	seatB, ok := r.SeatOf(guestID)
	require.True(t, ok)
	assert.Equal(t, models.SeatB, seatB)
	_ = hostID
	_ = mb
}

func TestJoinFullRoom(t *testing.T) {
	r, _, _, _ := newStartedRoom(t)
	err := r.Join(uuid.New())
	assert.ErrorIs(t, err, ErrFull)
}

func TestDrawAppendsAndHandsOff(t *testing.T) {
	r, _, _, _ := newStartedRoom(t)
	setHand(r, models.SeatA, card("2", 2), card("3", 3))

	require.NoError(t, r.HandleDraw(models.SeatA))

	ss := r.State.Seats[models.SeatA]
	assert.Len(t, ss.Hand, 3)
	assert.Equal(t, scoreOf(ss.Hand), ss.Score)
	assert.False(t, ss.Stopped, "max draw is 2+3+11=16, cannot bust")
	assert.Equal(t, models.SeatB, r.State.CurrentTurn)
}

func TestDrawOutOfTurnRejected(t *testing.T) {
	r, _, _, _ := newStartedRoom(t)
	before := len(r.State.Seats[models.SeatB].Hand)

	err := r.HandleDraw(models.SeatB)
	assert.ErrorIs(t, err, ErrOutOfTurn)
	assert.Len(t, r.State.Seats[models.SeatB].Hand, before)
	assert.Equal(t, models.SeatA, r.State.CurrentTurn)
}

func TestDrawUntilBustForcesStop(t *testing.T) {
	r, _, _, _ := newStartedRoom(t)
	// Seat A stands immediately; seat B then draws until it busts.
	require.NoError(t, r.HandleStand(models.SeatA))
	assert.Equal(t, models.SeatB, r.State.CurrentTurn)

	for !r.State.Over {
		require.NoError(t, r.HandleDraw(models.SeatB))
	}
	ss := r.State.Seats[models.SeatB]
	assert.True(t, ss.Stopped)
	assert.Greater(t, ss.Score, 21)
	assert.Equal(t, string(models.SeatA), r.State.Winner)
}

func TestStandRetainsTurnWhenOpponentStopped(t *testing.T) {
	r, _, _, _ := newStartedRoom(t)
	setHand(r, models.SeatA, card("2", 2), card("3", 3))
	setHand(r, models.SeatB, card("4", 4), card("5", 5))

	require.NoError(t, r.HandleStand(models.SeatA))
	assert.Equal(t, models.SeatB, r.State.CurrentTurn)

	// Seat A is stopped, so seat B keeps the turn after drawing.
	require.NoError(t, r.HandleDraw(models.SeatB))
	if !r.State.Over {
		assert.Equal(t, models.SeatB, r.State.CurrentTurn)
	}
}

func TestRoundEndWinnerByScore(t *testing.T) {
	r, mb, _, _ := newStartedRoom(t)
	setHand(r, models.SeatA, card("K", 10), card("Q", 10))
	setHand(r, models.SeatB, card("9", 9), card("8", 8))

	require.NoError(t, r.HandleStand(models.SeatA))
	assert.False(t, r.State.Over)
	require.NoError(t, r.HandleStand(models.SeatB))

	require.True(t, r.State.Over)
	assert.Equal(t, string(models.SeatA), r.State.Winner)
	assert.Equal(t, 1, r.MatchScore[models.SeatA])
	assert.Equal(t, 0, r.MatchScore[models.SeatB])

	ev, ok := mb.lastFor(models.SeatA, EventGameUpdate)
	require.True(t, ok)
	assert.True(t, ev.State.GameOver)
	assert.Equal(t, string(models.SeatA), ev.State.Winner)
}

func TestResolveWinnerTable(t *testing.T) {
	cases := []struct {
		name           string
		scoreA, scoreB int
		want           string
	}{
		{"both bust", 25, 23, "draw"},
		{"a busts", 22, 18, string(models.SeatB)},
		{"b busts", 18, 22, string(models.SeatA)},
		{"a higher", 20, 17, string(models.SeatA)},
		{"b higher", 17, 20, string(models.SeatB)},
		{"tie", 19, 19, "draw"},
		{"bust beats nothing", 30, 21, string(models.SeatB)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, resolveWinner(tc.scoreA, tc.scoreB))
		})
	}
}

func TestActionsRejectedAfterRoundOver(t *testing.T) {
	r, _, _, _ := newStartedRoom(t)
	require.NoError(t, r.HandleStand(models.SeatA))
	require.NoError(t, r.HandleStand(models.SeatB))
	require.True(t, r.State.Over)

	assert.ErrorIs(t, r.HandleDraw(models.SeatA), ErrNotReady)
	assert.ErrorIs(t, r.HandleStand(models.SeatB), ErrNotReady)
}

func TestAlreadyStoppedRejected(t *testing.T) {
	r, _, _, _ := newStartedRoom(t)
	setHand(r, models.SeatB, card("4", 4), card("5", 5))
	require.NoError(t, r.HandleStand(models.SeatA))

	// Seat B draws, keeps the turn (A stopped), then stands out the round.
	ss := r.State.Seats[models.SeatA]
	require.True(t, ss.Stopped)
	r.State.CurrentTurn = models.SeatA
	assert.ErrorIs(t, r.HandleDraw(models.SeatA), ErrAlreadyStopped)
}

func TestReshuffleFlagLastsOneBroadcast(t *testing.T) {
	r, mb, _, _ := newStartedRoom(t)
	setHand(r, models.SeatA, card("2", 2), card("3", 3))
	r.Rules.LowWaterMark = 60 // force a rebuild on the next draw

	require.NoError(t, r.HandleDraw(models.SeatA))
	ev, ok := mb.lastFor(models.SeatA, EventGameUpdate)
	require.True(t, ok)
	assert.True(t, ev.State.DeckShuffled)

	r.Rules.LowWaterMark = DefaultRules().LowWaterMark
	setHand(r, models.SeatB, card("2", 2), card("3", 3))
	require.NoError(t, r.HandleDraw(models.SeatB))
	ev, ok = mb.lastFor(models.SeatA, EventGameUpdate)
	require.True(t, ok)
	assert.False(t, ev.State.DeckShuffled, "flag lowers after one broadcast")
}

func TestMidDealReshuffleBroadcasts(t *testing.T) {
	r, mb, _, _ := newStartedRoom(t)
	require.NoError(t, r.HandleStand(models.SeatA))
	require.NoError(t, r.HandleStand(models.SeatB))

	// Leave fewer cards than the four the next deal needs, with the
	// low-water check disabled so only the mid-deal rebuild can fire.
	r.Rules.LowWaterMark = 0
	for r.Deck.Len() > 2 {
		r.Deck.Draw()
	}

	require.NoError(t, r.HandleRematch(models.SeatA))
	require.NoError(t, r.HandleRematch(models.SeatB))

	ev, ok := mb.lastFor(models.SeatA, EventNewRound)
	require.True(t, ok)
	assert.True(t, ev.State.DeckShuffled, "deal-time rebuild must surface in the round broadcast")
	assert.False(t, r.State.DeckShuffled, "flag lowers after the broadcast")
}

func TestSnapshotMasksOpponentFirstCard(t *testing.T) {
	r, _, _, _ := newStartedRoom(t)
	setHand(r, models.SeatA, card("K", 10), card("3", 3))
	setHand(r, models.SeatB, card("9", 9), card("5", 5))

	snap := r.snapshotFor(models.SeatA)
	own := snap.Players[models.SeatA]
	opp := snap.Players[models.SeatB]

	assert.Equal(t, "K", own.Cards[0].Rank)
	assert.Equal(t, 13, own.Score)
	assert.Equal(t, hiddenCard, opp.Cards[0])
	assert.Equal(t, "5", opp.Cards[1].Rank)
	assert.Equal(t, 5, opp.Score, "visible score excludes the hidden card")

	// Everything is face up once the round is over.
	require.NoError(t, r.HandleStand(models.SeatA))
	require.NoError(t, r.HandleStand(models.SeatB))
	snap = r.snapshotFor(models.SeatA)
	assert.Equal(t, "9", snap.Players[models.SeatB].Cards[0].Rank)
	assert.Equal(t, 14, snap.Players[models.SeatB].Score)
}

func TestRematchHandshake(t *testing.T) {
	r, mb, _, _ := newStartedRoom(t)
	require.NoError(t, r.HandleStand(models.SeatA))
	require.NoError(t, r.HandleStand(models.SeatB))
	require.True(t, r.State.Over)

	require.NoError(t, r.HandleRematch(models.SeatA))
	assert.True(t, r.State.Over, "one-sided intent does not restart")
	ev, ok := mb.lastFor(models.SeatB, EventRematchStatus)
	require.True(t, ok)
	assert.True(t, ev.State.Players[models.SeatA].WantsRematch)

	require.NoError(t, r.HandleRematch(models.SeatB))
	assert.Equal(t, 2, r.RoundNumber)
	assert.False(t, r.State.Over)
	assert.Equal(t, models.SeatB, r.State.CurrentTurn, "even rounds open with seat B")
	for _, seat := range []models.Seat{models.SeatA, models.SeatB} {
		ss := r.State.Seats[seat]
		assert.Len(t, ss.Hand, 2)
		assert.False(t, ss.WantsRematch)
		assert.Equal(t, DefaultRules().AbilityCount, ss.AbilitiesRemaining)
	}
	_, ok = mb.lastFor(models.SeatA, EventNewRound)
	assert.True(t, ok)
}

func TestRematchBeforeRoundOver(t *testing.T) {
	r, _, _, _ := newStartedRoom(t)
	assert.ErrorIs(t, r.HandleRematch(models.SeatA), ErrNotReady)
}

func TestBetSettlement(t *testing.T) {
	hostID := uuid.New()
	guestID := uuid.New()
	mb := &mockBroadcaster{}
	mw := newMockWallet()
	r := NewRoom("BET001", hostID, 50, DefaultRules())
	r.BroadcastToSeatFn = mb.fn
	r.Wallet = mw
	require.NoError(t, r.Join(guestID))

	// Both seats are debited the stake at round start.
	debits := []walletDelta{mw.waitDelta(t), mw.waitDelta(t)}
	for _, d := range debits {
		assert.Equal(t, int64(-50), d.delta)
	}

	setHand(r, models.SeatA, card("K", 10), card("Q", 10))
	setHand(r, models.SeatB, card("9", 9), card("8", 8))
	require.NoError(t, r.HandleStand(models.SeatA))
	require.NoError(t, r.HandleStand(models.SeatB))

	win := mw.waitDelta(t)
	assert.Equal(t, hostID, win.client)
	assert.Equal(t, int64(100), win.delta)
}

func TestDrawSettlementRefundsBoth(t *testing.T) {
	hostID := uuid.New()
	guestID := uuid.New()
	mw := newMockWallet()
	r := NewRoom("BET002", hostID, 30, DefaultRules())
	r.BroadcastToSeatFn = (&mockBroadcaster{}).fn
	r.Wallet = mw
	require.NoError(t, r.Join(guestID))
	mw.waitDelta(t)
	mw.waitDelta(t)

	setHand(r, models.SeatA, card("K", 10), card("9", 9))
	setHand(r, models.SeatB, card("Q", 10), card("9", 9))
	require.NoError(t, r.HandleStand(models.SeatA))
	require.NoError(t, r.HandleStand(models.SeatB))
	require.Equal(t, "draw", r.State.Winner)

	refunds := map[uuid.UUID]int64{}
	for i := 0; i < 2; i++ {
		d := mw.waitDelta(t)
		refunds[d.client] = d.delta
	}
	assert.Equal(t, int64(30), refunds[hostID])
	assert.Equal(t, int64(30), refunds[guestID])
}

func TestRulesUpdate(t *testing.T) {
	rules := DefaultRules()
	require.NoError(t, rules.Update(map[string]interface{}{
		"abilityCount":     float64(3),
		"abilityBustStops": false,
		"lowWaterMark":     float64(15),
		"glitchAnyIndex":   false,
		"bonusMax":         float64(250),
	}))
	assert.Equal(t, 3, rules.AbilityCount)
	assert.False(t, rules.AbilityBustStops)
	assert.Equal(t, 15, rules.LowWaterMark)
	assert.False(t, rules.GlitchAnyIndex)
	assert.Equal(t, 250, rules.BonusMax)
}

func TestRoomStoreLifecycle(t *testing.T) {
	store := NewRoomStore()
	hostID := uuid.New()
	room := store.CreateRoom(hostID, 0, DefaultRules())

	assert.Len(t, room.Code, roomCodeLength)
	for _, ch := range room.Code {
		assert.Contains(t, roomCodeAlphabet, string(ch))
	}

	got, ok := store.GetRoom(room.Code)
	require.True(t, ok)
	assert.Same(t, room, got)

	byClient, ok := store.FindRoomByClient(hostID)
	require.True(t, ok)
	assert.Same(t, room, byClient)

	guestID := uuid.New()
	store.BindClient(guestID, room.Code)
	byGuest, ok := store.FindRoomByClient(guestID)
	require.True(t, ok)
	assert.Same(t, room, byGuest)

	store.DeleteRoom(room.Code)
	_, ok = store.GetRoom(room.Code)
	assert.False(t, ok)
	_, ok = store.FindRoomByClient(hostID)
	assert.False(t, ok)
	assert.Equal(t, 0, store.Count())
}
