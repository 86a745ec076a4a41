// internal/game/snapshot.go
package game

import (
	"github.com/whitejack/server/internal/deck"
	"github.com/whitejack/server/internal/models"
)

// hiddenCard is the placeholder sent in place of a card the viewer may not
// see. Clients render it face down.
var hiddenCard = models.Card{Suit: "?", Rank: "?", Value: 0}

// SeatSnapshot is one seat's state as some viewer is allowed to see it.
type SeatSnapshot struct {
	Cards                 []models.Card `json:"cards"`
	Score                 int           `json:"score"`
	Stopped               bool          `json:"stopped"`
	WantsRematch          bool          `json:"wantsRematch"`
	SpecialCardsRemaining int           `json:"specialCardsRemaining"`
}

// Snapshot is a viewer-specific projection of the room state. It is built
// fresh for every broadcast; clients replace, never merge.
type Snapshot struct {
	Players        map[models.Seat]SeatSnapshot `json:"players"`
	CurrentTurn    models.Seat                  `json:"currentTurn,omitempty"`
	GameStarted    bool                         `json:"gameStarted"`
	GameOver       bool                         `json:"gameOver"`
	Winner         string                       `json:"winner,omitempty"`
	DeckShuffled   bool                         `json:"deckShuffled"`
	CardsRemaining int                          `json:"cardsRemaining"`
	RoundNumber    int                          `json:"roundNumber"`
	Bet            int64                        `json:"bet"`
	MatchScore     map[models.Seat]int          `json:"matchScore"`
	Reveal         *Reveal                      `json:"reveal,omitempty"`
}

// snapshotFor projects the room state for one viewer. The opponent's first
// dealt card stays hidden until the round is over; the opponent's visible
// score excludes it so the hidden value cannot be inferred.
// Assumes lock is held.
func (r *Room) snapshotFor(viewer models.Seat) *Snapshot {
	snap := &Snapshot{
		Players:        make(map[models.Seat]SeatSnapshot, len(r.State.Seats)),
		CardsRemaining: r.Deck.Len(),
		RoundNumber:    r.RoundNumber,
		Bet:            r.Bet,
		MatchScore: map[models.Seat]int{
			models.SeatA: r.MatchScore[models.SeatA],
			models.SeatB: r.MatchScore[models.SeatB],
		},
	}

	snap.CurrentTurn = r.State.CurrentTurn
	snap.GameStarted = r.State.Started
	snap.GameOver = r.State.Over
	snap.Winner = r.State.Winner
	snap.DeckShuffled = r.State.DeckShuffled
	snap.Reveal = r.State.Reveals[viewer]

	for seat, ss := range r.State.Seats {
		ps := SeatSnapshot{
			Cards:                 make([]models.Card, len(ss.Hand)),
			Score:                 ss.Score,
			Stopped:               ss.Stopped,
			WantsRematch:          ss.WantsRematch,
			SpecialCardsRemaining: ss.AbilitiesRemaining,
		}
		copy(ps.Cards, ss.Hand)

		if seat != viewer && !r.State.Over && len(ps.Cards) > 0 {
			ps.Cards[0] = hiddenCard
			ps.Score = deck.Score(ss.Hand[1:])
		}
		snap.Players[seat] = ps
	}
	return snap
}
