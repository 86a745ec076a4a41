// internal/game/round.go
package game

import (
	"log"

	"github.com/google/uuid"
	"github.com/whitejack/server/internal/deck"
	"github.com/whitejack/server/internal/models"
)

// startRound replaces the round state wholesale: both seats dealt two cards,
// stop/rematch flags reset, ability allotment refilled, first mover chosen by
// round parity (odd rounds seat A, even rounds seat B).
// Assumes lock is held.
func (r *Room) startRound() {
	deckShuffled := false
	if r.Deck.Len() < r.Rules.LowWaterMark {
		r.Deck.Rebuild()
		deckShuffled = true
	}

	r.RoundNumber++
	firstMover := models.SeatA
	if r.RoundNumber%2 == 0 {
		firstMover = models.SeatB
	}

	seats := make(map[models.Seat]*SeatState, 2)
	for _, seat := range []models.Seat{models.SeatA, models.SeatB} {
		hand := make([]models.Card, 0, 2)
		for len(hand) < 2 {
			c, rebuilt := r.drawForDeal()
			hand = append(hand, c)
			deckShuffled = deckShuffled || rebuilt
		}
		seats[seat] = &SeatState{
			Hand:               hand,
			Score:              deck.Score(hand),
			AbilitiesRemaining: r.Rules.AbilityCount,
		}
	}

	r.State = &RoundState{
		Seats:        seats,
		CurrentTurn:  firstMover,
		Started:      true,
		DeckShuffled: deckShuffled,
		Reveals:      map[models.Seat]*Reveal{},
	}

	// Stake the round: each seat pays the bet up front.
	if r.Bet > 0 {
		for _, client := range r.Clients {
			r.creditWallet(client, -r.Bet)
		}
	}

	r.logAction(uuid.Nil, "round_start", map[string]interface{}{
		"round":      r.RoundNumber,
		"firstMover": firstMover,
	})
	log.Printf("Room %s: round %d dealt, first turn %s.", r.Code, r.RoundNumber, firstMover)
}

// drawForDeal draws for the initial deal, rebuilding an exhausted deck and
// reporting whether it did so the caller can surface the reshuffle.
// Assumes lock is held.
func (r *Room) drawForDeal() (models.Card, bool) {
	rebuilt := false
	if r.Deck.Len() == 0 {
		r.Deck.Rebuild()
		rebuilt = true
	}
	c, _ := r.Deck.Draw()
	return c, rebuilt
}

// requireActing validates the shared preconditions of Draw, Stand and every
// ability: round in progress, acting seat's turn, seat not stopped.
// Assumes lock is held.
func (r *Room) requireActing(seat models.Seat) (*SeatState, error) {
	if r.State == nil || !r.State.Started || r.State.Over {
		return nil, ErrNotReady
	}
	ss := r.seatState(seat)
	if ss == nil {
		return nil, ErrNotReady
	}
	if r.State.CurrentTurn != seat {
		return nil, ErrOutOfTurn
	}
	if ss.Stopped {
		return nil, ErrAlreadyStopped
	}
	return ss, nil
}

// HandleDraw appends one card to the acting seat's hand. Busting forces that
// seat's stop. Assumes lock is held by the caller (the WS read loop).
func (r *Room) HandleDraw(seat models.Seat) error {
	ss, err := r.requireActing(seat)
	if err != nil {
		return err
	}

	card := r.drawCard()
	ss.Hand = append(ss.Hand, card)
	ss.Score = deck.Score(ss.Hand)
	busted := deck.Busted(ss.Score)
	if busted {
		ss.Stopped = true
	}
	r.logAction(r.Clients[seat], "draw", map[string]interface{}{
		"score":  ss.Score,
		"busted": busted,
	})

	if !r.checkRoundEnd() {
		r.handoffTurn(seat)
	}
	r.broadcastState(EventGameUpdate)
	return nil
}

// HandleStand sets the acting seat's stopped flag without drawing.
// Assumes lock is held by the caller.
func (r *Room) HandleStand(seat models.Seat) error {
	ss, err := r.requireActing(seat)
	if err != nil {
		return err
	}

	ss.Stopped = true
	r.logAction(r.Clients[seat], "stand", map[string]interface{}{"score": ss.Score})

	if !r.checkRoundEnd() {
		r.handoffTurn(seat)
	}
	r.broadcastState(EventGameUpdate)
	return nil
}

// handoffTurn passes the turn to the opponent unless they are already
// stopped, in which case the acting seat retains it. Assumes lock is held.
func (r *Room) handoffTurn(actor models.Seat) {
	other := actor.Other()
	if os := r.seatState(other); os != nil && !os.Stopped {
		r.State.CurrentTurn = other
	} else {
		r.State.CurrentTurn = actor
	}
}

// checkRoundEnd ends the round iff both seats have stopped, determines the
// winner and settles the stake. Returns true when the round is over.
// Assumes lock is held.
func (r *Room) checkRoundEnd() bool {
	if r.State.Over {
		return true
	}
	a := r.seatState(models.SeatA)
	b := r.seatState(models.SeatB)
	if a == nil || b == nil || !a.Stopped || !b.Stopped {
		return false
	}

	r.State.Over = true
	r.State.Winner = resolveWinner(a.Score, b.Score)

	switch r.State.Winner {
	case string(models.SeatA):
		r.MatchScore[models.SeatA]++
		r.settleBet(models.SeatA)
	case string(models.SeatB):
		r.MatchScore[models.SeatB]++
		r.settleBet(models.SeatB)
	default:
		// Draw refunds both stakes.
		if r.Bet > 0 {
			for _, client := range r.Clients {
				r.creditWallet(client, r.Bet)
			}
		}
	}

	r.logAction(uuid.Nil, "round_end", map[string]interface{}{
		"winner": r.State.Winner,
		"scoreA": a.Score,
		"scoreB": b.Score,
	})
	log.Printf("Room %s: round %d over, winner=%s (%d vs %d).", r.Code, r.RoundNumber, r.State.Winner, a.Score, b.Score)
	return true
}

// resolveWinner applies the bust/score table: both busted draw, one busted
// the other wins, neither busted higher score wins, tie draws.
func resolveWinner(scoreA, scoreB int) string {
	bustedA := deck.Busted(scoreA)
	bustedB := deck.Busted(scoreB)
	switch {
	case bustedA && bustedB:
		return "draw"
	case bustedA:
		return string(models.SeatB)
	case bustedB:
		return string(models.SeatA)
	case scoreA > scoreB:
		return string(models.SeatA)
	case scoreB > scoreA:
		return string(models.SeatB)
	default:
		return "draw"
	}
}

// settleBet credits the decisive winner both stakes. Assumes lock is held.
func (r *Room) settleBet(winner models.Seat) {
	if r.Bet <= 0 {
		return
	}
	r.creditWallet(r.Clients[winner], 2*r.Bet)
}

// HandleRematch records a seat's rematch intent post-round. When both seats
// have signaled, a new round is dealt and intents reset; a one-sided intent
// only updates display state. Assumes lock is held by the caller.
func (r *Room) HandleRematch(seat models.Seat) error {
	if _, joined := r.Clients[models.SeatB]; !joined {
		return ErrNotReady
	}
	if r.State == nil || !r.State.Over {
		return ErrNotReady
	}
	ss := r.seatState(seat)
	if ss == nil {
		return ErrNotReady
	}

	ss.WantsRematch = true
	r.logAction(r.Clients[seat], "rematch_intent", nil)

	if other := r.seatState(seat.Other()); other != nil && other.WantsRematch {
		r.startRound()
		r.broadcastState(EventNewRound)
		return nil
	}
	r.broadcastState(EventRematchStatus)
	return nil
}
