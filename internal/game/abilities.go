// internal/game/abilities.go
package game

import (
	"log"
	"strconv"

	"github.com/whitejack/server/internal/deck"
	"github.com/whitejack/server/internal/models"
)

// AbilityID names one of the seven special-card effects. The string values
// are the wire protocol's cardType identifiers.
type AbilityID string

const (
	AbilitySwap      AbilityID = "swap"
	AbilityPeek      AbilityID = "peek"
	AbilityOracle    AbilityID = "oracle"
	AbilityStatistic AbilityID = "statistic"
	AbilityGlitch    AbilityID = "glitch"
	AbilityToTheMoon AbilityID = "tothemoon"
	AbilityBonus     AbilityID = "bonus"
)

// abilitySpec drives the resolver table: one entry per ability id instead of
// per-id branching. apply validates its target against live state and either
// mutates/reveals or returns a rejection without side effects.
type abilitySpec struct {
	// passesTurn marks abilities whose success hands off the turn the same
	// way a Draw does. Reveal-only abilities keep the acting seat's turn.
	passesTurn bool
	apply      func(r *Room, seat models.Seat, actor *SeatState, target map[string]interface{}) (*Reveal, error)
}

var abilityTable = map[AbilityID]abilitySpec{
	AbilitySwap:      {passesTurn: true, apply: applySwap},
	AbilityPeek:      {apply: applyPeek},
	AbilityOracle:    {apply: applyOracle},
	AbilityStatistic: {apply: applyStatistic},
	AbilityGlitch:    {passesTurn: true, apply: applyGlitch},
	AbilityToTheMoon: {passesTurn: true, apply: applyToTheMoon},
	AbilityBonus:     {apply: applyBonus},
}

// HandleAbility resolves a special-card intent. A rejected invocation (failed
// precondition or invalid target) consumes nothing and mutates nothing; a
// successful one decrements the seat's allotment exactly once.
// Assumes lock is held by the caller.
func (r *Room) HandleAbility(seat models.Seat, id AbilityID, target map[string]interface{}) error {
	actor, err := r.requireActing(seat)
	if err != nil {
		return err
	}
	spec, ok := abilityTable[id]
	if !ok {
		return ErrInvalidTarget
	}
	if actor.AbilitiesRemaining <= 0 {
		return ErrAbilityExhausted
	}

	reveal, err := spec.apply(r, seat, actor, target)
	if err != nil {
		return err
	}
	actor.AbilitiesRemaining--
	r.logAction(r.Clients[seat], "ability_"+string(id), target)
	log.Printf("Room %s: %s used %s (%d uses left).", r.Code, seat, id, actor.AbilitiesRemaining)

	if reveal != nil {
		r.mergeReveal(seat, reveal)
		r.fireEventToSeat(seat, Event{
			Type:     EventSpecialCardResult,
			RoomCode: r.Code,
			Seat:     seat,
			CardType: id,
			Data:     revealData(id, reveal),
		})
	}

	ended := r.checkRoundEnd()
	if spec.passesTurn && !ended {
		r.handoffTurn(seat)
	}
	r.broadcastState(EventGameUpdate)
	return nil
}

// mergeReveal folds new reveal fields into the seat's transient reveal
// payload, which snapshots carry until the next round start.
// Assumes lock is held.
func (r *Room) mergeReveal(seat models.Seat, in *Reveal) {
	cur := r.State.Reveals[seat]
	if cur == nil {
		r.State.Reveals[seat] = in
		return
	}
	if in.NextCardPeek != nil {
		cur.NextCardPeek = in.NextCardPeek
	}
	if in.OpponentCardReveal != nil {
		cur.OpponentCardReveal = in.OpponentCardReveal
	}
	if in.DeckHistogram != nil {
		cur.DeckHistogram = in.DeckHistogram
		cur.DeckTotal = in.DeckTotal
	}
	if in.BonusAmount != 0 {
		cur.BonusAmount = in.BonusAmount
	}
}

// revealData shapes the caller-only result payload per ability.
func revealData(id AbilityID, rev *Reveal) map[string]interface{} {
	switch id {
	case AbilityPeek:
		if rev.NextCardPeek == nil {
			return map[string]interface{}{"nextCard": nil}
		}
		return map[string]interface{}{"nextCard": *rev.NextCardPeek}
	case AbilityOracle:
		return map[string]interface{}{"hiddenCard": *rev.OpponentCardReveal}
	case AbilityStatistic:
		return map[string]interface{}{
			"statistics": rev.DeckHistogram,
			"totalCards": rev.DeckTotal,
		}
	case AbilityBonus:
		return map[string]interface{}{"amount": rev.BonusAmount}
	default:
		return nil
	}
}

// payloadIndex extracts an integer field from a loose JSON payload.
func payloadIndex(target map[string]interface{}, key string) (int, bool) {
	if target == nil {
		return 0, false
	}
	switch v := target[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

// applySwap exchanges one indexed card of the acting seat with one indexed
// opponent card, then rescores both hands. The acting seat busting forces its
// stop; an opponent bust follows the AbilityBustStops rule.
func applySwap(r *Room, seat models.Seat, actor *SeatState, target map[string]interface{}) (*Reveal, error) {
	myIdx, ok1 := payloadIndex(target, "myCardIndex")
	oppIdx, ok2 := payloadIndex(target, "opponentCardIndex")
	opp := r.seatState(seat.Other())
	if !ok1 || !ok2 || opp == nil ||
		myIdx < 0 || myIdx >= len(actor.Hand) ||
		oppIdx < 0 || oppIdx >= len(opp.Hand) {
		return nil, ErrInvalidTarget
	}

	actor.Hand[myIdx], opp.Hand[oppIdx] = opp.Hand[oppIdx], actor.Hand[myIdx]
	actor.Score = deck.Score(actor.Hand)
	opp.Score = deck.Score(opp.Hand)
	if deck.Busted(actor.Score) {
		actor.Stopped = true
	}
	if deck.Busted(opp.Score) && r.Rules.AbilityBustStops {
		opp.Stopped = true
	}
	return nil, nil
}

// applyPeek reveals the next card to be drawn without removing it. An empty
// deck yields an empty reveal rather than an error.
func applyPeek(r *Room, seat models.Seat, actor *SeatState, target map[string]interface{}) (*Reveal, error) {
	rev := &Reveal{DeckTotal: r.Deck.Len()}
	if c, ok := r.Deck.Peek(); ok {
		rev.NextCardPeek = &c
	}
	return rev, nil
}

// applyOracle reveals the opponent's first dealt card.
func applyOracle(r *Room, seat models.Seat, actor *SeatState, target map[string]interface{}) (*Reveal, error) {
	opp := r.seatState(seat.Other())
	if opp == nil || len(opp.Hand) == 0 {
		return nil, ErrInvalidTarget
	}
	c := opp.Hand[0]
	return &Reveal{OpponentCardReveal: &c}, nil
}

// applyStatistic reveals a rank histogram of the remaining deck.
func applyStatistic(r *Room, seat models.Seat, actor *SeatState, target map[string]interface{}) (*Reveal, error) {
	return &Reveal{
		DeckHistogram: r.Deck.Histogram(),
		DeckTotal:     r.Deck.Len(),
	}, nil
}

// applyGlitch overwrites one opponent card's value with a uniform random
// integer in [1,11]. Targeted when the payload names an index, random
// otherwise. GlitchAnyIndex gates targeting the face-down first card.
func applyGlitch(r *Room, seat models.Seat, actor *SeatState, target map[string]interface{}) (*Reveal, error) {
	opp := r.seatState(seat.Other())
	if opp == nil || len(opp.Hand) == 0 {
		return nil, ErrInvalidTarget
	}

	idx, targeted := payloadIndex(target, "targetCardIndex")
	if targeted {
		if idx < 0 || idx >= len(opp.Hand) {
			return nil, ErrInvalidTarget
		}
		if idx == 0 && !r.Rules.GlitchAnyIndex {
			return nil, ErrInvalidTarget
		}
	} else {
		lo := 0
		if !r.Rules.GlitchAnyIndex && len(opp.Hand) > 1 {
			lo = 1
		}
		idx = lo + r.rng.Intn(len(opp.Hand)-lo)
	}

	newValue := r.rng.Intn(11) + 1
	opp.Hand[idx].Value = newValue
	opp.Hand[idx].Rank = strconv.Itoa(newValue)
	opp.Score = deck.Score(opp.Hand)
	if deck.Busted(opp.Score) && r.Rules.AbilityBustStops {
		opp.Stopped = true
	}
	return nil, nil
}

// applyToTheMoon overwrites one of the acting seat's own cards with a chosen
// value in [1,11]; bust and turn-handoff consequences match Draw.
func applyToTheMoon(r *Room, seat models.Seat, actor *SeatState, target map[string]interface{}) (*Reveal, error) {
	idx, ok1 := payloadIndex(target, "myCardIndex")
	newValue, ok2 := payloadIndex(target, "newValue")
	if !ok1 || !ok2 || idx < 0 || idx >= len(actor.Hand) || newValue < 1 || newValue > 11 {
		return nil, ErrInvalidTarget
	}

	actor.Hand[idx].Value = newValue
	actor.Hand[idx].Rank = strconv.Itoa(newValue)
	actor.Score = deck.Score(actor.Hand)
	if deck.Busted(actor.Score) {
		actor.Stopped = true
	}
	return nil, nil
}

// applyBonus credits a random token amount through the wallet collaborator.
// No game-state effect.
func applyBonus(r *Room, seat models.Seat, actor *SeatState, target map[string]interface{}) (*Reveal, error) {
	amount := r.rng.Intn(r.Rules.BonusMax) + 1
	r.creditWallet(r.Clients[seat], int64(amount))
	return &Reveal{BonusAmount: amount}, nil
}
