// internal/deck/score.go
package deck

import "github.com/whitejack/server/internal/models"

// BustThreshold is the score above which a hand is busted.
const BustThreshold = 21

// Score computes the blackjack value of a hand: every ace counts 11 first,
// then while the total exceeds 21 each uncorrected ace drops to 1.
func Score(hand []models.Card) int {
	total := 0
	aces := 0
	for _, c := range hand {
		total += c.Value
		if c.IsAce() {
			aces++
		}
	}
	for total > BustThreshold && aces > 0 {
		total -= 10
		aces--
	}
	return total
}

// Busted reports whether a score is over the threshold.
func Busted(score int) bool {
	return score > BustThreshold
}
