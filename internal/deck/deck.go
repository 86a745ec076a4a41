// internal/deck/deck.go
package deck

import (
	"math/rand"

	"github.com/whitejack/server/internal/models"
)

// Suits and Ranks define the standard 52-card deck. The suit glyphs are part
// of the wire protocol; clients render them as-is.
var (
	Suits = []string{"♠", "♥", "♦", "♣"}
	Ranks = []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}
)

// RankValue returns the blackjack value of a rank: face cards 10, ace 11
// (before soft reduction), numerals their face value.
func RankValue(rank string) int {
	switch rank {
	case "A":
		return 11
	case "J", "Q", "K":
		return 10
	case "10":
		return 10
	default:
		// single-digit numerals
		return int(rank[0] - '0')
	}
}

// Deck is an ordered, mutable card sequence. Draws pop from the tail in O(1).
// A Deck owns its random source; rooms hold one Deck across rounds until it
// drops below the low-water mark.
type Deck struct {
	cards []models.Card
	rng   *rand.Rand
}

// New builds a freshly shuffled 52-card deck using the given random source.
func New(rng *rand.Rand) *Deck {
	d := &Deck{rng: rng}
	d.Rebuild()
	return d
}

// Rebuild discards whatever remains, reconstructs all 4x13 combinations and
// shuffles them (Fisher–Yates via rand.Shuffle).
func (d *Deck) Rebuild() {
	d.cards = d.cards[:0]
	for _, suit := range Suits {
		for _, rank := range Ranks {
			d.cards = append(d.cards, models.Card{Suit: suit, Rank: rank, Value: RankValue(rank)})
		}
	}
	d.rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Len returns the number of cards remaining.
func (d *Deck) Len() int {
	return len(d.cards)
}

// Draw removes and returns the tail card. ok is false when the deck is empty;
// callers are expected to Rebuild before that ever happens.
func (d *Deck) Draw() (models.Card, bool) {
	if len(d.cards) == 0 {
		return models.Card{}, false
	}
	c := d.cards[len(d.cards)-1]
	d.cards = d.cards[:len(d.cards)-1]
	return c, true
}

// Peek returns the next card Draw would produce without removing it.
func (d *Deck) Peek() (models.Card, bool) {
	if len(d.cards) == 0 {
		return models.Card{}, false
	}
	return d.cards[len(d.cards)-1], true
}

// Histogram returns a rank -> count map of the remaining cards.
func (d *Deck) Histogram() map[string]int {
	stats := make(map[string]int)
	for _, c := range d.cards {
		stats[c.Rank]++
	}
	return stats
}
