// internal/deck/deck_test.go
package deck

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/whitejack/server/internal/models"
)

func newTestDeck(seed int64) *Deck {
	return New(rand.New(rand.NewSource(seed)))
}

func cardKey(c models.Card) string {
	return c.Suit + c.Rank
}

func TestNewDeckHas52UniqueCards(t *testing.T) {
	d := newTestDeck(1)
	require.Equal(t, 52, d.Len())

	seen := make(map[string]bool)
	for {
		c, ok := d.Draw()
		if !ok {
			break
		}
		key := cardKey(c)
		assert.False(t, seen[key], "duplicate card %s", key)
		seen[key] = true
	}
	assert.Len(t, seen, 52)
}

func TestShufflePreservesMultisetAndDiffers(t *testing.T) {
	d1 := newTestDeck(1)
	d2 := newTestDeck(2)

	counts := make(map[string]int)
	order1 := []string{}
	order2 := []string{}
	for i := 0; i < 52; i++ {
		c1, ok := d1.Draw()
		require.True(t, ok)
		c2, ok := d2.Draw()
		require.True(t, ok)
		counts[cardKey(c1)]++
		counts[cardKey(c2)]--
		order1 = append(order1, cardKey(c1))
		order2 = append(order2, cardKey(c2))
	}
	for key, n := range counts {
		assert.Zero(t, n, "card %s count mismatch between shuffles", key)
	}
	assert.NotEqual(t, order1, order2, "two shuffles produced identical order")
}

func TestRebuildRestoresFullDeck(t *testing.T) {
	d := newTestDeck(3)
	for i := 0; i < 50; i++ {
		_, ok := d.Draw()
		require.True(t, ok)
	}
	require.Equal(t, 2, d.Len())
	d.Rebuild()
	assert.Equal(t, 52, d.Len())
}

func TestPeekDoesNotRemove(t *testing.T) {
	d := newTestDeck(4)
	peeked, ok := d.Peek()
	require.True(t, ok)
	require.Equal(t, 52, d.Len())

	drawn, ok := d.Draw()
	require.True(t, ok)
	assert.Equal(t, peeked, drawn, "Peek should reveal the next Draw")
}

func TestHistogramCountsRemainingRanks(t *testing.T) {
	d := newTestDeck(5)
	stats := d.Histogram()
	require.Len(t, stats, 13)
	total := 0
	for rank, n := range stats {
		assert.Equal(t, 4, n, "rank %s should appear once per suit", rank)
		total += n
	}
	assert.Equal(t, 52, total)

	d.Draw()
	stats = d.Histogram()
	total = 0
	for _, n := range stats {
		total += n
	}
	assert.Equal(t, 51, total)
}

func hand(ranks ...string) []models.Card {
	cards := make([]models.Card, len(ranks))
	for i, r := range ranks {
		cards[i] = models.Card{Suit: "♠", Rank: r, Value: RankValue(r)}
	}
	return cards
}

func TestScore(t *testing.T) {
	cases := []struct {
		ranks []string
		want  int
	}{
		{[]string{"A", "A"}, 12},
		{[]string{"A", "9", "K"}, 20},
		{[]string{"K", "Q"}, 20},
		{[]string{"A", "K", "A"}, 12},
		{[]string{"A"}, 11},
		{[]string{"10", "9", "3"}, 22},
		{[]string{"2", "3"}, 5},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Score(hand(tc.ranks...)), "hand %v", tc.ranks)
	}
}

func TestBusted(t *testing.T) {
	assert.False(t, Busted(21))
	assert.True(t, Busted(22))
	assert.False(t, Busted(0))
}

func TestOverwrittenAceNoLongerSoftens(t *testing.T) {
	h := hand("A", "K")
	// Simulate a Glitch overwriting the ace to a plain 11-value card.
	h[0].Rank = "11"
	h[0].Value = 11
	assert.Equal(t, 21, Score(h))

	h = append(h, models.Card{Suit: "♠", Rank: "5", Value: 5})
	// No ace correction available anymore, hand is busted.
	assert.Equal(t, 26, Score(h))
}
