// internal/models/card.go
package models

// Card is a single playing card as tracked by the server and rendered by
// clients. Value carries the blackjack value of the rank (face cards 10,
// ace 11 before soft reduction); abilities may overwrite it, in which case
// Rank is rewritten to the numeric string so clients render what they score.
type Card struct {
	Suit  string `json:"suit"`
	Rank  string `json:"rank"`
	Value int    `json:"value"`
}

// IsAce reports whether the card still scores as an ace. A card whose value
// was overwritten by an ability no longer counts as an ace.
func (c Card) IsAce() bool {
	return c.Rank == "A"
}
