// internal/models/seat.go
package models

// Seat identifies one of the two fixed player slots in a room. The string
// values are part of the wire protocol; clients receive their seat on join
// and echo it back on every intent.
type Seat string

const (
	SeatA Seat = "player1"
	SeatB Seat = "player2"
)

// Other returns the opposing seat.
func (s Seat) Other() Seat {
	if s == SeatA {
		return SeatB
	}
	return SeatA
}

// Valid reports whether s names a real seat.
func (s Seat) Valid() bool {
	return s == SeatA || s == SeatB
}
