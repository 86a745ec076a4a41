// internal/game/rules.go
package game

import "fmt"

// RoomRules defines the tunable ruleset for a room. Defaults reproduce the
// standard game; hosts may override individual rules at room creation.
type RoomRules struct {
	AbilityCount     int  `json:"abilityCount"`     // special-card uses dealt to each seat per round
	LowWaterMark     int  `json:"lowWaterMark"`     // deck size below which a full reshuffle happens
	AbilityBustStops bool `json:"abilityBustStops"` // a bust inflicted on the opponent by an ability forces their stop
	GlitchAnyIndex   bool `json:"glitchAnyIndex"`   // allow Glitch to target the opponent's face-down first card
	BonusMax         int  `json:"bonusMax"`         // upper bound for the Bonus ability token credit
}

// DefaultRules returns the standard ruleset.
func DefaultRules() RoomRules {
	return RoomRules{
		AbilityCount:     6,
		LowWaterMark:     10,
		AbilityBustStops: true,
		GlitchAnyIndex:   true,
		BonusMax:         100,
	}
}

// Update applies overrides from a loose JSON object onto the rules. Unknown
// keys are ignored; missing keys keep their current value.
func (rules *RoomRules) Update(overrides map[string]interface{}) error {
	assignBool := func(field *bool, key string) error {
		if val, exists := overrides[key]; exists && val != nil {
			b, ok := val.(bool)
			if !ok {
				return fmt.Errorf("invalid type for %s", key)
			}
			*field = b
		}
		return nil
	}
	assignInt := func(field *int, key string, minVal int) error {
		if val, exists := overrides[key]; exists && val != nil {
			// JSON numbers arrive as float64
			f, ok := val.(float64)
			if !ok {
				n, ok := val.(int)
				if !ok {
					return fmt.Errorf("invalid type for %s", key)
				}
				*field = n
			} else {
				*field = int(f)
			}
			if *field < minVal {
				return fmt.Errorf("%s must be at least %d", key, minVal)
			}
		}
		return nil
	}

	if err := assignInt(&rules.AbilityCount, "abilityCount", 0); err != nil {
		return err
	}
	if err := assignInt(&rules.LowWaterMark, "lowWaterMark", 0); err != nil {
		return err
	}
	if err := assignBool(&rules.AbilityBustStops, "abilityBustStops"); err != nil {
		return err
	}
	if err := assignBool(&rules.GlitchAnyIndex, "glitchAnyIndex"); err != nil {
		return err
	}
	if err := assignInt(&rules.BonusMax, "bonusMax", 1); err != nil {
		return err
	}
	return nil
}
