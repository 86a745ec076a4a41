// internal/models/intent.go
package models

// Intent captures a single inbound client message. Payload is kept loose
// (JSON object) because targeted abilities carry different parameter shapes;
// the game layer validates it per ability.
type Intent struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload"`
}
