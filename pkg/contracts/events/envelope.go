package events

import (
	"encoding/json"
	"fmt"
)

// Envelope é o formato trafegado no Redis Pub/Sub e entregue aos clientes WebSocket.
// Type segue os nomes de tópico (quota_changed, event_changed, ...).
type Envelope struct {
	Type    string          `json:"type"`
	EventID int64           `json:"event_id"`
	Payload json.RawMessage `json:"payload"`
}

// Wrap serializa payload dentro de um Envelope
func Wrap(typ string, eventID int64, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", typ, err)
	}
	return json.Marshal(Envelope{Type: typ, EventID: eventID, Payload: raw})
}
