// Package telemetry emits operational events out of the request path.
// Events fan out best-effort to OTel log records and to a Kafka topic that
// the worker drains into Loki; a failed emit never fails the request.
package telemetry

import (
	"encoding/json"
	"time"
)

// Event is one operational event. Serialized as JSON on the wire (Kafka
// message value, Loki log line).
type Event struct {
	PrincipalID string          `json:"principalId,omitempty"`
	SessionID   string          `json:"sessionId,omitempty"`
	Role        string          `json:"role,omitempty"`
	EventType   string          `json:"eventType"`
	Source      string          `json:"source"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// NewEvent returns an event stamped with the current UTC time.
func NewEvent(eventType, source string) *Event {
	return &Event{
		EventType: eventType,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}
}
