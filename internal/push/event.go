// Package push implements the role-partitioned channel registry that fans
// domain events out to long-lived client connections. Delivery is
// best-effort and at-most-once: one attempt per channel, no retry, no
// buffering beyond the transport's own queue, prune on failure.
package push

// Event is a named notification with an opaque serializable payload.
type Event struct {
	Name    string `json:"name"`
	Payload any    `json:"payload,omitempty"`
}

// PingEvent is the no-op heartbeat event. It keeps intermediaries from
// closing idle connections and surfaces channels that died without a
// terminal signal.
var PingEvent = Event{Name: "ping"}
