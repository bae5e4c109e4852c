package push

// Channel is the registry's view of one push connection: an opaque sink that
// accepts server-to-client events. Send makes exactly one delivery attempt;
// an error means the peer is presumed dead and the registry prunes the
// channel. Implementations must preserve the order of successive Send calls
// on the same channel.
type Channel interface {
	Send(Event) error
	// Close releases the channel's transport resources. Idempotent; the
	// registry calls it whenever it removes a channel.
	Close()
}

// CloseReason tags the single terminal signal a transport emits over its
// lifetime. All reasons converge on the same unregister path.
type CloseReason int

const (
	// ReasonCompleted means the client ended the connection normally.
	ReasonCompleted CloseReason = iota
	// ReasonTimedOut means the transport gave up waiting on the peer.
	ReasonTimedOut
	// ReasonErrored means a transport error, including a failed send.
	ReasonErrored
)

// String returns the reason tag for logs.
func (r CloseReason) String() string {
	switch r {
	case ReasonCompleted:
		return "completed"
	case ReasonTimedOut:
		return "timed_out"
	case ReasonErrored:
		return "errored"
	}
	return "unknown"
}
