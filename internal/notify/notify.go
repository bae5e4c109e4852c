// Package notify turns domain events into registry broadcasts. Every
// delivery is best-effort: publishing never fails the caller, whatever
// happens to individual subscriber channels.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"supportdesk/internal/push"
	"supportdesk/internal/role"
	"supportdesk/internal/ticket"
)

// Event names on the push wire.
const (
	EventTicketCreated  = "ticket.created"
	EventTicketAssigned = "ticket.assigned"
	EventTicketReplied  = "ticket.replied"
	EventNotice         = "notice"
)

// ErrNotAuthorized is returned when the sender's role may not reach the
// requested target per the notification table.
var ErrNotAuthorized = errors.New("notify: sender role not authorized for target")

// maxNotices bounds the catch-up buffer of active announcements.
const maxNotices = 20

// Notice is an operator announcement replayed to late subscribers.
type Notice struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    string    `json:"sender"`
	Target    string    `json:"target"` // role name or "all"
	CreatedAt time.Time `json:"createdAt"`
}

// TicketPayload is the push payload for ticket lifecycle events.
type TicketPayload struct {
	TicketID   string `json:"ticketId"`
	Subject    string `json:"subject"`
	Status     string `json:"status"`
	AssigneeID string `json:"assigneeId,omitempty"`
	MessageID  string `json:"messageId,omitempty"`
}

// Service publishes domain events to the channel registry and keeps the
// bounded buffer of active notices for catch-up replay.
type Service struct {
	registry *push.Registry

	mu      sync.RWMutex
	notices []Notice
}

// NewService returns a producer over the given registry.
func NewService(registry *push.Registry) *Service {
	return &Service{registry: registry}
}

// TicketCreated announces a new ticket to supervisors and agents.
func (s *Service) TicketCreated(ctx context.Context, t *ticket.Ticket) {
	if t == nil {
		return
	}
	ev := push.Event{Name: EventTicketCreated, Payload: TicketPayload{
		TicketID: t.ID,
		Subject:  t.Subject,
		Status:   string(t.Status),
	}}
	s.registry.BroadcastToRole(ctx, role.RoleSupervisor, ev)
	s.registry.BroadcastToRole(ctx, role.RoleAgent, ev)
}

// TicketAssigned notifies the assignee directly and the supervisor tier.
func (s *Service) TicketAssigned(ctx context.Context, t *ticket.Ticket) {
	if t == nil {
		return
	}
	ev := push.Event{Name: EventTicketAssigned, Payload: TicketPayload{
		TicketID:   t.ID,
		Subject:    t.Subject,
		Status:     string(t.Status),
		AssigneeID: t.AssigneeID,
	}}
	if t.AssigneeID != "" {
		s.registry.Unicast(ctx, role.RoleAgent, t.AssigneeID, ev)
	}
	s.registry.BroadcastToRole(ctx, role.RoleSupervisor, ev)
}

// TicketReplied notifies the assignee about a new message on their ticket.
func (s *Service) TicketReplied(ctx context.Context, t *ticket.Ticket, m *ticket.Message) {
	if t == nil || m == nil {
		return
	}
	ev := push.Event{Name: EventTicketReplied, Payload: TicketPayload{
		TicketID:   t.ID,
		Subject:    t.Subject,
		Status:     string(t.Status),
		AssigneeID: t.AssigneeID,
		MessageID:  m.ID,
	}}
	if t.AssigneeID != "" {
		s.registry.Unicast(ctx, role.RoleAgent, t.AssigneeID, ev)
		return
	}
	s.registry.BroadcastToRole(ctx, role.RoleSupervisor, ev)
}

// Announce broadcasts an operator notice. target is a role name or "all";
// authorization follows the notification table for the sender's role. The
// notice is remembered for catch-up replay to late subscribers.
func (s *Service) Announce(ctx context.Context, sender role.Role, senderID, target, text string) (*Notice, error) {
	var targets []role.Role
	if target == "all" {
		if !role.CanNotifyAll(sender) {
			return nil, ErrNotAuthorized
		}
		targets = role.Roles()
	} else {
		tr, err := role.Parse(target)
		if err != nil {
			return nil, err
		}
		if !role.CanNotify(sender, tr) {
			return nil, ErrNotAuthorized
		}
		targets = []role.Role{tr}
	}

	notice := Notice{
		ID:        uuid.New().String(),
		Text:      text,
		Sender:    senderID,
		Target:    target,
		CreatedAt: time.Now().UTC(),
	}
	s.remember(notice)

	ev := push.Event{Name: EventNotice, Payload: notice}
	for _, r := range targets {
		s.registry.BroadcastToRole(ctx, r, ev)
	}
	return &notice, nil
}

// Snapshot returns the active notices addressed to the given role, oldest
// first, as catch-up events for a newly registered channel. Replay is
// best-effort and may overlap with a live broadcast; subscribers dedupe by
// notice id.
func (s *Service) Snapshot(r role.Role, _ string) []push.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []push.Event
	for _, n := range s.notices {
		if n.Target == "all" || n.Target == r.String() {
			out = append(out, push.Event{Name: EventNotice, Payload: n})
		}
	}
	return out
}

func (s *Service) remember(n Notice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, n)
	if len(s.notices) > maxNotices {
		s.notices = s.notices[len(s.notices)-maxNotices:]
	}
}
