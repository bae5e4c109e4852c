// Package ticket defines the support-ticket domain consumed by the
// notification producer. Persistence lives behind the Repository interface;
// the core never talks to a ticket store directly.
package ticket

import (
	"context"
	"time"
)

// Status is the ticket lifecycle state.
type Status string

const (
	StatusOpen     Status = "open"
	StatusAssigned Status = "assigned"
	StatusResolved Status = "resolved"
)

// Ticket is one customer request.
type Ticket struct {
	ID             string
	Subject        string
	Body           string
	Status         Status
	RequesterEmail string
	AssigneeID     string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Message is one reply on a ticket's thread.
type Message struct {
	ID        string
	TicketID  string
	AuthorID  string
	Body      string
	Language  string
	CreatedAt time.Time
}

// Repository defines ticket persistence.
type Repository interface {
	GetTicket(ctx context.Context, id string) (*Ticket, error)
	CreateTicket(ctx context.Context, t *Ticket) error
	UpdateTicket(ctx context.Context, t *Ticket) error
	ListMessages(ctx context.Context, ticketID string) ([]*Message, error)
	AppendMessage(ctx context.Context, m *Message) error
}

// Translator renders text into the target language. Implementations must be
// pure: same input, same output, no side effects.
type Translator func(ctx context.Context, text, targetLang string) (string, error)

// IdentityTranslator returns the text unchanged. Default when no translation
// backend is configured.
func IdentityTranslator(_ context.Context, text, _ string) (string, error) {
	return text, nil
}
