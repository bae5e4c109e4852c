package domain

import "time"

// Entry is one recorded administrative or authentication action.
type Entry struct {
	ID        string
	ActorID   string
	Action    string
	Resource  string
	IP        string
	Metadata  string
	CreatedAt time.Time
}
