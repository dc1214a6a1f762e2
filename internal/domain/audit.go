package domain

import "time"

// AuditEntry is one row of the relay's append-only action log.
type AuditEntry struct {
	ID        int64
	EventID   string
	EventType string
	Source    EventSource
	TicketKey TicketKey
	Payload   []byte
	CreatedAt time.Time
}
