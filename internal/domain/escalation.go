package domain

import "time"

// EscalationState tracks an escalation job through Pending → Fired → {Escalated | Suppressed}.
type EscalationState string

const (
	EscalationPending    EscalationState = "PENDING"
	EscalationFired      EscalationState = "FIRED"
	EscalationEscalated  EscalationState = "ESCALATED"
	EscalationSuppressed EscalationState = "SUPPRESSED"
)

// Terminal reports whether no further transition is possible.
func (s EscalationState) Terminal() bool {
	return s == EscalationEscalated || s == EscalationSuppressed
}

// EscalationContext records who raised the blocker and what they wrote.
type EscalationContext struct {
	Author         string
	CommentExcerpt string
	MentionedID    string
}

// EscalationJob is a deferred re-check of a blocked ticket. BaselineStatus is
// captured at registration and never changes afterwards.
type EscalationJob struct {
	ID             string
	TicketKey      TicketKey
	BaselineStatus string
	Channel        string
	Context        EscalationContext
	RegisteredAt   time.Time
	FiresAt        time.Time
	State          EscalationState
}
