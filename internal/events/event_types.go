package events

import (
	"time"

	"github.com/spec-kit/relay-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated        EventType = "ticket_created"
	EventTicketTransitioned   EventType = "ticket_transitioned"
	EventTicketCommented      EventType = "ticket_commented"
	EventBlockerDetected      EventType = "blocker_detected"
	EventEscalationResolved   EventType = "escalation_resolved"
	EventClassificationFailed EventType = "classification_failed"
)

// Event represents something the router did on behalf of an inbound event.
type Event struct {
	ID        string             `json:"id"`
	Type      EventType          `json:"type"`
	Source    domain.EventSource `json:"source"`
	TicketKey domain.TicketKey   `json:"ticket_key,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
	Payload   interface{}        `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	ProjectKey string           `json:"project_key"`
	IssueType  domain.IssueType `json:"issue_type"`
	Summary    string           `json:"summary"`
}

// TicketTransitionedPayload payload.
type TicketTransitionedPayload struct {
	TargetStatus string `json:"target_status"`
	Reference    string `json:"reference,omitempty"`
}

// TicketCommentedPayload payload.
type TicketCommentedPayload struct {
	BodyPreview string `json:"body_preview"`
}

// BlockerDetectedPayload payload.
type BlockerDetectedPayload struct {
	Author         string `json:"author"`
	MentionedID    string `json:"mentioned_id"`
	BaselineStatus string `json:"baseline_status"`
	JobID          string `json:"job_id,omitempty"`
}

// EscalationResolvedPayload payload.
type EscalationResolvedPayload struct {
	JobID          string                 `json:"job_id"`
	State          domain.EscalationState `json:"state"`
	Reason         string                 `json:"reason"`
	BaselineStatus string                 `json:"baseline_status"`
}

// ClassificationFailedPayload payload.
type ClassificationFailedPayload struct {
	UseCase string `json:"use_case"`
	Error   string `json:"error"`
}
