// Package gateway defines the outbound contracts the router drives.
// Implementations live in the jira, slack and llm subpackages.
package gateway

import (
	"context"

	"github.com/spec-kit/relay-service/internal/domain"
)

// SearchLimit caps issue search results.
const SearchLimit = 3

// TicketGateway wraps the issue tracker.
type TicketGateway interface {
	CreateIssue(ctx context.Context, input domain.IssueInput) (*domain.Issue, error)
	GetIssue(ctx context.Context, key domain.TicketKey) (*domain.Issue, error)
	// TransitionIssue fails when no transition leads to the named status.
	TransitionIssue(ctx context.Context, key domain.TicketKey, status string) error
	AddComment(ctx context.Context, key domain.TicketKey, body string) error
	// GetUser returns nil without error when the account is unknown.
	GetUser(ctx context.Context, accountID string) (*domain.TrackerUser, error)
	// SearchIssues returns at most SearchLimit issues, most recently updated first.
	SearchIssues(ctx context.Context, query string) ([]domain.Issue, error)
}

// NotificationGateway wraps the chat platform.
type NotificationGateway interface {
	PostMessage(ctx context.Context, channel, text string) error
	// SendDirectMessage reports false without error when email matches no user.
	SendDirectMessage(ctx context.Context, email, text string) (bool, error)
}

// TextCompleter is a single call to a text-generation model.
type TextCompleter interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}
