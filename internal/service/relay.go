package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/relay-service/internal/config"
	"github.com/spec-kit/relay-service/internal/domain"
	"github.com/spec-kit/relay-service/internal/escalation"
	"github.com/spec-kit/relay-service/internal/events"
	"github.com/spec-kit/relay-service/internal/gateway"
)

// BugReportClassifier extracts a ticket from a chat message.
type BugReportClassifier interface {
	ClassifyBugReport(ctx context.Context, text string) (domain.BugReport, error)
}

// TranscriptClassifier extracts the intent of a meeting transcript.
type TranscriptClassifier interface {
	ClassifyTranscript(ctx context.Context, text string) (domain.TranscriptIntent, error)
}

// EscalationScheduler registers deferred blocker re-checks.
type EscalationScheduler interface {
	Schedule(req escalation.Request) (domain.EscalationJob, error)
}

// RelayDependencies bundles collaborators shared by the router flows.
type RelayDependencies struct {
	Tickets    gateway.TicketGateway
	Notifier   gateway.NotificationGateway
	Dispatcher events.Dispatcher
	Routing    config.RoutingConfig
	Logger     *zap.Logger
}

func (d RelayDependencies) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

func (d RelayDependencies) publish(ctx context.Context, event events.Event) {
	if d.Dispatcher == nil {
		return
	}
	_ = d.Dispatcher.Publish(ctx, event)
}
