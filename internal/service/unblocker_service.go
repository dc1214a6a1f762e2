package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/relay-service/internal/domain"
	"github.com/spec-kit/relay-service/internal/escalation"
	"github.com/spec-kit/relay-service/internal/events"
)

const (
	commentCreatedEvent = "comment_created"
	excerptLimit        = 200
)

// TrackerComment is a normalized issue-tracker comment webhook.
type TrackerComment struct {
	WebhookEvent string
	IssueKey     domain.TicketKey
	IssueStatus  string
	Body         string
	AuthorName   string
}

// Blockers returns the distinct accounts a new comment says the ticket is
// blocked on. Both a blocker keyword and at least one mention are required.
func (c TrackerComment) Blockers() []domain.Mention {
	if c.WebhookEvent != commentCreatedEvent || c.IssueKey == "" {
		return nil
	}
	mentions := domain.ExtractMentions(c.Body)
	if len(mentions) == 0 || !domain.HasBlockerKeyword(c.Body) {
		return nil
	}
	return mentions
}

// UnblockerService alerts mentioned blockers and schedules escalations.
type UnblockerService struct {
	deps      RelayDependencies
	scheduler EscalationScheduler
	logger    *zap.Logger
}

// NewUnblockerService creates the service.
func NewUnblockerService(deps RelayDependencies, scheduler EscalationScheduler) *UnblockerService {
	return &UnblockerService{
		deps:      deps,
		scheduler: scheduler,
		logger:    deps.logger().With(zap.String("source", string(domain.SourceIssueTracker))),
	}
}

// HandleComment notifies every resolvable mentioned account and registers one
// escalation per notified account.
func (s *UnblockerService) HandleComment(ctx context.Context, c TrackerComment) error {
	mentions := c.Blockers()
	if len(mentions) == 0 {
		return nil
	}
	log := s.logger.With(zap.String("ticket_key", c.IssueKey.String()))

	baseline := c.IssueStatus
	if baseline == "" {
		issue, err := s.deps.Tickets.GetIssue(ctx, c.IssueKey)
		if err != nil {
			return err
		}
		baseline = issue.Status
	}

	excerpt := domain.Excerpt(domain.StripMentions(c.Body), excerptLimit)
	author := c.AuthorName
	if author == "" {
		author = "someone"
	}

	for _, m := range mentions {
		user, err := s.deps.Tickets.GetUser(ctx, m.AccountID)
		if err != nil {
			return err
		}
		if !user.HasAddress() {
			log.Info("mentioned account has no address", zap.String("account_id", m.AccountID))
			continue
		}

		text := fmt.Sprintf(":warning: %s says *%s* is blocked on you.\n> %s", author, c.IssueKey, excerpt)
		sent, err := s.deps.Notifier.SendDirectMessage(ctx, user.Email, text)
		if err != nil {
			return err
		}
		if !sent {
			log.Info("mentioned account not found on chat platform", zap.String("account_id", m.AccountID))
		}

		job, err := s.scheduler.Schedule(escalation.Request{
			TicketKey:      c.IssueKey,
			BaselineStatus: baseline,
			Channel:        s.deps.Routing.OpsChannel,
			Context: domain.EscalationContext{
				Author:         c.AuthorName,
				CommentExcerpt: excerpt,
				MentionedID:    m.AccountID,
			},
		})
		if err != nil {
			return err
		}
		s.deps.publish(ctx, events.Event{
			Type:      events.EventBlockerDetected,
			Source:    domain.SourceIssueTracker,
			TicketKey: c.IssueKey,
			Payload: events.BlockerDetectedPayload{
				Author:         c.AuthorName,
				MentionedID:    m.AccountID,
				BaselineStatus: baseline,
				JobID:          job.ID,
			},
		})
	}
	return nil
}

// EscalationObserver publishes terminal escalation outcomes.
func EscalationObserver(dispatcher events.Dispatcher) escalation.Observer {
	return func(job domain.EscalationJob, reason string) {
		if dispatcher == nil {
			return
		}
		_ = dispatcher.Publish(context.Background(), events.Event{
			Type:      events.EventEscalationResolved,
			Source:    domain.SourceIssueTracker,
			TicketKey: job.TicketKey,
			Payload: events.EscalationResolvedPayload{
				JobID:          job.ID,
				State:          job.State,
				Reason:         reason,
				BaselineStatus: job.BaselineStatus,
			},
		})
	}
}
