package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/relay-service/internal/domain"
	"github.com/spec-kit/relay-service/internal/events"
)

// SourceControlAction is what a source-control event means for its ticket.
type SourceControlAction string

const (
	ActionNone          SourceControlAction = ""
	ActionBranchCreated SourceControlAction = "branch_created"
	ActionPRMerged      SourceControlAction = "pull_request_merged"
)

// SourceControlEvent is a normalized source-control webhook.
type SourceControlEvent struct {
	// Event is the delivery's event name header, when known.
	Event    string
	RefType  string
	Ref      string
	PRAction string
	Merged   bool
	HeadRef  string
	PRTitle  string
	PRURL    string
	PRNumber int
}

// Action classifies the event.
func (e SourceControlEvent) Action() SourceControlAction {
	switch {
	case e.Event == "create" && e.RefType == "branch" && e.Ref != "":
		return ActionBranchCreated
	case e.PRAction == "closed" && e.Merged:
		return ActionPRMerged
	}
	return ActionNone
}

func (e SourceControlEvent) pullRequestLabel() string {
	if e.PRNumber > 0 {
		return fmt.Sprintf("pull request #%d", e.PRNumber)
	}
	return "pull request"
}

// TicketKey finds the referenced ticket: branch ref, then PR head ref, then PR title.
func (e SourceControlEvent) TicketKey() (domain.TicketKey, bool) {
	return domain.FindTicketKey(e.Ref, e.HeadRef, e.PRTitle)
}

// SourceControlService moves tickets along as branches and pull requests progress.
type SourceControlService struct {
	deps   RelayDependencies
	logger *zap.Logger
}

// NewSourceControlService creates the service.
func NewSourceControlService(deps RelayDependencies) *SourceControlService {
	return &SourceControlService{
		deps:   deps,
		logger: deps.logger().With(zap.String("source", string(domain.SourceSourceControl))),
	}
}

// HandleEvent applies the event to its ticket. Events without an action or a
// ticket key are ignored.
func (s *SourceControlService) HandleEvent(ctx context.Context, ev SourceControlEvent) error {
	key, ok := ev.TicketKey()
	if !ok {
		return nil
	}
	switch ev.Action() {
	case ActionBranchCreated:
		return s.branchCreated(ctx, key, ev)
	case ActionPRMerged:
		return s.pullRequestMerged(ctx, key, ev)
	}
	return nil
}

func (s *SourceControlService) branchCreated(ctx context.Context, key domain.TicketKey, ev SourceControlEvent) error {
	if err := s.transition(ctx, key, domain.StatusInProgress, ev.Ref); err != nil {
		return err
	}
	return s.comment(ctx, key, fmt.Sprintf("Branch %s was created. Work has started.", ev.Ref))
}

func (s *SourceControlService) pullRequestMerged(ctx context.Context, key domain.TicketKey, ev SourceControlEvent) error {
	if err := s.transition(ctx, key, domain.StatusDone, ev.PRURL); err != nil {
		return err
	}
	if err := s.comment(ctx, key, fmt.Sprintf("Resolved by merged %s: %s", ev.pullRequestLabel(), ev.PRURL)); err != nil {
		return err
	}
	notice := fmt.Sprintf(":tada: *%s* has been resolved. %s\n%s", key, ev.PRTitle, ev.PRURL)
	return s.deps.Notifier.PostMessage(ctx, s.deps.Routing.SupportChannel, notice)
}

func (s *SourceControlService) transition(ctx context.Context, key domain.TicketKey, status, reference string) error {
	if err := s.deps.Tickets.TransitionIssue(ctx, key, status); err != nil {
		return err
	}
	s.logger.Info("ticket transitioned", zap.String("ticket_key", key.String()), zap.String("status", status))
	s.deps.publish(ctx, events.Event{
		Type:      events.EventTicketTransitioned,
		Source:    domain.SourceSourceControl,
		TicketKey: key,
		Payload:   events.TicketTransitionedPayload{TargetStatus: status, Reference: reference},
	})
	return nil
}

func (s *SourceControlService) comment(ctx context.Context, key domain.TicketKey, body string) error {
	if err := s.deps.Tickets.AddComment(ctx, key, body); err != nil {
		return err
	}
	s.deps.publish(ctx, events.Event{
		Type:      events.EventTicketCommented,
		Source:    domain.SourceSourceControl,
		TicketKey: key,
		Payload:   events.TicketCommentedPayload{BodyPreview: domain.Excerpt(body, 120)},
	})
	return nil
}
