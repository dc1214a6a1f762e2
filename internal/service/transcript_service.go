package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/relay-service/internal/domain"
	"github.com/spec-kit/relay-service/internal/events"
)

// TranscriptService acts on intents found in meeting transcripts.
type TranscriptService struct {
	deps       RelayDependencies
	classifier TranscriptClassifier
	logger     *zap.Logger
}

// NewTranscriptService creates the service.
func NewTranscriptService(deps RelayDependencies, classifier TranscriptClassifier) *TranscriptService {
	return &TranscriptService{
		deps:       deps,
		classifier: classifier,
		logger:     deps.logger().With(zap.String("source", string(domain.SourceTranscript))),
	}
}

// HandleTranscript classifies the transcript once and dispatches on intent.
// Anything below high confidence is ignored.
func (s *TranscriptService) HandleTranscript(ctx context.Context, transcript string) error {
	intent, err := s.classifier.ClassifyTranscript(ctx, transcript)
	if err != nil {
		s.deps.publish(ctx, events.Event{
			Type:    events.EventClassificationFailed,
			Source:  domain.SourceTranscript,
			Payload: events.ClassificationFailedPayload{UseCase: "transcript", Error: err.Error()},
		})
		return err
	}

	log := s.logger.With(zap.String("intent", string(intent.Kind)), zap.String("confidence", string(intent.Confidence)))
	if !intent.Actionable() {
		log.Info("transcript intent not actionable")
		return nil
	}

	switch intent.Kind {
	case domain.IntentCreateIssue:
		return s.createIssue(ctx, intent.Create)
	case domain.IntentAddComment:
		return s.addComment(ctx, log, intent.Comment)
	case domain.IntentPauseIssue:
		return s.pauseIssue(ctx, log, intent.Pause)
	case domain.IntentNone:
		return nil
	}
	return nil
}

func (s *TranscriptService) createIssue(ctx context.Context, details *domain.CreateIssueDetails) error {
	project := s.deps.Routing.DefaultProject
	issue, err := s.deps.Tickets.CreateIssue(ctx, domain.IssueInput{
		ProjectKey:  project,
		Summary:     details.Summary,
		Description: details.Description,
		IssueType:   details.IssueType,
	})
	if err != nil {
		return err
	}
	s.logger.Info("ticket created from transcript", zap.String("ticket_key", issue.Key.String()))
	s.deps.publish(ctx, events.Event{
		Type:      events.EventTicketCreated,
		Source:    domain.SourceTranscript,
		TicketKey: issue.Key,
		Payload:   events.TicketCreatedPayload{ProjectKey: project, IssueType: details.IssueType, Summary: details.Summary},
	})
	return s.deps.Notifier.PostMessage(ctx, s.deps.Routing.UpdatesChannel,
		createdConfirmation(issue, details.Summary)+"\n_from meeting notes_")
}

func (s *TranscriptService) addComment(ctx context.Context, log *zap.Logger, details *domain.AddCommentDetails) error {
	results, err := s.deps.Tickets.SearchIssues(ctx, details.SearchQuery)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		log.Info("no ticket matched transcript search", zap.String("query", details.SearchQuery))
		return nil
	}
	target := results[0]
	if err := s.deps.Tickets.AddComment(ctx, target.Key, details.Comment); err != nil {
		return err
	}
	s.publishComment(ctx, target.Key, details.Comment)
	text := fmt.Sprintf(":memo: Added meeting notes to *%s* (%s)", target.Key, target.Summary)
	return s.deps.Notifier.PostMessage(ctx, s.deps.Routing.UpdatesChannel, text)
}

func (s *TranscriptService) pauseIssue(ctx context.Context, log *zap.Logger, details *domain.PauseIssueDetails) error {
	key := details.TicketKey
	body := "Paused: " + details.Reason
	if err := s.deps.Tickets.AddComment(ctx, key, body); err != nil {
		return err
	}
	s.publishComment(ctx, key, body)

	issue, err := s.deps.Tickets.GetIssue(ctx, key)
	if err != nil {
		return err
	}
	if !issue.Assignee.HasAddress() {
		log.Info("paused ticket has no reachable assignee", zap.String("ticket_key", key.String()))
		return nil
	}
	text := fmt.Sprintf(":double_vertical_bar: *%s* was paused in a meeting.\n> %s", key, details.Reason)
	sent, err := s.deps.Notifier.SendDirectMessage(ctx, issue.Assignee.Email, text)
	if err != nil {
		return err
	}
	if !sent {
		log.Info("assignee not found on chat platform", zap.String("ticket_key", key.String()))
	}
	return nil
}

func (s *TranscriptService) publishComment(ctx context.Context, key domain.TicketKey, body string) {
	s.deps.publish(ctx, events.Event{
		Type:      events.EventTicketCommented,
		Source:    domain.SourceTranscript,
		TicketKey: key,
		Payload:   events.TicketCommentedPayload{BodyPreview: domain.Excerpt(body, 120)},
	})
}
