package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/relay-service/internal/domain"
	"github.com/spec-kit/relay-service/internal/events"
	apperrors "github.com/spec-kit/relay-service/pkg/util/errorutil"
)

var bugKeywords = []string{"bug", "broken", "break"}

// ChatMessage is a normalized chat-platform message event.
type ChatMessage struct {
	Channel string
	Text    string
	BotID   string
	User    string
}

// IsBugReport reports whether the message should be turned into a ticket.
// Bot-originated messages never are.
func (m ChatMessage) IsBugReport() bool {
	if m.BotID != "" || m.Channel == "" {
		return false
	}
	lower := strings.ToLower(m.Text)
	for _, kw := range bugKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// ChatService files bug reports posted in chat.
type ChatService struct {
	deps       RelayDependencies
	classifier BugReportClassifier
	logger     *zap.Logger
}

// NewChatService creates the service.
func NewChatService(deps RelayDependencies, classifier BugReportClassifier) *ChatService {
	return &ChatService{
		deps:       deps,
		classifier: classifier,
		logger:     deps.logger().With(zap.String("source", string(domain.SourceChat))),
	}
}

// HandleMessage classifies a bug report, files it under the default project
// and answers in the originating channel.
func (s *ChatService) HandleMessage(ctx context.Context, msg ChatMessage) error {
	if !msg.IsBugReport() {
		return nil
	}

	report, err := s.classifier.ClassifyBugReport(ctx, msg.Text)
	if err != nil {
		s.deps.publish(ctx, events.Event{
			Type:    events.EventClassificationFailed,
			Source:  domain.SourceChat,
			Payload: events.ClassificationFailedPayload{UseCase: "bug_report", Error: err.Error()},
		})
		s.notifyFailure(ctx, msg.Channel, "I couldn't understand that bug report")
		return err
	}

	report.ProjectKey = s.deps.Routing.DefaultProject
	issue, err := s.deps.Tickets.CreateIssue(ctx, domain.IssueInput{
		ProjectKey:  report.ProjectKey,
		Summary:     report.Summary,
		Description: report.Description,
		IssueType:   report.IssueType,
	})
	if err != nil {
		s.notifyFailure(ctx, msg.Channel, "I couldn't create a ticket for that bug report")
		return err
	}
	s.logger.Info("ticket created from chat", zap.String("ticket_key", issue.Key.String()), zap.String("channel", msg.Channel))
	s.deps.publish(ctx, events.Event{
		Type:      events.EventTicketCreated,
		Source:    domain.SourceChat,
		TicketKey: issue.Key,
		Payload:   events.TicketCreatedPayload{ProjectKey: report.ProjectKey, IssueType: report.IssueType, Summary: report.Summary},
	})

	if err := s.deps.Notifier.PostMessage(ctx, msg.Channel, createdConfirmation(issue, report.Summary)); err != nil {
		return err
	}
	return nil
}

func (s *ChatService) notifyFailure(ctx context.Context, channel, reason string) {
	text := fmt.Sprintf(":warning: %s. Please file it manually.", reason)
	if err := s.deps.Notifier.PostMessage(ctx, channel, text); err != nil {
		s.logger.Warn("failure notice not delivered",
			zap.String("channel", channel),
			zap.Bool("gateway_error", apperrors.HasCode(err, apperrors.CodeGateway)),
			zap.Error(err))
	}
}

func createdConfirmation(issue *domain.Issue, summary string) string {
	text := fmt.Sprintf(":white_check_mark: Created *%s*: %s", issue.Key, summary)
	if issue.URL != "" {
		text += "\n" + issue.URL
	}
	return text
}
