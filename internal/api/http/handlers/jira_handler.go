package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/relay-service/internal/api/dto"
	"github.com/spec-kit/relay-service/internal/auth"
	"github.com/spec-kit/relay-service/internal/domain"
	"github.com/spec-kit/relay-service/internal/service"
	apperrors "github.com/spec-kit/relay-service/pkg/util/errorutil"
)

const jiraDeliveryHeader = "X-Atlassian-Webhook-Identifier"

// JiraHandler receives issue-tracker comment events.
type JiraHandler struct {
	deps      WebhookDependencies
	unblocker *service.UnblockerService
}

// NewJiraHandler constructs handler. Webhook tokens are checked by auth.TrackerTokenMiddleware.
func NewJiraHandler(deps WebhookDependencies, unblocker *service.UnblockerService) *JiraHandler {
	return &JiraHandler{deps: deps, unblocker: unblocker}
}

// Events POST /webhooks/jira.
func (h *JiraHandler) Events(c *fiber.Ctx) error {
	body := rawBody(c)

	var payload dto.JiraWebhook
	if err := decode(body, &payload); err != nil {
		return err
	}
	if payload.WebhookEvent != "comment_created" {
		return respond(c, statusIgnored)
	}
	if payload.Comment == nil || payload.Issue == nil {
		return apperrors.NewValidationError("comment and issue are required", nil)
	}
	key, ok := domain.ParseTicketKey(payload.Issue.Key)
	if !ok {
		return apperrors.NewValidationError("issue key is malformed", map[string]any{"key": payload.Issue.Key})
	}

	comment := service.TrackerComment{
		WebhookEvent: payload.WebhookEvent,
		IssueKey:     key,
		IssueStatus:  payload.Issue.Fields.Status.Name,
		Body:         payload.Comment.Body,
		AuthorName:   payload.Comment.Author.DisplayName,
	}
	if len(comment.Blockers()) == 0 {
		return respond(c, statusIgnored)
	}
	if iss, ok := auth.TrackerIssuer(c); ok {
		h.deps.logger().Debug("tracker webhook verified", zap.String("issuer", iss), zap.String("ticket_key", key.String()))
	}
	return h.deps.dispatch(c, domain.SourceIssueTracker, c.Get(jiraDeliveryHeader), body, func(ctx context.Context) error {
		return h.unblocker.HandleComment(ctx, comment)
	})
}
