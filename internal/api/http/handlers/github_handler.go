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

const (
	githubEventHeader    = "X-GitHub-Event"
	githubDeliveryHeader = "X-GitHub-Delivery"
)

// GitHubHandler receives source-control events.
type GitHubHandler struct {
	deps   WebhookDependencies
	scm    *service.SourceControlService
	secret []byte
}

// NewGitHubHandler constructs handler.
func NewGitHubHandler(deps WebhookDependencies, scm *service.SourceControlService, secret string) *GitHubHandler {
	return &GitHubHandler{deps: deps, scm: scm, secret: []byte(secret)}
}

// Events POST /webhooks/github.
func (h *GitHubHandler) Events(c *fiber.Ctx) error {
	body := rawBody(c)
	if !auth.VerifySignature(h.secret, body, c.Get(auth.SignatureHeader)) {
		h.deps.logger().Warn("source-control signature rejected",
			zap.String("delivery_id", c.Get(githubDeliveryHeader)),
			zap.Bool("header_present", c.Get(auth.SignatureHeader) != ""))
		return apperrors.NewAuthenticationError("invalid signature")
	}

	var payload dto.GitHubPayload
	if err := decode(body, &payload); err != nil {
		return err
	}

	ev := service.SourceControlEvent{
		Event:    c.Get(githubEventHeader),
		RefType:  payload.RefType,
		Ref:      payload.Ref,
		PRAction: payload.Action,
	}
	if pr := payload.PullRequest; pr != nil {
		ev.Merged = pr.Merged
		ev.HeadRef = pr.Head.Ref
		ev.PRTitle = pr.Title
		ev.PRURL = pr.HTMLURL
		ev.PRNumber = pr.Number
	}
	if ev.Action() == service.ActionNone {
		return respond(c, statusIgnored)
	}
	if _, ok := ev.TicketKey(); !ok {
		return respond(c, statusIgnored)
	}
	return h.deps.dispatch(c, domain.SourceSourceControl, c.Get(githubDeliveryHeader), body, func(ctx context.Context) error {
		return h.scm.HandleEvent(ctx, ev)
	})
}
