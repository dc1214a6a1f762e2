package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/relay-service/internal/api/dto"
	"github.com/spec-kit/relay-service/internal/auth"
	"github.com/spec-kit/relay-service/internal/domain"
	"github.com/spec-kit/relay-service/internal/service"
	apperrors "github.com/spec-kit/relay-service/pkg/util/errorutil"
)

// SlackHandler receives chat-platform events.
type SlackHandler struct {
	deps          WebhookDependencies
	chat          *service.ChatService
	signingSecret string
	now           func() time.Time
}

// NewSlackHandler constructs handler. An empty signingSecret disables request signing checks.
func NewSlackHandler(deps WebhookDependencies, chat *service.ChatService, signingSecret string) *SlackHandler {
	return &SlackHandler{deps: deps, chat: chat, signingSecret: signingSecret, now: time.Now}
}

// Events POST /webhooks/slack.
func (h *SlackHandler) Events(c *fiber.Ctx) error {
	body := rawBody(c)
	if h.signingSecret != "" {
		err := auth.VerifySlackSignature(h.signingSecret, c.Get(auth.SlackSignatureHeader), c.Get(auth.SlackTimestampHeader), body, h.now())
		if err != nil {
			h.deps.logger().Warn("slack signature rejected", zap.Error(err))
			return apperrors.NewAuthenticationError("invalid request signature")
		}
	}

	var envelope dto.SlackEnvelope
	if err := decode(body, &envelope); err != nil {
		return err
	}
	if envelope.Type == "url_verification" {
		return c.JSON(dto.ChallengeResponse{Challenge: envelope.Challenge})
	}
	if envelope.Event == nil {
		return respond(c, statusIgnored)
	}

	msg := service.ChatMessage{
		Channel: envelope.Event.Channel,
		Text:    envelope.Event.Text,
		BotID:   envelope.Event.BotID,
		User:    envelope.Event.User,
	}
	if !isMessageEvent(envelope.Event.Type) || !msg.IsBugReport() {
		return respond(c, statusIgnored)
	}
	return h.deps.dispatch(c, domain.SourceChat, envelope.EventID, body, func(ctx context.Context) error {
		return h.chat.HandleMessage(ctx, msg)
	})
}

func isMessageEvent(eventType string) bool {
	return eventType == "message" || eventType == "app_mention"
}
