package handlers

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/relay-service/internal/api/dto"
	"github.com/spec-kit/relay-service/internal/domain"
	"github.com/spec-kit/relay-service/internal/service"
	apperrors "github.com/spec-kit/relay-service/pkg/util/errorutil"
)

const (
	statusAccepted  = "accepted"
	statusIgnored   = "ignored"
	statusDuplicate = "duplicate"
)

// Continuations runs work after the response has been sent.
type Continuations interface {
	Go(flow string, fn func(ctx context.Context) error)
}

// WebhookDependencies are shared by every webhook handler.
type WebhookDependencies struct {
	Runner Continuations
	Guard  *service.DeliveryGuard
	Logger *zap.Logger
}

func (d WebhookDependencies) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// rawBody copies the request body exactly as received, without content decoding.
// Fiber reuses its buffer after the handler returns.
func rawBody(c *fiber.Ctx) []byte {
	body := c.BodyRaw()
	out := make([]byte, len(body))
	copy(out, body)
	return out
}

func decode(body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return apperrors.NewValidationError("malformed JSON payload", map[string]any{"reason": err.Error()})
	}
	return nil
}

func respond(c *fiber.Ctx, status string) error {
	return c.Status(fiber.StatusOK).JSON(dto.WebhookResponse{Status: status})
}

// dispatch acknowledges the delivery and hands fn to the runner unless the
// delivery was already seen.
func (d WebhookDependencies) dispatch(c *fiber.Ctx, source domain.EventSource, deliveryID string, body []byte, fn func(ctx context.Context) error) error {
	if d.Guard.Duplicate(c.UserContext(), source, deliveryID, body) {
		return respond(c, statusDuplicate)
	}
	d.Runner.Go(string(source), fn)
	return respond(c, statusAccepted)
}
