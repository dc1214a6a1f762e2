package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/relay-service/internal/api/dto"
	"github.com/spec-kit/relay-service/internal/domain"
	"github.com/spec-kit/relay-service/internal/service"
	apperrors "github.com/spec-kit/relay-service/pkg/util/errorutil"
)

// transcriptIDHeader lets a submitter name a transcript. Without it the body
// itself is the dedup identity.
const transcriptIDHeader = "X-Transcript-Id"

// TranscriptHandler receives meeting transcripts.
type TranscriptHandler struct {
	deps        WebhookDependencies
	transcripts *service.TranscriptService
}

// NewTranscriptHandler constructs handler.
func NewTranscriptHandler(deps WebhookDependencies, transcripts *service.TranscriptService) *TranscriptHandler {
	return &TranscriptHandler{deps: deps, transcripts: transcripts}
}

// Submit POST /webhooks/transcript.
func (h *TranscriptHandler) Submit(c *fiber.Ctx) error {
	body := rawBody(c)
	var req dto.TranscriptRequest
	if err := decode(body, &req); err != nil {
		return err
	}
	if req.Transcript == nil || strings.TrimSpace(*req.Transcript) == "" {
		return apperrors.NewValidationError("transcript is required", nil)
	}
	transcript := *req.Transcript
	return h.deps.dispatch(c, domain.SourceTranscript, strings.TrimSpace(c.Get(transcriptIDHeader)), body, func(ctx context.Context) error {
		return h.transcripts.HandleTranscript(ctx, transcript)
	})
}
