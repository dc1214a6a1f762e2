package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/spec-kit/relay-service/internal/domain"
	"github.com/spec-kit/relay-service/internal/events"
	"github.com/spec-kit/relay-service/internal/repository"
)

// AuditService appends every relay event to the audit repository.
type AuditService struct {
	dispatcher events.Dispatcher
	repo       repository.AuditRepository
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, repo repository.AuditRepository, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{dispatcher: dispatcher, repo: repo, logger: logger}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil || a.repo == nil {
		return
	}
	for _, t := range []events.EventType{
		events.EventTicketCreated,
		events.EventTicketTransitioned,
		events.EventTicketCommented,
		events.EventBlockerDetected,
		events.EventEscalationResolved,
		events.EventClassificationFailed,
	} {
		a.dispatcher.Subscribe(t, a.record)
	}
}

func (a *AuditService) record(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}
	entry := &domain.AuditEntry{
		EventID:   event.ID,
		EventType: string(event.Type),
		Source:    event.Source,
		TicketKey: event.TicketKey,
		Payload:   payload,
	}
	if err := a.repo.Create(ctx, entry); err != nil {
		a.logger.Error("audit write failed", zap.String("event_id", event.ID), zap.Error(err))
		return err
	}
	return nil
}
