package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/relay-service/internal/domain"
	"github.com/spec-kit/relay-service/internal/events"
)

type memoryAudit struct {
	entries []domain.AuditEntry
}

func (m *memoryAudit) Create(_ context.Context, entry *domain.AuditEntry) error {
	m.entries = append(m.entries, *entry)
	return nil
}

func TestAuditRecordsPublishedEvents(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher(nil)
	repo := &memoryAudit{}
	NewAuditService(dispatcher, repo, nil).RegisterHandlers()

	observer := EscalationObserver(dispatcher)
	observer(domain.EscalationJob{ID: "job-1", TicketKey: "KAN-42", BaselineStatus: "In Progress", State: domain.EscalationSuppressed}, "status_changed")

	require.Len(t, repo.entries, 1)
	entry := repo.entries[0]
	assert.Equal(t, string(events.EventEscalationResolved), entry.EventType)
	assert.Equal(t, domain.TicketKey("KAN-42"), entry.TicketKey)
	assert.NotEmpty(t, entry.EventID)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(entry.Payload, &payload))
	assert.Equal(t, "SUPPRESSED", payload["state"])
	assert.Equal(t, "status_changed", payload["reason"])
}
