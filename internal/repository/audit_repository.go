package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/relay-service/internal/domain"
)

// AuditRepository stores relay audit entries.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditEntry) error
}

type auditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository builds a Postgres-backed repository, or a log-only one
// when pool is nil.
func NewAuditRepository(pool *pgxpool.Pool, logger *zap.Logger) AuditRepository {
	if pool == nil {
		if logger == nil {
			logger = zap.NewNop()
		}
		return &logAuditRepository{logger: logger}
	}
	return &auditRepository{pool: pool}
}

func (r *auditRepository) Create(ctx context.Context, entry *domain.AuditEntry) error {
	const query = `
        INSERT INTO relay_audit (event_id, event_type, source, ticket_key, payload)
        VALUES ($1,$2,$3,NULLIF($4,''),$5)
        ON CONFLICT (event_id) DO NOTHING
        RETURNING id, created_at`
	payload := entry.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	err := r.pool.QueryRow(ctx, query,
		entry.EventID,
		entry.EventType,
		string(entry.Source),
		entry.TicketKey.String(),
		payload,
	).Scan(&entry.ID, &entry.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// duplicate event id
		return nil
	}
	return err
}

type logAuditRepository struct {
	logger *zap.Logger
}

func (r *logAuditRepository) Create(_ context.Context, entry *domain.AuditEntry) error {
	r.logger.Info("audit",
		zap.String("event_id", entry.EventID),
		zap.String("event_type", entry.EventType),
		zap.String("source", string(entry.Source)),
		zap.String("ticket_key", entry.TicketKey.String()),
		zap.ByteString("payload", entry.Payload))
	return nil
}
