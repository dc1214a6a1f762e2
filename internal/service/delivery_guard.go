package service

import (
	"context"
	"encoding/hex"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/spec-kit/relay-service/internal/domain"
	"github.com/spec-kit/relay-service/internal/repository"
)

const (
	deliveryKeyPrefix = "relay:delivery:"

	// defaultClaimTimeout bounds the dedup lookup on the acknowledgement path.
	defaultClaimTimeout = 250 * time.Millisecond
)

// DeliveryGuard drops repeated webhook deliveries within a TTL window.
type DeliveryGuard struct {
	repo         repository.DeliveryRepository
	ttl          time.Duration
	claimTimeout time.Duration
	logger       *zap.Logger
}

// NewDeliveryGuard builds a guard. A nil repo or non-positive ttl disables it.
func NewDeliveryGuard(repo repository.DeliveryRepository, ttl time.Duration, logger *zap.Logger) *DeliveryGuard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeliveryGuard{repo: repo, ttl: ttl, claimTimeout: defaultClaimTimeout, logger: logger}
}

// Duplicate reports whether the delivery was already seen. The delivery id is
// used when present, otherwise the body. Storage errors and slow claims fail open.
func (g *DeliveryGuard) Duplicate(ctx context.Context, source domain.EventSource, deliveryID string, body []byte) bool {
	if g == nil || g.repo == nil || g.ttl <= 0 {
		return false
	}
	key := DeliveryKey(source, deliveryID, body)
	if g.claimTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.claimTimeout)
		defer cancel()
	}
	fresh, err := g.repo.Claim(ctx, key, g.ttl)
	if err != nil {
		g.logger.Warn("delivery dedup unavailable", zap.String("source", string(source)), zap.Error(err))
		return false
	}
	if !fresh {
		g.logger.Info("duplicate delivery dropped",
			zap.String("source", string(source)),
			zap.String("delivery_id", deliveryID))
	}
	return !fresh
}

// DeliveryKey derives the storage key for one delivery.
func DeliveryKey(source domain.EventSource, deliveryID string, body []byte) string {
	material := body
	if deliveryID != "" {
		material = []byte(deliveryID)
	}
	sum := blake2b.Sum256(material)
	return deliveryKeyPrefix + string(source) + ":" + hex.EncodeToString(sum[:])
}
