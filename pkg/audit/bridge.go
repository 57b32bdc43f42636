// Package audit implements the correlation audit bridge: a fire-and-forget
// sink for structured governance events. Bridge failures are logged and
// swallowed so they can never abort or mask the primary operation.
package audit

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clearledger/governance-engine/pkg/models"
	"github.com/clearledger/governance-engine/pkg/repositories"
	"github.com/clearledger/governance-engine/pkg/retry"
)

// Bridge receives one structured event per governance operation. Emit has no
// error return: implementations handle their own failures internally.
type Bridge interface {
	Emit(ctx context.Context, correlationID uuid.UUID, eventType string, payload map[string]any)
}

// storeBridge persists events through the governance event repository.
// Transient store failures are retried; anything that still fails is logged
// and dropped.
type storeBridge struct {
	repo   repositories.GovernanceEventRepository
	retry  *retry.Config
	logger *zap.Logger
}

// NewStoreBridge creates a bridge that writes events to the governance store.
func NewStoreBridge(repo repositories.GovernanceEventRepository, logger *zap.Logger) Bridge {
	return &storeBridge{repo: repo, retry: retry.DefaultConfig(), logger: logger.Named("audit-bridge")}
}

var _ Bridge = (*storeBridge)(nil)

func (b *storeBridge) Emit(ctx context.Context, correlationID uuid.UUID, eventType string, payload map[string]any) {
	event := &models.GovernanceEvent{
		CorrelationID: correlationID,
		EventType:     eventType,
		Payload:       payload,
	}

	// Convention: a query_id payload entry identifies the affected record.
	if raw, ok := payload["query_id"]; ok {
		if id, ok := raw.(uuid.UUID); ok {
			event.EntityID = &id
		}
	}

	err := retry.DoIfRetryable(ctx, b.retry, func() error {
		return b.repo.Create(ctx, event)
	})
	if err != nil {
		b.logger.Error("Failed to persist governance event",
			zap.String("correlation_id", correlationID.String()),
			zap.String("event_type", eventType),
			zap.Error(err))
	}
}

// logBridge only logs events; used when no event store is wired.
type logBridge struct {
	logger *zap.Logger
}

// NewLogBridge creates a bridge that emits events to the log only.
func NewLogBridge(logger *zap.Logger) Bridge {
	return &logBridge{logger: logger.Named("audit-bridge")}
}

var _ Bridge = (*logBridge)(nil)

func (b *logBridge) Emit(_ context.Context, correlationID uuid.UUID, eventType string, payload map[string]any) {
	b.logger.Info("Governance event",
		zap.String("correlation_id", correlationID.String()),
		zap.String("event_type", eventType),
		zap.Any("payload", payload))
}
