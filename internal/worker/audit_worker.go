package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/crm/internal/events"
	"github.com/spec-kit/crm/internal/observability"
)

// AuditWorker records every audit event in the log and the metrics counters.
type AuditWorker struct {
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewAuditWorker builds the worker. metrics may be nil.
func NewAuditWorker(logger *zap.Logger, metrics *observability.Metrics) *AuditWorker {
	return &AuditWorker{logger: logger.Named("audit"), metrics: metrics}
}

// Start registers the worker for all event types.
func (w *AuditWorker) Start(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	for _, eventType := range events.AllTypes {
		dispatcher.Subscribe(eventType, w.handle)
	}
}

func (w *AuditWorker) handle(_ context.Context, event events.Event) error {
	w.metrics.RecordEvent(string(event.Type))
	w.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.Int64("actor_id", event.ActorID),
		zap.Int64("entity_id", event.EntityID),
		zap.Time("timestamp", event.Timestamp),
		zap.Any("payload", event.Payload),
	)
	return nil
}
