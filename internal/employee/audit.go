package employee

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/employee-records/internal/core/events"
	"github.com/frahmantamala/employee-records/internal/metrics"
	"github.com/frahmantamala/employee-records/pkg/logger"
)

// AuditSubscriber records every employee change published on the bus.
type AuditSubscriber struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewAuditSubscriber(logger *slog.Logger, m *metrics.Metrics) *AuditSubscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditSubscriber{logger: logger, metrics: m}
}

// Register subscribes the audit handler to all employee event types.
func (a *AuditSubscriber) Register(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeEmployeeCreated, a.Handle)
	bus.Subscribe(events.EventTypeEmployeeUpdated, a.Handle)
	bus.Subscribe(events.EventTypeEmployeeDeleted, a.Handle)
}

func (a *AuditSubscriber) Handle(ctx context.Context, event events.Event) error {
	attrs := []any{
		"event_type", event.EventType(),
		"event_id", event.EventID(),
		"occurred_at", event.OccurredAt(),
	}
	if traceID := logger.TraceID(ctx); traceID != "" {
		attrs = append(attrs, "trace_id", traceID)
	}
	if e, ok := event.(*events.EmployeeEvent); ok {
		attrs = append(attrs, "employee_id", e.EmployeeID)
		if e.Department != "" {
			attrs = append(attrs, "department", e.Department)
		}
		if len(e.ChangedFields) > 0 {
			attrs = append(attrs, "changed_fields", e.ChangedFields)
		}
	}

	a.logger.InfoContext(ctx, "employee audit", attrs...)
	if a.metrics != nil {
		a.metrics.EventsPublished.WithLabelValues(event.EventType()).Inc()
	}
	return nil
}
