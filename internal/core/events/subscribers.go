package events

import (
	"context"
	"log/slog"
	"strings"
)

// Recorder receives event counts. *metrics.Metrics satisfies it.
type Recorder interface {
	IncEvent(eventType string)
	IncSessionEvent(event string)
}

// RegisterAuditLog writes one structured line per console event.
func RegisterAuditLog(bus *EventBus, logger *slog.Logger) {
	bus.SubscribeAll(func(_ context.Context, event Event) error {
		attrs := []any{
			"event_type", event.EventType(),
			"event_id", event.EventID(),
			"actor", event.EventActor(),
			"occurred_at", event.OccurredAt(),
		}
		if data, ok := event.Payload().(map[string]interface{}); ok {
			for k, v := range data {
				attrs = append(attrs, k, v)
			}
		}
		logger.Info("Audit: console event", attrs...)
		return nil
	})
}

func RegisterMetrics(bus *EventBus, rec Recorder) {
	bus.SubscribeAll(func(_ context.Context, event Event) error {
		rec.IncEvent(event.EventType())
		if name, ok := strings.CutPrefix(event.EventType(), "session."); ok {
			rec.IncSessionEvent(name)
		}
		return nil
	})
}
