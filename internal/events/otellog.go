package events

import (
	"context"
	"encoding/json"

	otellog "go.opentelemetry.io/otel/log"
)

// recordEmitter is the subset of otellog.Logger used here.
type recordEmitter interface {
	Emit(ctx context.Context, rec otellog.Record)
}

// OTelPublisher emits events as OTel log records.
type OTelPublisher struct {
	logger recordEmitter
}

// NewOTelPublisher returns a publisher over provider. A nil provider yields Noop.
func NewOTelPublisher(provider otellog.LoggerProvider) Publisher {
	if provider == nil {
		return Noop{}
	}
	return &OTelPublisher{logger: provider.Logger("otpauth.events")}
}

func (p *OTelPublisher) Publish(ctx context.Context, e Event) error {
	rec := otellog.Record{}
	rec.SetTimestamp(e.CreatedAt)
	rec.SetEventName(e.Type)
	rec.SetSeverity(otellog.SeverityInfo)
	if len(e.Attrs) > 0 {
		b, err := json.Marshal(e.Attrs)
		if err != nil {
			return err
		}
		rec.SetBody(otellog.BytesValue(b))
	}
	rec.AddAttributes(
		otellog.String("event_id", e.ID),
		otellog.String("event_type", e.Type),
		otellog.String("source", e.Source),
	)
	if e.AccountID != "" {
		rec.AddAttributes(otellog.String("account_id", e.AccountID))
	}
	if e.Phone != "" {
		rec.AddAttributes(otellog.String("phone", e.Phone))
	}
	if e.Outcome != "" {
		rec.AddAttributes(otellog.String("outcome", e.Outcome))
	}
	if e.Reason != "" {
		rec.AddAttributes(otellog.String("reason", e.Reason))
	}
	p.logger.Emit(ctx, rec)
	return nil
}

func (p *OTelPublisher) Close() error { return nil }
