package events

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

// publishTimeout bounds a single async publish.
const publishTimeout = 5 * time.Second

// ShutdownDrainDuration is how long to wait after GracefulStop before closing publishers,
// so in-flight async publishes can finish. Must be >= publishTimeout.
const ShutdownDrainDuration = publishTimeout

// Publisher sends events. Callers treat it as best-effort.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	// Close releases resources. Safe to call more than once.
	Close() error
}

// Noop discards every event.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }

// Fanout publishes each event to every publisher and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) Close() error {
	var errs []error
	for _, p := range f {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PublishAsync publishes e in a goroutine so the caller is not blocked. Errors are logged.
// The goroutine uses its own timeout so request cancellation does not abort the publish.
func PublishAsync(pub Publisher, log logrus.FieldLogger, e Event) {
	if pub == nil {
		return
	}
	if _, ok := pub.(Noop); ok {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := pub.Publish(ctx, e); err != nil && log != nil {
			log.WithError(err).WithField("event_type", e.Type).Warn("events: async publish failed")
		}
	}()
}
