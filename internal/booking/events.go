package booking

import (
	"context"

	"github.com/iliyamo/cinema-box-office/internal/queue"
)

// EventSink receives hold lifecycle events.  queue.Publisher implements
// it; failures are logged by the caller and never change booking state.
type EventSink interface {
	Publish(ctx context.Context, ev queue.HoldEvent) error
}

type nopSink struct{}

func (nopSink) Publish(context.Context, queue.HoldEvent) error { return nil }
