// Package notify delivers real-time events to connected clients. Delivery
// is best effort: events are queued without blocking the writer and dropped
// when nobody can take them.
package notify

import (
	"context"
	"errors"

	"messenger/internal/domain"

	"github.com/rs/zerolog"
)

// ErrOutboxFull is returned by Notify when the queue has no room left.
var ErrOutboxFull = errors.New("notify: outbox full")

// ErrOutboxClosed is returned by Notify after Run has returned.
var ErrOutboxClosed = errors.New("notify: outbox closed")

// Sink receives events drained from the outbox.
type Sink interface {
	Deliver(evt domain.Event) error
}

// Outbox is a buffered queue between the write path and a Sink.
type Outbox struct {
	ch   chan domain.Event
	done chan struct{}
	sink Sink
	log  zerolog.Logger
}

// NewOutbox creates an outbox holding up to buffer pending events.
func NewOutbox(buffer int, sink Sink, log zerolog.Logger) *Outbox {
	if buffer <= 0 {
		buffer = 256
	}
	return &Outbox{
		ch:   make(chan domain.Event, buffer),
		done: make(chan struct{}),
		sink: sink,
		log:  log,
	}
}

var _ domain.Notifier = (*Outbox)(nil)

// Notify enqueues evt without blocking.
func (o *Outbox) Notify(_ context.Context, evt domain.Event) error {
	select {
	case <-o.done:
		return ErrOutboxClosed
	default:
	}
	select {
	case o.ch <- evt:
		return nil
	default:
		return ErrOutboxFull
	}
}

// Pending returns the number of queued events.
func (o *Outbox) Pending() int {
	return len(o.ch)
}

// Run delivers queued events to the sink until ctx is canceled.
func (o *Outbox) Run(ctx context.Context) error {
	o.log.Info().Int("buffer", cap(o.ch)).Msg("outbox starting")
	defer close(o.done)

	for {
		select {
		case <-ctx.Done():
			o.log.Info().Int("pending", o.Pending()).Msg("outbox stopping")
			return ctx.Err()
		case evt := <-o.ch:
			if err := o.sink.Deliver(evt); err != nil {
				o.log.Warn().Err(err).
					Str("event", evt.Type).
					Str("recipient_id", evt.RecipientID).
					Msg("deliver event")
			}
		}
	}
}
