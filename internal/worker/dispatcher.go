package worker

import (
	"context"
	"errors"
	"time"

	"flightbook/internal/events"

	"github.com/rs/zerolog"
)

// ErrQueueFull is returned by Enqueue when the dispatcher is saturated.
var ErrQueueFull = errors.New("dispatcher queue full")

// drainTimeout bounds delivery of the events left in the queue on shutdown.
const drainTimeout = 5 * time.Second

// Sink delivers one event to an external system.
type Sink interface {
	Deliver(ctx context.Context, event *events.Event) error
}

// Dispatcher hands events to a Sink off the caller's goroutine, retrying
// failed deliveries with the retry policy. Events that exhaust their
// retries are logged and dropped.
type Dispatcher struct {
	name   string
	sink   Sink
	retry  RetryPolicy
	queue  chan *events.Event
	done   chan struct{}
	logger *zerolog.Logger
}

// NewDispatcher builds a dispatcher with sane defaults.
func NewDispatcher(name string, sink Sink, retry RetryPolicy, queueSize int, logger *zerolog.Logger) *Dispatcher {
	if retry.MaxRetries == 0 {
		retry = DefaultRetryPolicy()
	}
	if queueSize <= 0 {
		queueSize = 128
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Dispatcher{
		name:   name,
		sink:   sink,
		retry:  retry,
		queue:  make(chan *events.Event, queueSize),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Enqueue schedules an event for delivery. It matches events.EventHandler so
// the dispatcher can be subscribed to the bus directly.
func (d *Dispatcher) Enqueue(event *events.Event) error {
	select {
	case d.queue <- event:
		return nil
	default:
		d.logger.Warn().Str("dispatcher", d.name).Str("event_type", event.Type).Msg("queue full, event dropped")
		return ErrQueueFull
	}
}

// Start runs the delivery loop until ctx is done, then makes one delivery
// attempt for each event still queued before Done is closed.
func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.Info().Str("dispatcher", d.name).Msg("dispatcher started")
	defer func() {
		close(d.done)
		d.logger.Info().Str("dispatcher", d.name).Int("pending", len(d.queue)).Msg("dispatcher stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			d.drain()
			return
		case event := <-d.queue:
			d.process(ctx, event)
		}
	}
}

func (d *Dispatcher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	for {
		select {
		case event := <-d.queue:
			if err := d.sink.Deliver(ctx, event); err != nil {
				d.logger.Error().Err(err).Str("dispatcher", d.name).Str("event_type", event.Type).Msg("delivery on shutdown failed")
			}
		default:
			return
		}
	}
}

// Done is closed when Start returns.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

func (d *Dispatcher) process(ctx context.Context, event *events.Event) {
	attempt := 0
	err := d.retry.Do(ctx, func(ctx context.Context) error {
		attempt++
		err := d.sink.Deliver(ctx, event)
		if err != nil {
			d.logger.Warn().Err(err).Str("dispatcher", d.name).Str("event_type", event.Type).Int("attempt", attempt).Msg("delivery failed")
		}
		return err
	})
	if err != nil {
		d.logger.Error().Err(err).Str("dispatcher", d.name).Str("event_type", event.Type).Int("attempts", attempt).Msg("delivery abandoned")
	}
}
