package notification

import (
	"context"
	"sync"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// Sink delivers events over one channel (websocket, email, log...).
// Returning backoff.Permanent stops retries for that event.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, event Event) error
}

// Config tunes a Dispatcher
type Config struct {
	QueueSize int
	Workers   int
	// RetryMaxElapsed bounds how long one sink keeps retrying one event.
	RetryMaxElapsed time.Duration
	// DrainTimeout bounds delivery of events still queued at shutdown.
	DrainTimeout time.Duration
	// PublishTimeout bounds how long Publish waits for room in a full queue.
	PublishTimeout time.Duration
}

// Dispatcher queues events published after a ledger commit and delivers them
// to every sink on background workers. A full queue makes Publish wait up to
// PublishTimeout; delivery failures never reach the publisher.
type Dispatcher struct {
	queue          chan Event
	sinks          []Sink
	workers        int
	drainTimeout   time.Duration
	publishTimeout time.Duration
	buildBackoff func() backoff.BackOff
	logger       zerolog.Logger
	metrics      *Metrics

	mu     sync.RWMutex
	closed bool
}

// Option customises a Dispatcher
type Option func(*Dispatcher)

// WithBackoff replaces the per-delivery retry policy factory.
func WithBackoff(factory func() backoff.BackOff) Option {
	return func(d *Dispatcher) {
		if factory != nil {
			d.buildBackoff = factory
		}
	}
}

// WithMetrics records queue and delivery counters.
func WithMetrics(m *Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// NewDispatcher creates a dispatcher delivering to sinks.
func NewDispatcher(cfg Config, logger zerolog.Logger, sinks []Sink, opts ...Option) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.RetryMaxElapsed <= 0 {
		cfg.RetryMaxElapsed = 30 * time.Second
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = 5 * time.Second
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 5 * time.Second
	}

	maxElapsed := cfg.RetryMaxElapsed
	d := &Dispatcher{
		queue:          make(chan Event, cfg.QueueSize),
		sinks:          sinks,
		workers:        cfg.Workers,
		drainTimeout:   cfg.DrainTimeout,
		publishTimeout: cfg.PublishTimeout,
		logger:         logger.With().Str("component", "notifications").Logger(),
		buildBackoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxElapsedTime = maxElapsed
			return b
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Publish enqueues event for delivery. When the queue is full it waits for a
// worker to make room and drops the event only after PublishTimeout. Once the
// dispatcher has stopped the event is delivered inline instead.
func (d *Dispatcher) Publish(event Event) {
	d.mu.RLock()
	if d.closed {
		d.mu.RUnlock()
		d.deliverInline(event)
		return
	}
	defer d.mu.RUnlock()

	select {
	case d.queue <- event:
		d.metrics.recordPublished(event.Type)
		return
	default:
	}

	d.logger.Debug().Str("eventID", event.ID).Msg("Notification queue full, waiting")
	timer := time.NewTimer(d.publishTimeout)
	defer timer.Stop()
	select {
	case d.queue <- event:
		d.metrics.recordPublished(event.Type)
	case <-timer.C:
		d.drop(event, "queue full")
	}
}

func (d *Dispatcher) deliverInline(event Event) {
	d.metrics.recordPublished(event.Type)
	d.logger.Warn().
		Str("eventID", event.ID).
		Str("type", string(event.Type)).
		Msg("Dispatcher stopped, delivering notification inline")
	ctx, cancel := context.WithTimeout(context.Background(), d.drainTimeout)
	defer cancel()
	d.deliver(ctx, event)
}

func (d *Dispatcher) drop(event Event, reason string) {
	d.metrics.recordDropped()
	d.logger.Error().
		Str("eventID", event.ID).
		Str("type", string(event.Type)).
		Int64("entryID", event.EntryID).
		Str("reason", reason).
		Msg("Notification dropped")
}

// Run delivers queued events until ctx is cancelled. It then stops accepting
// new events and gives the workers DrainTimeout to deliver what is queued.
func (d *Dispatcher) Run(ctx context.Context) error {
	deliverCtx, cancelDeliver := context.WithCancel(context.Background())
	defer cancelDeliver()

	var wg sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for event := range d.queue {
				d.deliver(deliverCtx, event)
			}
		}()
	}

	<-ctx.Done()

	// Publishers blocked on a full queue hold the read lock; the workers keep
	// consuming until close, so they get through before the write lock.
	d.mu.Lock()
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	drain := time.AfterFunc(d.drainTimeout, cancelDeliver)
	defer drain.Stop()
	wg.Wait()
	return nil
}

// deliver hands event to each sink, retrying every sink independently.
func (d *Dispatcher) deliver(ctx context.Context, event Event) {
	for _, sink := range d.sinks {
		attempt := func() error { return sink.Deliver(ctx, event) }
		err := backoff.Retry(attempt, backoff.WithContext(d.buildBackoff(), ctx))
		d.metrics.recordDelivery(sink.Name(), err)
		if err != nil {
			d.logger.Error().Err(err).
				Str("sink", sink.Name()).
				Str("eventID", event.ID).
				Str("type", string(event.Type)).
				Int64("entryID", event.EntryID).
				Msg("Notification delivery failed")
		}
	}
}
