package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/securedoc/account-service/internal/core/domain"
	"github.com/securedoc/account-service/internal/core/ports"
	"github.com/securedoc/account-service/internal/pkg/metrics"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// ErrDispatcherStopped is returned by Publish once Stop has been called.
var ErrDispatcherStopped = errors.New("event dispatcher stopped")

var _ ports.EventPublisher = (*Dispatcher)(nil)

// Dispatcher routes user events to a fixed set of workers using consistent
// hashing on the user's email, guaranteeing per-user event ordering. Every
// event is handed to each registered handler in registration order.
type Dispatcher struct {
	workers  []chan domain.UserEvent
	handlers []ports.EventHandler
	log      zerolog.Logger

	// quit is closed first by Stop so publishers blocked on a full shard let
	// go of mu.
	quit     chan struct{}
	quitOnce sync.Once

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, log zerolog.Logger, handlers ...ports.EventHandler) *Dispatcher {
	return newDispatcher(numWorkers, channelBuffer, log, handlers...)
}

func newDispatcher(numWorkers, buffer int, log zerolog.Logger, handlers ...ports.EventHandler) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:  make([]chan domain.UserEvent, numWorkers),
		handlers: handlers,
		log:      log,
		quit:     make(chan struct{}),
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.UserEvent, buffer)
	}
	return d
}

// Start launches all worker goroutines. Handlers receive ctx; cancelling it
// stops the workers and abandons whatever is still queued. Use Stop for a
// draining shutdown.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Publish queues an event for the worker responsible for its user. It only
// blocks while that worker's buffer is full, and gives up when ctx is done.
func (d *Dispatcher) Publish(ctx context.Context, event domain.UserEvent) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		metrics.EventsPublishedTotal.WithLabelValues(string(event.Type), "dropped").Inc()
		return ErrDispatcherStopped
	}

	idx := d.shardIndex(event.User.Email)
	select {
	case d.workers[idx] <- event:
		metrics.EventsPublishedTotal.WithLabelValues(string(event.Type), "queued").Inc()
		metrics.EventsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
		return nil
	case <-d.quit:
		metrics.EventsPublishedTotal.WithLabelValues(string(event.Type), "dropped").Inc()
		return ErrDispatcherStopped
	case <-ctx.Done():
		metrics.EventsPublishedTotal.WithLabelValues(string(event.Type), "dropped").Inc()
		return ctx.Err()
	}
}

// Stop rejects new events, lets the workers finish everything already queued
// and waits for them to exit. It is safe to call more than once.
func (d *Dispatcher) Stop() {
	d.quitOnce.Do(func() { close(d.quit) })

	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	for _, ch := range d.workers {
		close(ch)
	}
	d.mu.Unlock()

	d.wg.Wait()
}

// shardIndex maps an email deterministically to a worker index.
func (d *Dispatcher) shardIndex(email string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(email))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.UserEvent) {
	defer d.wg.Done()
	workerID := strconv.Itoa(id)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			metrics.EventsQueueDepth.WithLabelValues(workerID).Set(float64(len(ch)))
			d.dispatch(ctx, id, event)
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, workerID int, event domain.UserEvent) {
	start := time.Now()
	for _, h := range d.handlers {
		if err := d.invoke(ctx, h, event); err != nil {
			metrics.EventHandlerErrorsTotal.WithLabelValues(string(event.Type)).Inc()
			d.log.Error().Err(err).
				Str("event_id", event.ID).
				Str("event_type", string(event.Type)).
				Str("user_id", event.User.UserID).
				Int("worker_id", workerID).
				Msg("event handling failed")
		}
	}
	metrics.EventProcessingDuration.WithLabelValues(string(event.Type)).Observe(time.Since(start).Seconds())
}

// invoke isolates a panicking handler so it cannot take the worker down.
func (d *Dispatcher) invoke(ctx context.Context, h ports.EventHandler, event domain.UserEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("event handler panicked")
			d.log.Error().Interface("panic", r).Str("event_type", string(event.Type)).Msg("recovered from handler panic")
		}
	}()
	return h.Handle(ctx, event)
}
