// Package dispatch fans link-open events out to subscribers.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/linkfence/linkfence/internal/guard/common/log"
	"github.com/linkfence/linkfence/internal/guard/domain"
)

// Handler consumes one link-open event.
type Handler func(domain.LinkOpenEvent)

// ErrStopped is returned when the dispatcher no longer accepts work.
var ErrStopped = errors.New("dispatcher is stopped")

// DefaultQueueSize is the per-subscriber queue capacity when none is configured.
const DefaultQueueSize = 128

// dropWarnEvery bounds how often queue-overflow warnings are emitted,
// so one stuck subscriber cannot flood the log.
const dropWarnEvery = 5 * time.Second

// Options configure a Dispatcher.
type Options struct {
	QueueSize int        // per-subscriber buffer capacity; <= 0 uses DefaultQueueSize
	Logger    log.Logger // nil uses the package global
}

// subscriber owns one bounded FIFO queue and the goroutine draining it.
type subscriber struct {
	token   string
	handler Handler
	queue   chan domain.LinkOpenEvent
	mu      sync.Mutex // serializes producer-side queue manipulation
}

// Dispatcher delivers each published event to every registered subscriber.
// Each subscriber gets its own bounded queue and delivery goroutine: a slow
// subscriber delays only itself, and Publish never waits on delivery. When a
// queue is full, the oldest undelivered event is dropped to make room.
type Dispatcher struct {
	mu        sync.RWMutex
	subs      map[string]*subscriber
	queueSize int
	logger    log.Logger
	dropWarn  *rate.Limiter
	stopped   bool
	wg        sync.WaitGroup

	published uint64
	dropped   uint64
}

// New creates a Dispatcher.
func New(opts Options) *Dispatcher {
	size := opts.QueueSize
	if size <= 0 {
		size = DefaultQueueSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.GetLogger()
	}
	return &Dispatcher{
		subs:      make(map[string]*subscriber),
		queueSize: size,
		logger:    logger,
		dropWarn:  rate.NewLimiter(rate.Every(dropWarnEvery), 1),
	}
}

// Subscribe registers a handler and returns an opaque subscription token.
// Events published before the subscription are not delivered to it.
func (d *Dispatcher) Subscribe(h Handler) (string, error) {
	if h == nil {
		return "", errors.New("subscribe requires a non-nil handler")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return "", ErrStopped
	}

	s := &subscriber{
		token:   uuid.NewString(),
		handler: h,
		queue:   make(chan domain.LinkOpenEvent, d.queueSize),
	}
	d.subs[s.token] = s

	d.wg.Add(1)
	go d.deliver(s)

	return s.token, nil
}

// Unsubscribe removes a subscription. Events already queued for it are still
// delivered before its delivery goroutine exits. Unknown tokens and calls
// after Stop are no-ops.
func (d *Dispatcher) Unsubscribe(token string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	s, ok := d.subs[token]
	if !ok {
		return
	}
	delete(d.subs, token)
	close(s.queue)
}

// Publish enqueues the event for every current subscriber and returns
// without waiting for delivery. After Stop it returns ErrStopped.
func (d *Dispatcher) Publish(e domain.LinkOpenEvent) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return ErrStopped
	}

	atomic.AddUint64(&d.published, 1)
	for _, s := range d.subs {
		if s.enqueue(e) {
			atomic.AddUint64(&d.dropped, 1)
			if d.dropWarn.Allow() {
				d.logger.Warn(map[string]any{
					"subscription": s.token,
					"url":          e.URL,
					"offset":       e.Offset,
				}, "subscriber queue full, dropped oldest event")
			}
		}
	}
	return nil
}

// Stop rejects further publishes and subscriptions, closes all queues, and
// waits for queued events to drain. It returns an error when the context
// expires before the drain completes. Safe to call multiple times.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	for _, s := range d.subs {
		close(s.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("dispatcher drain interrupted: %w", ctx.Err())
	}
}

// Stats returns cumulative publish and drop counters.
func (d *Dispatcher) Stats() (published, dropped uint64) {
	return atomic.LoadUint64(&d.published), atomic.LoadUint64(&d.dropped)
}

// enqueue appends the event to the subscriber's queue, evicting the oldest
// undelivered event when the queue is full. Returns true when an event was
// dropped. The producer mutex keeps eviction and insertion atomic relative
// to other publishers, so queue order stays FIFO.
func (s *subscriber) enqueue(e domain.LinkOpenEvent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := false
	for {
		select {
		case s.queue <- e:
			return dropped
		default:
		}
		select {
		case <-s.queue:
			dropped = true
		default:
			// Consumer drained concurrently; retry the send.
		}
	}
}

// deliver drains one subscriber queue until it is closed, containing any
// handler panics so a faulty subscriber keeps its subscription.
func (d *Dispatcher) deliver(s *subscriber) {
	defer d.wg.Done()
	for e := range s.queue {
		d.handle(s, e)
	}
}

func (d *Dispatcher) handle(s *subscriber, e domain.LinkOpenEvent) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error(map[string]any{
				"subscription": s.token,
				"url":          e.URL,
				"panic":        r,
			}, "subscriber panicked, event skipped")
		}
	}()
	s.handler(e)
}
