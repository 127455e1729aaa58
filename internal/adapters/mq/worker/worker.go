// Package worker drains reload events and hands them to a Reloader one at
// a time, keeping snapshot publication single-writer.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

// Event abstracts what workers read off the queue.
type Event = model.ReloadEvent

// Reloader rebuilds and publishes the snapshot.
type Reloader interface {
	Reload(ctx context.Context, ev Event) error
}

// Queue defines how workers receive events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
}

// Worker processes reload events.
type Worker interface {
	// Run starts the worker loop until ctx is canceled, Shutdown is called
	// or the queue is closed.
	Run(ctx context.Context)

	// Shutdown stops the worker and waits for the loop to exit.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for a single consumer.
type InMemoryWorker struct {
	queue    Queue
	reloader Reloader
	name     string
	coalesce bool

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	mu        sync.Mutex
	processed int64
	coalesced int64

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, reloader Reloader, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		reloader: reloader,
		name:     "reloader",
		coalesce: true,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	eventChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if w.coalesce {
				event = w.drain(eventChan, event)
			}
			if err := w.processEvent(ctx, event); err != nil {
				w.logger.Error(ctx, "reload failed",
					logger.String("id", event.ID),
					logger.String("reason", string(event.Reason)),
					logger.Error(err),
				)
			}
		}
	}
}

// drain swallows events that are already waiting, since one reload covers
// them all. The last one seen is returned so logs name the newest trigger.
func (w *InMemoryWorker) drain(ch <-chan Event, first Event) Event {
	latest := first
	for {
		select {
		case next, ok := <-ch:
			if !ok {
				return latest
			}
			w.mu.Lock()
			w.coalesced++
			w.mu.Unlock()
			latest = next
		default:
			return latest
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed once Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

// Stats reports how many events were processed and how many were folded
// into a neighbouring reload.
func (w *InMemoryWorker) Stats() (processed, coalesced int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.processed, w.coalesced
}

// processEvent handles a single event.
func (w *InMemoryWorker) processEvent(ctx context.Context, event Event) error {
	start := time.Now()
	err := w.reloader.Reload(ctx, event)

	w.mu.Lock()
	w.processed++
	w.mu.Unlock()

	if err != nil {
		metrics.RecordErrorByComponent("worker", "reload_failed")
		return fmt.Errorf("reload %s: %w", event.ID, err)
	}
	w.logger.Debug(ctx, "reload processed",
		logger.String("id", event.ID),
		logger.String("reason", string(event.Reason)),
		logger.Duration("took", time.Since(start)),
	)
	return nil
}
