// Package service wires the results source, the aggregation transform and
// the published snapshot together and exposes read accessors to the HTTP
// adapters.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	eventqueue "github.com/okian/podium/internal/adapters/mq/queue"
	"github.com/okian/podium/internal/adapters/mq/worker"
	"github.com/okian/podium/internal/adapters/repository"
	"github.com/okian/podium/internal/adapters/source"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/results"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

// Watch modes.
const (
	WatchFSNotify = "fsnotify"
	WatchPoll     = "poll"
	WatchOff      = "off"
)

const stopTimeout = 5 * time.Second

// Source is the results document.
type Source interface {
	Load(ctx context.Context) (any, error)
	Path() string
}

// Service keeps the published snapshot in sync with the results source.
type Service struct {
	mu sync.RWMutex

	// Core components
	source Source
	store  repository.Store
	queue  *eventqueue.InMemoryQueue
	worker *worker.InMemoryWorker

	// Configuration
	queueSize    int
	watchMode    string
	pollInterval time.Duration
	now          func() time.Time

	// State
	started  bool
	cancel   context.CancelFunc
	watchers sync.WaitGroup

	logger logger.Logger
	tracer trace.Tracer
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		queueSize:    64,
		watchMode:    WatchFSNotify,
		pollInterval: time.Second,
		now:          time.Now,
		tracer:       otel.Tracer("podium-service"),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		s.store = repository.NewSnapshotStore()
	}
	return s
}

// Start publishes the initial snapshot and starts the reload worker and
// the source watcher. The background goroutines outlive ctx and stop with
// Stop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.source == nil {
		return ErrNoSource
	}

	s.logger.Info(ctx, "starting results service...", logger.String("path", s.source.Path()))

	if err := s.Reload(ctx, s.event(model.ReasonStartup)); err != nil {
		s.logger.Error(ctx, "initial load failed, serving empty snapshot", logger.Error(err))
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.worker = worker.NewInMemoryWorker(s.queue, s, worker.WithLogger(s.logger.Named("worker")))
	go s.worker.Run(runCtx)

	if s.watchMode != WatchOff {
		s.watchers.Add(1)
		go func() {
			defer s.watchers.Done()
			s.watch(runCtx)
		}()
	}

	s.started = true
	s.logger.Info(ctx, "results service started",
		logger.String("watchMode", s.watchMode),
		logger.Int("queueSize", s.queueSize),
	)
	return nil
}

// watch runs the configured change detector. If fsnotify cannot be set
// up it falls back to polling.
func (s *Service) watch(ctx context.Context) {
	path := s.source.Path()
	if s.watchMode == WatchFSNotify {
		err := source.Watch(ctx, path, s.notify(model.ReasonFSChange))
		if err == nil || ctx.Err() != nil {
			return
		}
		metrics.RecordErrorByComponent("service", "watch_failed")
		s.logger.Warn(ctx, "fsnotify unavailable, falling back to polling",
			logger.String("path", path),
			logger.Error(err),
		)
	}
	if err := source.Poll(ctx, path, s.pollInterval, s.notify(model.ReasonPollChange)); err != nil && ctx.Err() == nil {
		s.logger.Error(ctx, "poller stopped", logger.Error(err))
	}
}

func (s *Service) notify(reason model.Reason) source.Notify {
	return func(ctx context.Context, _ string) {
		s.Enqueue(ctx, reason)
	}
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	// Watchers call Enqueue, which takes the read lock, so they are
	// drained without holding mu.
	s.started = false
	cancel, q, w := s.cancel, s.queue, s.worker
	s.mu.Unlock()

	ctx, cancelTimeout := context.WithTimeout(context.Background(), stopTimeout)
	defer cancelTimeout()

	s.logger.Info(ctx, "stopping results service...")

	cancel()
	s.watchers.Wait()
	_ = q.Close()
	if err := w.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker did not stop in time", logger.Error(err))
	}

	s.logger.Info(ctx, "results service stopped")
}

// Enqueue requests an asynchronous reload. It returns false when the
// service is not running or the queue is full; in the latter case a
// reload is already pending.
func (s *Service) Enqueue(ctx context.Context, reason model.Reason) bool {
	s.mu.RLock()
	q := s.queue
	started := s.started
	s.mu.RUnlock()

	if !started {
		return false
	}
	ev := s.event(reason)
	if !q.Enqueue(ctx, ev) {
		s.logger.Warn(ctx, "reload queue full, relying on pending reload",
			logger.String("reason", string(reason)),
		)
		return false
	}
	s.logger.Debug(ctx, "reload enqueued",
		logger.String("id", ev.ID),
		logger.String("reason", string(reason)),
	)
	return true
}

func (s *Service) event(reason model.Reason) model.ReloadEvent {
	return model.NewReloadEvent(reason, s.source.Path(), s.now())
}

// Reload loads the source, aggregates it and publishes the result.
//
// A load failure keeps the previous snapshot, except at startup where a
// missing file publishes an empty one. A structural aggregation error is
// published as is so the dashboard can show it.
func (s *Service) Reload(ctx context.Context, ev model.ReloadEvent) error {
	if s.source == nil {
		return ErrNoSource
	}
	ctx, span := s.tracer.Start(ctx, "Service.Reload", trace.WithAttributes(
		attribute.String("reason", string(ev.Reason)),
		attribute.String("path", s.source.Path()),
	))
	defer span.End()

	log := s.log()
	reason := string(ev.Reason)

	raw, err := s.source.Load(ctx)
	if err != nil {
		if errors.Is(err, source.ErrSourceNotFound) && ev.Reason == model.ReasonStartup {
			log.Warn(ctx, "results source missing, publishing empty snapshot",
				logger.String("path", s.source.Path()),
			)
			empty := results.Empty()
			if _, err := s.store.Publish(ctx, &empty); err != nil {
				return s.fail(span, reason, "publish_failed", fmt.Errorf("%w: %v", ErrPublish, err))
			}
			metrics.RecordReload(reason, "missing")
			span.SetAttributes(attribute.String("outcome", "missing"))
			return nil
		}
		return s.fail(span, reason, "load_failed", fmt.Errorf("%w: %v", ErrLoadSource, err))
	}

	start := time.Now()
	snap := results.Aggregate(raw)
	metrics.RecordAggregationLatency(float64(time.Since(start).Microseconds()) / 1000)

	outcome := "ok"
	if snap.Error != "" {
		outcome = "structural_error"
		metrics.RecordStructuralError()
		log.Warn(ctx, "results rejected", logger.String("error", snap.Error))
	}

	meta, err := s.store.Publish(ctx, &snap)
	if err != nil {
		return s.fail(span, reason, "publish_failed", fmt.Errorf("%w: %v", ErrPublish, err))
	}

	metrics.RecordReload(reason, outcome)
	span.SetAttributes(
		attribute.String("outcome", outcome),
		attribute.Int("records", snap.TotalEvents),
		attribute.Int64("version", int64(meta.Version)),
	)
	log.Info(ctx, "snapshot published",
		logger.String("reason", reason),
		logger.Int("teams", snap.TotalParticipants),
		logger.Int("events", snap.TotalEvents),
		logger.Int64("version", int64(meta.Version)),
	)
	return nil
}

func (s *Service) fail(span trace.Span, reason, outcome string, err error) error {
	metrics.RecordReload(reason, outcome)
	span.RecordError(err)
	span.SetStatus(codes.Error, outcome)
	span.SetAttributes(attribute.String("outcome", outcome))
	return err
}

func (s *Service) log() logger.Logger {
	if s.logger != nil {
		return s.logger
	}
	return logger.Get().Named("service")
}

// Snapshot returns the published snapshot.
func (s *Service) Snapshot(ctx context.Context) *results.Snapshot {
	return s.store.Current(ctx)
}

// Meta returns version and publication time of the published snapshot.
func (s *Service) Meta(ctx context.Context) repository.PublishMeta {
	return s.store.Meta(ctx)
}

// Leaderboard returns the ranked teams. A limit of 0 or less returns the
// whole board.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]results.TeamAggregate, error) {
	if limit <= 0 {
		return s.store.Current(ctx).Leaderboard, nil
	}
	return s.store.TopN(ctx, limit)
}

// Team returns one leaderboard entry.
func (s *Service) Team(ctx context.Context, name string) (results.TeamAggregate, error) {
	return s.store.Team(ctx, name)
}

// Disciplines returns the per-discipline summaries.
func (s *Service) Disciplines(ctx context.Context) []results.DisciplineSummary {
	return s.store.Current(ctx).Disciplines
}

// Recent returns the newest results.
func (s *Service) Recent(ctx context.Context) []results.RecentResult {
	return s.store.Current(ctx).RecentResults
}

// Stats returns the headline counters of the published snapshot.
func (s *Service) Stats(ctx context.Context) results.Stats {
	return s.store.Current(ctx).Stats()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	meta := s.store.Meta(ctx)
	stats := map[string]interface{}{
		"started":         s.started,
		"watchMode":       s.watchMode,
		"queueSize":       s.queueSize,
		"snapshotVersion": meta.Version,
		"publishedAt":     meta.PublishedAt,
	}
	if s.source != nil {
		stats["path"] = s.source.Path()
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		processed, coalesced := s.worker.Stats()

		stats["queueLength"] = queueLen
		stats["reloadsProcessed"] = processed
		stats["reloadsCoalesced"] = coalesced

		metrics.UpdateQueueSize(queueLen)
	}

	return stats
}
