package service

import (
	"time"

	"github.com/okian/podium/internal/adapters/repository"
	"github.com/okian/podium/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSource sets the results document the service aggregates.
func WithSource(src Source) Option {
	return func(s *Service) {
		if src != nil {
			s.source = src
		}
	}
}

// WithStore replaces the default snapshot store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithQueueSize sets the capacity of the reload queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithWatchMode selects how source changes are detected: WatchFSNotify,
// WatchPoll or WatchOff.
func WithWatchMode(mode string) Option {
	return func(s *Service) {
		switch mode {
		case WatchFSNotify, WatchPoll, WatchOff:
			s.watchMode = mode
		}
	}
}

// WithPollInterval sets the stat interval used in poll mode.
func WithPollInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source used for reload events.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
