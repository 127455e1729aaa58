package api

import (
	"time"

	"github.com/okian/podium/internal/adapters/http/accesslog"
)

// Option configures a Server.
type Option func(*Server)

// WithMaxLimit caps the ?limit parameter of /api/leaderboard.
func WithMaxLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithLocation sets the zone lastUpdate is rendered in.
func WithLocation(loc *time.Location) Option {
	return func(s *Server) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock overrides the time source for lastUpdate.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// WithAllowedOrigins sets the CORS allow-list.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		s.origins = append([]string(nil), origins...)
	}
}

// WithAccessLog appends one line per request to w.
func WithAccessLog(w *accesslog.Writer) Option {
	return func(s *Server) {
		s.accessLog = w
	}
}
