package editor

import (
	"golang.org/x/time/rate"

	"github.com/okian/podium/internal/domain/auth"
	"github.com/okian/podium/pkg/logger"
)

// Option configures a Server.
type Option func(*Server)

// WithCredentials sets the editor account. hash is the hex SHA-256 of the
// password.
func WithCredentials(user, hash string) Option {
	return func(s *Server) {
		s.user = user
		s.passwordHash = hash
	}
}

// WithTokens replaces the default token store.
func WithTokens(tokens auth.Tokens) Option {
	return func(s *Server) {
		if tokens != nil {
			s.tokens = tokens
		}
	}
}

// WithLoginRate limits login attempts to perSec with the given burst.
func WithLoginRate(perSec float64, burst int) Option {
	return func(s *Server) {
		if perSec > 0 && burst > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(perSec), burst)
		}
	}
}

// WithReloader asks r for a reload after results are saved.
func WithReloader(r Reloader) Option {
	return func(s *Server) {
		s.reloader = r
	}
}

// WithMaxBodyBytes caps request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}
