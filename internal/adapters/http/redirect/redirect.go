// Package redirect records visitor addresses and forwards them to a fixed
// target.
package redirect

import (
	"net/http"
	"time"

	"github.com/okian/podium/internal/adapters/http/accesslog"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

// Handler logs "<timestamp> - <ip>" per request and answers 302.
type Handler struct {
	target string
	log    *accesslog.Writer
	now    func() time.Time
}

// Option configures a Handler.
type Option func(*Handler)

// WithClock overrides the time source for log lines.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// NewHandler redirects every request to target.
func NewHandler(target string, log *accesslog.Writer, opts ...Option) *Handler {
	h := &Handler{target: target, log: log, now: time.Now}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP implements http.Handler. All methods and paths are treated
// alike.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ip := accesslog.ClientIP(r)
	h.log.WriteLine(r.Context(), accesslog.Stamp(h.now())+" - "+ip)
	metrics.RecordRedirect()
	logger.Get().Named("redirect").Debug(r.Context(), "redirect",
		logger.String("ip", ip),
		logger.String("target", h.target),
	)

	w.Header().Set("Location", h.target)
	w.WriteHeader(http.StatusFound)
}
