package api

import (
	"context"
	"net/http"
	"time"

	"github.com/okian/podium/internal/domain/results"
)

// LastUpdateLayout renders lastUpdate as day.month.year, 24h time.
const LastUpdateLayout = "2.1.2006, 15:04:05"

// StatsDependencies supplies the headline counters.
type StatsDependencies interface {
	Stats(ctx context.Context) results.Stats
}

type statsResponse struct {
	results.Stats
	LastUpdate string `json:"lastUpdate"`
}

// StatsHandler handles dashboard stats requests.
type StatsHandler struct {
	deps StatsDependencies
	loc  *time.Location
	now  func() time.Time
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(deps StatsDependencies, loc *time.Location, now func() time.Time) *StatsHandler {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &StatsHandler{deps: deps, loc: loc, now: now}
}

// HandleStats handles GET /api/stats requests. lastUpdate is the time of
// the request, not of the last reload.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		Stats:      h.deps.Stats(r.Context()),
		LastUpdate: h.now().In(h.loc).Format(LastUpdateLayout),
	})
}

// StatusProvider defines the interface for getting service statistics.
type StatusProvider interface {
	GetStats() map[string]interface{}
}

// StatusHandler handles service status requests.
type StatusHandler struct {
	statusProvider StatusProvider
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(statusProvider StatusProvider) *StatusHandler {
	return &StatusHandler{statusProvider: statusProvider}
}

// HandleStatus handles GET /api/status requests.
func (h *StatusHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.statusProvider.GetStats())
}
