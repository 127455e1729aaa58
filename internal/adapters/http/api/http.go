// Package api serves the read-only dashboard endpoints.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/okian/podium/internal/adapters/http/accesslog"
	"github.com/okian/podium/internal/domain/results"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Snapshot(ctx context.Context) *results.Snapshot
	Leaderboard(ctx context.Context, limit int) ([]results.TeamAggregate, error)
	Team(ctx context.Context, name string) (results.TeamAggregate, error)
	Disciplines(ctx context.Context) []results.DisciplineSummary
	Recent(ctx context.Context) []results.RecentResult
	Stats(ctx context.Context) results.Stats
}

// Server wires HTTP routes for the dashboard API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	statusHandler      *StatusHandler
	snapshotHandler    *SnapshotHandler
	leaderboardHandler *LeaderboardHandler
	teamHandler        *TeamHandler

	maxLimit  int
	loc       *time.Location
	now       func() time.Time
	origins   []string
	accessLog *accesslog.Writer
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statusProvider StatusProvider, opts ...Option) *Server {
	s := &Server{
		maxLimit: 100,
		loc:      time.UTC,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(deps, s.loc, s.now)
	s.statusHandler = NewStatusHandler(statusProvider)
	s.snapshotHandler = NewSnapshotHandler(deps)
	s.leaderboardHandler = NewLeaderboardHandler(deps, s.maxLimit)
	s.teamHandler = NewTeamHandler(deps)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/api/data", MetricsMiddleware(s.snapshotHandler.HandleData, "data"))
	mux.HandleFunc("/api/disciplines", MetricsMiddleware(s.snapshotHandler.HandleDisciplines, "disciplines"))
	mux.HandleFunc("/api/recent", MetricsMiddleware(s.snapshotHandler.HandleRecent, "recent"))
	mux.HandleFunc("/api/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/api/teams/", MetricsMiddleware(s.teamHandler.HandleGetTeam, "teams"))
	mux.HandleFunc("/api/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/status", MetricsMiddleware(s.statusHandler.HandleStatus, "status"))
}

// Wrap applies request ID, CORS and access logging to next.
func (s *Server) Wrap(next http.Handler) http.Handler {
	return Chain(next,
		RequestID(),
		CORS(s.origins),
		AccessLog(s.accessLog),
	)
}

type errorResponse struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
