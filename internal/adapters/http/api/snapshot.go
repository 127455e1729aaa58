package api

import (
	"context"
	"net/http"

	"github.com/okian/podium/internal/domain/results"
)

// SnapshotDependencies reads the published snapshot.
type SnapshotDependencies interface {
	Snapshot(ctx context.Context) *results.Snapshot
	Disciplines(ctx context.Context) []results.DisciplineSummary
	Recent(ctx context.Context) []results.RecentResult
}

// SnapshotHandler serves the snapshot and its slices.
type SnapshotHandler struct {
	deps SnapshotDependencies
}

// NewSnapshotHandler creates a new snapshot handler.
func NewSnapshotHandler(deps SnapshotDependencies) *SnapshotHandler {
	return &SnapshotHandler{deps: deps}
}

// HandleData handles GET /api/data requests.
func (h *SnapshotHandler) HandleData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Snapshot(r.Context()))
}

// HandleDisciplines handles GET /api/disciplines requests.
func (h *SnapshotHandler) HandleDisciplines(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	out := h.deps.Disciplines(r.Context())
	if out == nil {
		out = []results.DisciplineSummary{}
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleRecent handles GET /api/recent requests.
func (h *SnapshotHandler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	out := h.deps.Recent(r.Context())
	if out == nil {
		out = []results.RecentResult{}
	}
	writeJSON(w, http.StatusOK, out)
}
