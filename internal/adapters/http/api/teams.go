package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/podium/internal/adapters/repository"
	"github.com/okian/podium/internal/domain/results"
)

// TeamDependencies defines the interface for team lookups.
type TeamDependencies interface {
	Team(ctx context.Context, name string) (results.TeamAggregate, error)
	Snapshot(ctx context.Context) *results.Snapshot
}

// TeamHandler handles single team requests.
type TeamHandler struct {
	deps TeamDependencies
}

// NewTeamHandler creates a new team handler.
func NewTeamHandler(deps TeamDependencies) *TeamHandler {
	return &TeamHandler{deps: deps}
}

// HandleGetTeam handles GET /api/teams/{name} requests.
func (h *TeamHandler) HandleGetTeam(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_team"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/api/teams/")
	if name == "" || strings.Contains(name, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	entry, err := h.deps.Team(r.Context(), name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			resp := errorResponse{Code: "not_found", Message: WrapKind(op, ErrNotFound, err).Error()}
			if near, ok := h.deps.Snapshot(r.Context()).ClosestTeam(name, results.SuggestDistance); ok {
				resp.Suggestion = near
			}
			writeJSON(w, http.StatusNotFound, resp)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
