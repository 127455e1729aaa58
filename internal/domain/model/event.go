// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Reason names what triggered a reload.
type Reason string

// Reload reasons.
const (
	ReasonStartup    Reason = "startup"
	ReasonFSChange   Reason = "fs_change"
	ReasonPollChange Reason = "poll_change"
	ReasonEditorSave Reason = "editor_save"
	ReasonManual     Reason = "manual"
)

// ReloadEvent asks the service to re-read the results source and publish
// a fresh snapshot.
type ReloadEvent struct {
	ID     string    // unique id, used for log correlation
	Reason Reason    // what triggered the reload
	Path   string    // source path that changed, may be empty
	At     time.Time // when the trigger was observed
}

// NewReloadEvent stamps a reload event with a fresh id.
func NewReloadEvent(reason Reason, path string, at time.Time) ReloadEvent {
	return ReloadEvent{
		ID:     uuid.NewString(),
		Reason: reason,
		Path:   path,
		At:     at,
	}
}
