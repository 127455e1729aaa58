package fixtures

import "errors"

var (
	// ErrNoRows is returned when a run would write an empty document.
	ErrNoRows = errors.New("no rows to write")
	// ErrUnhealthy is returned when the dashboard health check fails.
	ErrUnhealthy = errors.New("service unhealthy")
	// ErrMismatch is returned when the served leaderboard differs from the local aggregation.
	ErrMismatch = errors.New("leaderboard mismatch")
	// ErrNotSettled is returned when the server never reflects the written file.
	ErrNotSettled = errors.New("server did not pick up the document")
)
