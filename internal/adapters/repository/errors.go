package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound     = errors.New("team not found")
	ErrInvalidLimit = errors.New("invalid leaderboard limit")
	ErrNilSnapshot  = errors.New("nil snapshot")
)
