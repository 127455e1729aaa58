package service

import "errors"

var (
	// ErrNoSource is returned by Start when no results source was configured.
	ErrNoSource = errors.New("no results source configured")

	// ErrLoadSource wraps failures to read or decode the results source.
	ErrLoadSource = errors.New("load results source")

	// ErrPublish wraps failures to publish a snapshot.
	ErrPublish = errors.New("publish snapshot")
)
