// Package repository publishes aggregated snapshots to concurrent readers.
package repository

import (
	"context"
	"time"

	"github.com/okian/podium/internal/domain/results"
)

// PublishMeta describes the currently published snapshot.
type PublishMeta struct {
	Version     uint64    `json:"version"`
	PublishedAt time.Time `json:"publishedAt"`
}

// Store holds the single published snapshot. One writer publishes, any
// number of readers observe either the previous or the new snapshot whole.
type Store interface {
	// Publish replaces the current snapshot. The caller must not mutate
	// snap afterwards.
	Publish(ctx context.Context, snap *results.Snapshot) (PublishMeta, error)

	// Current returns the published snapshot, or an empty one before the
	// first publication. Never nil.
	Current(ctx context.Context) *results.Snapshot

	// Meta returns version and publication time of Current.
	Meta(ctx context.Context) PublishMeta

	// Team returns the leaderboard entry for name.
	// Returns ErrNotFound if the team is unknown.
	Team(ctx context.Context, name string) (results.TeamAggregate, error)

	// TopN returns at most n leaderboard entries in rank order.
	TopN(ctx context.Context, n int) ([]results.TeamAggregate, error)
}
