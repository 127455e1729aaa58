package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/podium/internal/domain/results"
	"github.com/okian/podium/pkg/metrics"
)

// published pairs a snapshot with its metadata and a name index so that
// readers get all three from one atomic load.
type published struct {
	snap      *results.Snapshot
	meta      PublishMeta
	teamIndex map[string]int // team name -> leaderboard position
}

// SnapshotStore implements Store with an atomic pointer swap.
type SnapshotStore struct {
	mu      sync.Mutex // serialises writers
	current atomic.Pointer[published]
	now     func() time.Time
}

// NewSnapshotStore constructs a store holding an empty snapshot at version 0.
func NewSnapshotStore(opts ...Option) *SnapshotStore {
	s := &SnapshotStore{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	empty := results.Empty()
	s.current.Store(&published{snap: &empty, teamIndex: map[string]int{}})
	return s
}

// Publish implements Store.Publish.
func (s *SnapshotStore) Publish(_ context.Context, snap *results.Snapshot) (PublishMeta, error) {
	if snap == nil {
		metrics.RecordErrorByComponent("repository", "nil_snapshot")
		return PublishMeta{}, ErrNilSnapshot
	}

	index := make(map[string]int, len(snap.Leaderboard))
	for i, entry := range snap.Leaderboard {
		index[entry.Name] = i
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	meta := PublishMeta{
		Version:     s.current.Load().meta.Version + 1,
		PublishedAt: s.now(),
	}
	s.current.Store(&published{snap: snap, meta: meta, teamIndex: index})

	metrics.UpdateSnapshot(snap.TotalParticipants, snap.TotalEvents, snap.TotalDisciplines(), meta.Version, meta.PublishedAt)
	return meta, nil
}

// Current implements Store.Current.
func (s *SnapshotStore) Current(_ context.Context) *results.Snapshot {
	return s.current.Load().snap
}

// Meta implements Store.Meta.
func (s *SnapshotStore) Meta(_ context.Context) PublishMeta {
	return s.current.Load().meta
}

// Team implements Store.Team in O(1).
func (s *SnapshotStore) Team(_ context.Context, name string) (results.TeamAggregate, error) {
	p := s.current.Load()
	i, ok := p.teamIndex[name]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return results.TeamAggregate{}, ErrNotFound
	}
	return p.snap.Leaderboard[i], nil
}

// TopN implements Store.TopN.
func (s *SnapshotStore) TopN(_ context.Context, n int) ([]results.TeamAggregate, error) {
	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}
	board := s.current.Load().snap.Leaderboard
	if n > len(board) {
		n = len(board)
	}
	out := make([]results.TeamAggregate, n)
	copy(out, board[:n])
	return out, nil
}
