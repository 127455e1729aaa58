package fixtures

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/podium/internal/domain/results"
	"github.com/okian/podium/pkg/logger"
)

// Mismatch describes one leaderboard position where the served board and
// the local aggregation disagree.
type Mismatch struct {
	Position int
	Want     results.TeamAggregate
	Got      results.TeamAggregate
	Reason   string
}

// Compare checks want against got position by position on name, total
// points, event count and rank.
func Compare(want, got []results.TeamAggregate) []Mismatch {
	var out []Mismatch
	n := max(len(want), len(got))
	for i := 0; i < n; i++ {
		switch {
		case i >= len(got):
			out = append(out, Mismatch{Position: i + 1, Want: want[i], Reason: "missing"})
			continue
		case i >= len(want):
			out = append(out, Mismatch{Position: i + 1, Got: got[i], Reason: "unexpected"})
			continue
		}
		w, g := want[i], got[i]
		switch {
		case w.Name != g.Name:
			out = append(out, Mismatch{Position: i + 1, Want: w, Got: g, Reason: "name"})
		case w.TotalPoints != g.TotalPoints:
			out = append(out, Mismatch{Position: i + 1, Want: w, Got: g, Reason: "totalPoints"})
		case w.Events != g.Events:
			out = append(out, Mismatch{Position: i + 1, Want: w, Got: g, Reason: "events"})
		case w.Rank != g.Rank:
			out = append(out, Mismatch{Position: i + 1, Want: w, Got: g, Reason: "rank"})
		}
	}
	return out
}

// Verify compares the leaderboard served by client with a local
// aggregation of rows. It returns ErrMismatch when they differ.
func Verify(ctx context.Context, client *HTTPClient, rows []results.RawRecord, verbose bool) (int, error) {
	log := logger.Get().Named("fixtures")
	want := results.Aggregate(rows).Leaderboard
	got, err := client.Leaderboard(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch leaderboard: %w", err)
	}

	mismatches := Compare(want, got)
	if verbose {
		for _, m := range mismatches {
			log.Warn(ctx, "leaderboard mismatch",
				logger.Int("position", m.Position),
				logger.String("reason", m.Reason),
				logger.String("want", m.Want.Name),
				logger.String("got", m.Got.Name))
		}
	}
	if len(mismatches) > 0 {
		return len(mismatches), fmt.Errorf("%w: %d of %d positions differ", ErrMismatch, len(mismatches), len(want))
	}
	log.Info(ctx, "leaderboard verified", logger.Int("teams", len(got)))
	return 0, nil
}

// WaitForEvents polls /api/stats until the server reports events total
// events or timeout elapses.
func WaitForEvents(ctx context.Context, client *HTTPClient, events int, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ticker := time.NewTicker(settlePoll)
	defer ticker.Stop()
	for {
		st, err := client.Stats(ctx)
		if err == nil && st.TotalEvents == events {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: want %d events", ErrNotSettled, events)
		case <-ticker.C:
		}
	}
}
