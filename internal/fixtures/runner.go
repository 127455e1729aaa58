package fixtures

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/podium/internal/adapters/source"
	"github.com/okian/podium/pkg/logger"
)

// Run generates a results document, writes it to cfg.Output and, when
// cfg.BaseURL is set, verifies that the running dashboard serves the same
// leaderboard.
func Run(ctx context.Context, cfg Config) (*Stats, error) {
	cfg = Normalize(cfg)
	log := logger.Get().Named("fixtures")
	stats := &Stats{StartTime: time.Now()}
	defer func() {
		stats.EndTime = time.Now()
		stats.Duration = stats.EndTime.Sub(stats.StartTime)
		displayFinalStats(ctx, stats)
	}()

	log.Info(ctx, "starting generator",
		logger.String("output", cfg.Output),
		logger.Int("rows", cfg.Rows),
		logger.Int("teams", cfg.Teams),
		logger.Int("disciplines", cfg.Disciplines),
		logger.Int64("seed", int64(cfg.Seed)),
		logger.Bool("english", cfg.English),
		logger.Float64("malformed", cfg.Malformed))

	var client *HTTPClient
	if cfg.BaseURL != "" {
		client = NewHTTPClient(cfg.BaseURL, cfg.Timeout)
		if err := client.Health(ctx); err != nil {
			return stats, err
		}
		log.Info(ctx, "service is healthy")
	}

	rows, malformed := Generate(cfg)
	stats.RowsGenerated = len(rows)
	stats.MalformedRows = malformed
	if len(rows) == 0 {
		return stats, ErrNoRows
	}

	if err := source.NewFileSource(cfg.Output).Save(ctx, rows); err != nil {
		return stats, fmt.Errorf("failed to write %s: %w", cfg.Output, err)
	}
	log.Info(ctx, "document written", logger.String("path", cfg.Output))

	if client == nil {
		return stats, nil
	}
	if err := WaitForEvents(ctx, client, len(rows), cfg.Settle); err != nil {
		return stats, err
	}
	n, err := Verify(ctx, client, rows, cfg.Verbose)
	stats.Mismatches = n
	if err != nil {
		return stats, err
	}
	board, err := client.Leaderboard(ctx)
	if err == nil {
		stats.LeaderboardTeams = len(board)
	}
	if version, reloads, err := client.ReloadStats(ctx); err != nil {
		log.Warn(ctx, "metrics unavailable", logger.Error(err))
	} else {
		stats.SnapshotVersion, stats.Reloads = version, reloads
	}
	log.Info(ctx, "run completed successfully")
	return stats, nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	logger.Get().Info(ctx, "final statistics",
		logger.Int("rowsGenerated", stats.RowsGenerated),
		logger.Int("malformedRows", stats.MalformedRows),
		logger.Int("leaderboardTeams", stats.LeaderboardTeams),
		logger.Int("mismatches", stats.Mismatches),
		logger.Float64("snapshotVersion", stats.SnapshotVersion),
		logger.Float64("reloads", stats.Reloads),
		logger.String("duration", stats.Duration.String()))
}
