package fixtures

import (
	"fmt"
	"os"

	"github.com/okian/podium/pkg/logger"
)

// SetupLogging initializes the global logger for the generator.
func SetupLogging(verbose bool) error {
	level := "info"
	if verbose {
		level = "debug"
	}
	if err := logger.Init(logger.WithLevel(level)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// ShowHelp prints usage information for the results generator.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Podium Results Generator
========================

Writes a realistic results document for the dashboard and optionally checks
that a running dashboard serves the same leaderboard.

USAGE:
    gen-results [OPTIONS]

OPTIONS:
    -out string         Output file, .json or .yaml (default "data/results.json")
    -rows int           Number of rows to generate (default 200)
    -teams int          Number of distinct teams, at most 16 (default 12)
    -disciplines int    Number of distinct disciplines, at most 10 (default 6)
    -seed uint          Generator seed, equal seeds give equal documents (default 1)
    -english            Use English keys (team, discipline, ...) instead of German ones
    -malformed float    Share of rows with a degenerate value, 0..1 (default 0)
    -url string         Dashboard base URL; when set the served leaderboard is verified
    -timeout duration   HTTP request timeout (default 10s)
    -settle duration    How long to wait for the dashboard to reload (default 15s)
    -verbose            Log every mismatch and enable debug output
    -help               Show this help message

EXAMPLES:
    # Write 500 German rows
    gen-results -rows 500 -out data/results.json

    # Write English rows with 5% noise and verify a local dashboard
    gen-results -english -malformed 0.05 -url http://localhost:3000

EXIT CODE:
    Non-zero when writing or verification fails.
`)
}
