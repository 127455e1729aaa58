package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/podium/internal/fixtures"
)

// Default configuration constants.
const (
	defaultOutput  = "data/results.json"
	defaultSeed    = 1
	defaultRunTime = 5 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", "", "Dashboard base URL; when set the served leaderboard is verified")
		output      = flag.String("out", defaultOutput, "Output file (.json, .yaml or .yml)")
		rows        = flag.Int("rows", fixtures.DefaultRows, "Number of rows to generate")
		teams       = flag.Int("teams", fixtures.DefaultTeams, "Number of distinct teams")
		disciplines = flag.Int("disciplines", fixtures.DefaultDisciplines, "Number of distinct disciplines")
		seed        = flag.Uint64("seed", defaultSeed, "Generator seed")
		english     = flag.Bool("english", false, "Use English keys")
		malformed   = flag.Float64("malformed", 0, "Share of rows with a degenerate value, 0..1")
		timeout     = flag.Duration("timeout", fixtures.DefaultTimeout, "HTTP request timeout")
		settle      = flag.Duration("settle", fixtures.DefaultSettle, "How long to wait for the dashboard to reload")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		fixtures.ShowHelp()
		return
	}

	if err := fixtures.SetupLogging(*verbose); err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTime)
	defer cancel()

	cfg := fixtures.Config{
		BaseURL:     *baseURL,
		Output:      *output,
		Rows:        *rows,
		Teams:       *teams,
		Disciplines: *disciplines,
		Seed:        *seed,
		English:     *english,
		Malformed:   *malformed,
		Timeout:     *timeout,
		Settle:      *settle,
		Verbose:     *verbose,
	}

	if _, err := fixtures.Run(ctx, cfg); err != nil {
		_, _ = os.Stderr.WriteString("Run failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
