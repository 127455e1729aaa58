package fixtures

import "time"

// Config holds configuration for a generator run.
type Config struct {
	BaseURL     string        // Base URL of a running dashboard, empty skips verification
	Output      string        // Output file for the generated document
	Rows        int           // Number of rows to generate
	Teams       int           // Number of distinct teams
	Disciplines int           // Number of distinct disciplines
	Seed        uint64        // Seed for the row generator
	English     bool          // Use English keys instead of the German ones
	Malformed   float64       // Share of rows carrying a degenerate value, 0..1
	Timeout     time.Duration // HTTP request timeout
	Settle      time.Duration // How long to wait for the server to pick up the file
	Verbose     bool          // Log every mismatch
}

// Stats holds run statistics.
type Stats struct {
	RowsGenerated    int
	MalformedRows    int
	LeaderboardTeams int
	Mismatches       int
	SnapshotVersion  float64
	Reloads          float64
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
