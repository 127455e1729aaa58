// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) initializer to build a Config with defaults.
// - All functions accept context.Context as the first parameter.
// - Load and validation failures wrap this package's sentinel errors.
package config

import (
	"context"
	"time"
	_ "time/tzdata" // zone lookups must not depend on the host
)

// Watch modes for the results source.
const (
	WatchFSNotify = "fsnotify"
	WatchPoll     = "poll"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format" validate:"omitempty,oneof=text json"`

	// Addr configures the dashboard HTTP listen address, e.g. ":3000".
	Addr string `koanf:"addr" validate:"required"`

	// ResultsPath is the results document (.json, .yaml or .yml).
	ResultsPath string `koanf:"results_path" validate:"required"`

	// IconsPath is the discipline icon table served to the dashboard.
	IconsPath string `koanf:"icons_path" validate:"required"`

	// WatchMode selects how changes to ResultsPath are detected.
	WatchMode string `koanf:"watch_mode" validate:"oneof=fsnotify poll"`

	// PollIntervalMS is the stat interval in poll mode.
	PollIntervalMS int `koanf:"poll_interval_ms" validate:"gt=0"`

	// ReloadQueueSize bounds pending reload events.
	ReloadQueueSize int `koanf:"reload_queue_size" validate:"gt=0"`

	// MaxLeaderboardLimit caps GET /api/leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit" validate:"gt=0"`

	// AllowedOrigins lists origins that receive CORS headers.
	AllowedOrigins []string `koanf:"allowed_origins"`

	// AccessLogPath receives one line per API request; empty disables the file.
	AccessLogPath string `koanf:"access_log_path"`

	// EditorAddr enables the editor listener when set.
	EditorAddr string `koanf:"editor_addr"`

	// EditorUser and EditorPasswordSHA256 are the editor credentials.
	EditorUser           string `koanf:"editor_user"`
	EditorPasswordSHA256 string `koanf:"editor_password_sha256" validate:"omitempty,len=64,hexadecimal"`

	// EditorMaxTokens bounds concurrently valid editor sessions.
	EditorMaxTokens int `koanf:"editor_max_tokens" validate:"gt=0"`

	// LoginRatePerSec and LoginBurst limit login attempts.
	LoginRatePerSec float64 `koanf:"login_rate_per_sec" validate:"gt=0"`
	LoginBurst      int     `koanf:"login_burst" validate:"gt=0"`

	// RedirectAddr enables the visitor redirect listener when set.
	RedirectAddr string `koanf:"redirect_addr"`

	// RedirectTarget is where visitors are sent.
	RedirectTarget string `koanf:"redirect_target" validate:"omitempty,url"`

	// RedirectLogPath receives one line per visitor.
	RedirectLogPath string `koanf:"redirect_log_path"`

	// TimeZone is the IANA zone used for human readable timestamps.
	TimeZone string `koanf:"time_zone" validate:"required"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":3000",
		ResultsPath:         "data/results.json",
		IconsPath:           "data/emojiMap.json",
		WatchMode:           WatchFSNotify,
		PollIntervalMS:      1000,
		ReloadQueueSize:     64,
		MaxLeaderboardLimit: 100,
		AllowedOrigins:      []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AccessLogPath:       "data/api-logs.txt",
		EditorMaxTokens:     64,
		LoginRatePerSec:     1,
		LoginBurst:          5,
		RedirectLogPath:     "data/ip-logs.txt",
		TimeZone:            "Europe/Berlin",
	}
}

// PollInterval returns PollIntervalMS as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// Location resolves TimeZone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
