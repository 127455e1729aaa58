package config_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/okian/podium/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

const testPasswordHash = "5e884898da28047151d0e56f8dc6292773603d0d6aabbdd62a11ef721d1542d8"

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":3000")
				convey.So(cfg.WatchMode, convey.ShouldEqual, "fsnotify")
				convey.So(cfg.PollIntervalMS, convey.ShouldEqual, 1000)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			setEnv(map[string]string{
				"PODIUM_ADDR":             ":8080",
				"PODIUM_RESULTS_PATH":     "/srv/results.yaml",
				"PODIUM_WATCH_MODE":       "poll",
				"PODIUM_POLL_INTERVAL_MS": "250",
				"PODIUM_ALLOWED_ORIGINS":  "https://a.example, https://b.example,",
			})
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.ResultsPath, convey.ShouldEqual, "/srv/results.yaml")
				convey.So(cfg.WatchMode, convey.ShouldEqual, config.WatchPoll)
				convey.So(cfg.PollIntervalMS, convey.ShouldEqual, 250)
				convey.So(cfg.AllowedOrigins, convey.ShouldResemble, []string{"https://a.example", "https://b.example"})
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			tmpFile := createTempConfigFile(`
# dashboard
addr: ":9090"   # inline comment
reload_queue_size: 8
allowed_origins:
  - https://scores.example
editor_addr: ":3001"
editor_user: admin
editor_password_sha256: ` + testPasswordHash + `
`)
			defer func() { _ = os.Remove(tmpFile) }()
			setEnv(map[string]string{"PODIUM_CONFIG": tmpFile})
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.ReloadQueueSize, convey.ShouldEqual, 8)
				convey.So(cfg.AllowedOrigins, convey.ShouldResemble, []string{"https://scores.example"})
				convey.So(cfg.EditorAddr, convey.ShouldEqual, ":3001")
				convey.So(cfg.EditorUser, convey.ShouldEqual, "admin")
				convey.So(cfg.MaxLeaderboardLimit, convey.ShouldEqual, 100) // from defaults
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile("addr: \":9090\"\nreload_queue_size: 8\n")
			defer func() { _ = os.Remove(tmpFile) }()
			setEnv(map[string]string{
				"PODIUM_CONFIG": tmpFile,
				"PODIUM_ADDR":   ":8080",
			})
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.ReloadQueueSize, convey.ShouldEqual, 8)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			setEnv(map[string]string{"PODIUM_CONFIG": tmpFile})
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			setEnv(map[string]string{"PODIUM_CONFIG": "/non/existent/file.yaml"})
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			setEnv(map[string]string{"PODIUM_RELOAD_QUEUE_SIZE": "many"})
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestConfigValidation(t *testing.T) {
	convey.Convey("Given config validation", t, func() {
		ctx := context.Background()
		defer clearConfigEnvVars()

		cases := []struct {
			name string
			env  map[string]string
		}{
			{"empty addr", map[string]string{"PODIUM_ADDR": ""}},
			{"unknown watch mode", map[string]string{"PODIUM_WATCH_MODE": "inotify"}},
			{"zero poll interval", map[string]string{"PODIUM_POLL_INTERVAL_MS": "0"}},
			{"negative queue size", map[string]string{"PODIUM_RELOAD_QUEUE_SIZE": "-1"}},
			{"unknown log level", map[string]string{"PODIUM_LOG_LEVEL": "loud"}},
			{"unknown log format", map[string]string{"PODIUM_LOG_FORMAT": "xml"}},
			{"unknown zone", map[string]string{"PODIUM_TIME_ZONE": "Mars/Olympus"}},
			{"editor without credentials", map[string]string{"PODIUM_EDITOR_ADDR": ":3001"}},
			{"malformed password hash", map[string]string{
				"PODIUM_EDITOR_ADDR":            ":3001",
				"PODIUM_EDITOR_USER":            "admin",
				"PODIUM_EDITOR_PASSWORD_SHA256": "secret",
			}},
			{"redirect without target", map[string]string{"PODIUM_REDIRECT_ADDR": ":3002"}},
			{"redirect to a non-url", map[string]string{
				"PODIUM_REDIRECT_ADDR":   ":3002",
				"PODIUM_REDIRECT_TARGET": "not a url",
			}},
		}

		for _, c := range cases {
			convey.Convey("When the config has "+c.name, func() {
				clearConfigEnvVars()
				setEnv(c.env)

				cfg, err := config.Load(ctx)

				convey.Convey("Then it is rejected as invalid", func() {
					convey.So(cfg, convey.ShouldBeNil)
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				})
			})
		}

		convey.Convey("When the editor is fully configured", func() {
			clearConfigEnvVars()
			setEnv(map[string]string{
				"PODIUM_EDITOR_ADDR":            ":3001",
				"PODIUM_EDITOR_USER":            "admin",
				"PODIUM_EDITOR_PASSWORD_SHA256": strings.ToUpper(testPasswordHash),
			})

			cfg, err := config.Load(ctx)

			convey.Convey("Then it loads", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.EditorUser, convey.ShouldEqual, "admin")
			})
		})
	})
}

// Helper functions.

func setEnv(vars map[string]string) {
	for k, v := range vars {
		_ = os.Setenv(k, v)
	}
}

func clearConfigEnvVars() {
	for _, kv := range os.Environ() {
		if name, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(name, config.EnvPrefix) {
			_ = os.Unsetenv(name)
		}
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "podium-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
