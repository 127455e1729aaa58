package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/podium/internal/adapters/http/api"
	"github.com/okian/podium/internal/adapters/source"
	app "github.com/okian/podium/internal/app"
	"github.com/okian/podium/internal/config"
	"github.com/okian/podium/internal/domain/results"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
	"github.com/smartystreets/goconvey/convey"
)

const secretHash = "2bb80d537b1da3e38bd30361aa855686bde0eacd7162fef6a25fe97bf527a25b"

func init() {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

// testConfig returns a validated-looking config rooted in a temp dir.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.New(context.Background())
	cfg.Addr = "127.0.0.1:0"
	cfg.ResultsPath = filepath.Join(dir, "results.json")
	cfg.IconsPath = filepath.Join(dir, "emojiMap.json")
	cfg.AccessLogPath = filepath.Join(dir, "api-logs.txt")
	cfg.RedirectLogPath = filepath.Join(dir, "ip-logs.txt")
	cfg.WatchMode = config.WatchPoll
	cfg.PollIntervalMS = 20
	cfg.EditorUser = "admin"
	cfg.EditorPasswordSHA256 = secretHash

	rows := `[{"Team":"A","Disziplin":"Quiz","Punkte":10,"Platz":2,"Uhr":"10:00"},` +
		`{"Team":"B","Disziplin":"Quiz","Punkte":20,"Platz":1,"Uhr":"10:05"}]`
	if err := os.WriteFile(cfg.ResultsPath, []byte(rows), 0o644); err != nil {
		t.Fatalf("write results: %v", err)
	}
	if err := os.WriteFile(cfg.IconsPath, []byte(`[{"Trigger":"Quiz","Emoji":"🧠"}]`), 0o644); err != nil {
		t.Fatalf("write icons: %v", err)
	}
	return cfg
}

func startService(t *testing.T, cfg *config.Config) *app.Service {
	t.Helper()
	svc := app.New(
		app.WithSource(source.NewFileSource(cfg.ResultsPath)),
		app.WithWatchMode(app.WatchOff),
	)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func TestConfigurationLoading(t *testing.T) {
	convey.Convey("Given environment overrides", t, func() {
		t.Setenv("PODIUM_ADDR", ":8080")
		t.Setenv("PODIUM_RELOAD_QUEUE_SIZE", "16")
		t.Setenv("PODIUM_WATCH_MODE", "poll")

		convey.Convey("Then configuration should be loadable", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.ReloadQueueSize, convey.ShouldEqual, 16)
			convey.So(cfg.WatchMode, convey.ShouldEqual, config.WatchPoll)
		})
	})

	convey.Convey("Given an invalid configuration", t, func() {
		t.Setenv("PODIUM_ADDR", "")

		convey.Convey("Then configuration loading should fail", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}

func TestDashboardHandler(t *testing.T) {
	convey.Convey("Given the dashboard handler", t, func() {
		ctx := context.Background()
		cfg := testConfig(t)
		cfg.AllowedOrigins = []string{"https://board.example"}
		svc := startService(t, cfg)
		icons := source.NewFileSource(cfg.IconsPath)
		h := dashboardHandler(ctx, cfg, svc, icons)

		convey.Convey("When requesting the leaderboard", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil)
			req.Header.Set("Origin", "https://board.example")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			convey.Convey("Then the ranked teams are returned with API headers", func() {
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
				var board []results.TeamAggregate
				convey.So(json.Unmarshal(rec.Body.Bytes(), &board), convey.ShouldBeNil)
				convey.So(board, convey.ShouldHaveLength, 2)
				convey.So(board[0].Name, convey.ShouldEqual, "B")
				convey.So(rec.Header().Get("Access-Control-Allow-Origin"), convey.ShouldEqual, "https://board.example")
				convey.So(rec.Header().Get(api.HeaderRequestID), convey.ShouldNotBeEmpty)
			})

			convey.Convey("And the request is written to the access log", func() {
				data, err := os.ReadFile(cfg.AccessLogPath)
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(data), convey.ShouldContainSubstring, "GET /api/leaderboard")
			})
		})

		convey.Convey("When requesting the page, the icon map and the docs", func() {
			for path, want := range map[string]string{
				"/":                   "<html",
				"/data/emojiMap.json": "quiz",
				"/openapi.yaml":       "/api/leaderboard",
			} {
				rec := httptest.NewRecorder()
				h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(strings.ToLower(rec.Body.String()), convey.ShouldContainSubstring, want)
			}
		})

		convey.Convey("When the leaderboard limit exceeds the configured maximum", func() {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/leaderboard?limit=101", nil))
			convey.So(rec.Code, convey.ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestEditorHandler(t *testing.T) {
	convey.Convey("Given the editor handler", t, func() {
		ctx := context.Background()
		cfg := testConfig(t)
		svc := startService(t, cfg)
		h := editorHandler(ctx, cfg, svc, source.NewFileSource(cfg.ResultsPath), source.NewFileSource(cfg.IconsPath))

		login := func(password string) *httptest.ResponseRecorder {
			body := `{"username":"admin","password":"` + password + `"}`
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(body)))
			return rec
		}

		convey.Convey("When logging in with the configured credentials", func() {
			rec := login("secret")

			convey.Convey("Then a token is issued", func() {
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(rec.Body.String(), convey.ShouldContainSubstring, `"token"`)
				convey.So(rec.Header().Get(api.HeaderRequestID), convey.ShouldNotBeEmpty)
			})
		})

		convey.Convey("When logging in with a wrong password", func() {
			rec := login("wrong")
			convey.So(rec.Code, convey.ShouldEqual, http.StatusUnauthorized)
		})
	})
}

func TestRedirectHandler(t *testing.T) {
	convey.Convey("Given the redirect handler", t, func() {
		cfg := testConfig(t)
		cfg.RedirectTarget = "https://board.example/"
		h := redirectHandler(cfg)

		convey.Convey("When a visitor arrives", func() {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			convey.Convey("Then they are redirected and logged", func() {
				convey.So(rec.Code, convey.ShouldEqual, http.StatusFound)
				convey.So(rec.Header().Get("Location"), convey.ShouldEqual, "https://board.example/")
				data, err := os.ReadFile(cfg.RedirectLogPath)
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(data), convey.ShouldNotBeEmpty)
			})
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a config with every listener enabled", t, func() {
		cfg := testConfig(t)
		cfg.EditorAddr = "127.0.0.1:0"
		cfg.RedirectAddr = "127.0.0.1:0"
		cfg.RedirectTarget = "https://board.example/"

		convey.Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- run(ctx, cfg) }()
			time.Sleep(200 * time.Millisecond)
			cancel()

			convey.Convey("Then run shuts down cleanly", func() {
				select {
				case err := <-done:
					convey.So(err, convey.ShouldBeNil)
				case <-time.After(5 * time.Second):
					t.Fatal("run did not return")
				}
			})
		})
	})

	convey.Convey("Given a listen address that is already taken", t, func() {
		cfg := testConfig(t)
		busy := httptest.NewServer(http.NotFoundHandler())
		defer busy.Close()
		cfg.Addr = strings.TrimPrefix(busy.URL, "http://")

		convey.Convey("Then run returns the listen error", func() {
			err := run(context.Background(), cfg)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "listen on")
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given the metrics updaters", t, func() {
		cfg := testConfig(t)
		svc := startService(t, cfg)

		convey.Convey("Then the update functions do not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
			convey.So(func() { updateServiceMetrics(app.New()) }, convey.ShouldNotPanic)
		})

		convey.Convey("Then the loops tick at the given interval and stop with their context", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			convey.So(func() {
				startSystemMetricsUpdater(ctx, 5*time.Millisecond)
				startServiceMetricsUpdater(ctx, svc, 5*time.Millisecond)
			}, convey.ShouldNotPanic)
			convey.So(gaugeValue(t, metrics.FQName("system_goroutine_count")), convey.ShouldBeGreaterThan, 0)
		})
	})
}

func gaugeValue(t *testing.T, name string) float64 {
	t.Helper()
	families, err := metrics.GetRegistry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name && len(mf.GetMetric()) > 0 {
			return mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	return 0
}
