package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/podium/internal/adapters/http/accesslog"
	"github.com/okian/podium/internal/adapters/http/api"
	"github.com/okian/podium/internal/adapters/http/editor"
	"github.com/okian/podium/internal/adapters/http/redirect"
	"github.com/okian/podium/internal/adapters/http/site"
	"github.com/okian/podium/internal/adapters/http/swagger"
	"github.com/okian/podium/internal/adapters/source"
	app "github.com/okian/podium/internal/app"
	"github.com/okian/podium/internal/config"
	"github.com/okian/podium/internal/domain/auth"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Get().Error(ctx, "failed to load config", logger.Error(err))
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithLevel(cfg.LogLevel)); err != nil {
		logger.Get().Warn(ctx, "invalid log settings; keeping defaults",
			logger.String("log_level", cfg.LogLevel),
			logger.String("log_format", cfg.LogFormat),
			logger.Error(err))
	}

	if err := run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "server failed", logger.Error(err))
		os.Exit(1)
	}
}

// run starts the results service and every configured listener, and
// blocks until ctx is cancelled or a listener fails.
func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	resultsDoc := source.NewFileSource(cfg.ResultsPath)
	iconsDoc := source.NewFileSource(cfg.IconsPath)

	svc := app.New(
		app.WithLogger(log.Named("service")),
		app.WithSource(resultsDoc),
		app.WithQueueSize(cfg.ReloadQueueSize),
		app.WithWatchMode(cfg.WatchMode),
		app.WithPollInterval(cfg.PollInterval()),
	)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Stop()

	servers := []*http.Server{newHTTPServer(cfg.Addr, dashboardHandler(ctx, cfg, svc, iconsDoc))}
	// Validate guarantees credentials and a target for the optional listeners.
	if cfg.EditorAddr != "" {
		servers = append(servers, newHTTPServer(cfg.EditorAddr, editorHandler(ctx, cfg, svc, resultsDoc, iconsDoc)))
	}
	if cfg.RedirectAddr != "" {
		servers = append(servers, newHTTPServer(cfg.RedirectAddr, redirectHandler(cfg)))
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		startSystemMetricsUpdater(gctx, metrics.RefreshInterval())
		return nil
	})
	g.Go(func() error {
		startServiceMetricsUpdater(gctx, svc, metrics.RefreshInterval())
		return nil
	})

	for _, srv := range servers {
		g.Go(func() error {
			log.Info(ctx, "starting HTTP server", logger.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("listen on %s: %w", srv.Addr, err)
			}
			return nil
		})
	}

	// Graceful shutdown once the signal arrives or a listener fails.
	g.Go(func() error {
		<-gctx.Done()
		log.Info(ctx, "shutting down servers...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error(ctx, "server shutdown failed", logger.String("addr", srv.Addr), logger.Error(err))
			}
		}
		return nil
	})

	err := g.Wait()
	log.Info(ctx, "servers stopped")
	return err
}

func newHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// dashboardHandler serves the JSON API, the dashboard page and the API docs.
func dashboardHandler(ctx context.Context, cfg *config.Config, svc *app.Service, icons site.Document) http.Handler {
	mux := http.NewServeMux()

	apiServer := api.NewServer(svc, svc,
		api.WithMaxLimit(cfg.MaxLeaderboardLimit),
		api.WithLocation(cfg.Location()),
		api.WithAllowedOrigins(cfg.AllowedOrigins),
		api.WithAccessLog(accesslog.New(cfg.AccessLogPath, "api")),
	)
	apiServer.Register(ctx, mux)
	site.Register(ctx, mux, icons)
	swagger.Register(ctx, mux)

	return apiServer.Wrap(mux)
}

// editorHandler serves the authenticated document editor.
func editorHandler(ctx context.Context, cfg *config.Config, svc *app.Service, resultsDoc, iconsDoc editor.Document) http.Handler {
	mux := http.NewServeMux()
	editor.NewServer(resultsDoc, iconsDoc,
		editor.WithCredentials(cfg.EditorUser, cfg.EditorPasswordSHA256),
		editor.WithTokens(auth.NewInMemoryTokens(auth.WithMaxTokens(cfg.EditorMaxTokens))),
		editor.WithLoginRate(cfg.LoginRatePerSec, cfg.LoginBurst),
		editor.WithReloader(svc),
		editor.WithLogger(logger.Get().Named("editor")),
	).Register(ctx, mux)
	return api.Chain(mux, api.RequestID())
}

// redirectHandler sends every visitor to the configured target.
func redirectHandler(cfg *config.Config) http.Handler {
	return redirect.NewHandler(cfg.RedirectTarget, accesslog.New(cfg.RedirectLogPath, "redirect"))
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater refreshes queue gauges from the service.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics updates service-level metrics.
func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()
	if queueSize, ok := stats["queueSize"].(int); ok {
		metrics.UpdateQueueCapacity(queueSize)
		if queueLen, ok := stats["queueLength"].(int); ok && queueSize > 0 {
			metrics.UpdateQueueUtilization(float64(queueLen) / float64(queueSize))
		}
	}
}
