package fixtures

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/okian/podium/internal/domain/results"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

// Metric families read from the dashboard's /healthz exposition.
var (
	MetricSnapshotVersion = metrics.FQName(metrics.SnapshotVersionName)
	MetricReloads         = metrics.FQName(metrics.ReloadsName)
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// NewHTTPClient creates a new HTTP client for the dashboard at baseURL.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// Get performs a GET request against path.
func (c *HTTPClient) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// GetJSON performs a GET request and decodes a 200 response into v.
func (c *HTTPClient) GetJSON(ctx context.Context, path string, v any) error {
	resp, err := c.Get(ctx, path)
	if err != nil {
		return err
	}
	body, err := readResponseBody(ctx, resp)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// Health checks the dashboard's /healthz endpoint.
func (c *HTTPClient) Health(ctx context.Context) error {
	resp, err := c.Get(ctx, "/healthz")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	if _, err := readResponseBody(ctx, resp); err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	return nil
}

// Leaderboard fetches the full served leaderboard.
func (c *HTTPClient) Leaderboard(ctx context.Context) ([]results.TeamAggregate, error) {
	var board []results.TeamAggregate
	if err := c.GetJSON(ctx, "/api/leaderboard", &board); err != nil {
		return nil, err
	}
	return board, nil
}

// Stats fetches the served headline counters.
func (c *HTTPClient) Stats(ctx context.Context) (results.Stats, error) {
	var st results.Stats
	err := c.GetJSON(ctx, "/api/stats", &st)
	return st, err
}

// Metrics scrapes /healthz and decodes the Prometheus text exposition.
// A partial parse that still yields families is treated as success.
func (c *HTTPClient) Metrics(ctx context.Context) (map[string]*dto.MetricFamily, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", string(expfmt.NewFormat(expfmt.TypeTextPlain)))
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(ctx, "failed to close response body", logger.Error(err))
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}

	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(resp.Body)
	if err != nil && len(mfs) == 0 {
		return nil, fmt.Errorf("parse metrics: %w", err)
	}
	return mfs, nil
}

// sumFamily adds up the counter, gauge and untyped samples of mf.
func sumFamily(mf *dto.MetricFamily) float64 {
	if mf == nil {
		return 0
	}
	var total float64
	for _, m := range mf.GetMetric() {
		switch {
		case m.Counter != nil:
			total += m.Counter.GetValue()
		case m.Gauge != nil:
			total += m.Gauge.GetValue()
		case m.Untyped != nil:
			total += m.Untyped.GetValue()
		}
	}
	return total
}

// ReloadStats reads the published snapshot version and the total number
// of reloads from the dashboard's metrics.
func (c *HTTPClient) ReloadStats(ctx context.Context) (version, reloads float64, err error) {
	mfs, err := c.Metrics(ctx)
	if err != nil {
		return 0, 0, err
	}
	return sumFamily(mfs[MetricSnapshotVersion]), sumFamily(mfs[MetricReloads]), nil
}

// readResponseBody reads and closes the response body
func readResponseBody(ctx context.Context, resp *http.Response) ([]byte, error) {
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(ctx, "failed to close response body", logger.Error(err))
		}
	}()
	return io.ReadAll(resp.Body)
}
