// Package accesslog appends request lines to a plain text file.
package accesslog

import (
	"context"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

// TimeLayout matches a JavaScript Date.toISOString timestamp.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Writer serialises appends to one file. A Writer with an empty path
// discards everything. Write errors are logged and never returned, so a
// broken log file cannot fail a request.
type Writer struct {
	mu   sync.Mutex
	path string
	name string
}

// New returns a Writer appending to path. name labels error logs and
// metrics.
func New(path, name string) *Writer {
	return &Writer{path: path, name: name}
}

// Path returns the target file, empty when disabled.
func (w *Writer) Path() string {
	if w == nil {
		return ""
	}
	return w.path
}

// WriteLine appends line plus a newline.
func (w *Writer) WriteLine(ctx context.Context, line string) {
	if w == nil || w.path == "" {
		return
	}
	line = strings.TrimRight(line, "\n") + "\n"

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := appendLine(w.path, line); err != nil {
		metrics.RecordErrorByComponent("accesslog", "write_failed")
		logger.Get().Named("accesslog").Error(ctx, "append failed",
			logger.String("log", w.name),
			logger.String("path", w.path),
			logger.Error(err),
		)
	}
}

func appendLine(path, line string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(line); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Stamp formats t the way every log line in this package starts.
func Stamp(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ClientIP returns the first X-Forwarded-For hop, or the remote host,
// without an IPv4-mapped IPv6 prefix.
func ClientIP(r *http.Request) string {
	ip := ""
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		ip = strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	if ip == "" {
		ip = r.RemoteAddr
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			ip = host
		}
	}
	if ip == "" {
		return "unknown"
	}
	return strings.TrimPrefix(ip, "::ffff:")
}
