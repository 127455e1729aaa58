// Package source reads and writes the results document and watches it
// for changes.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"github.com/okian/podium/pkg/metrics"
)

// Format is the encoding of a document on disk.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf picks the format from the file extension. Unknown extensions
// are treated as JSON.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// FileSource is a document on the local filesystem.
type FileSource struct {
	path   string
	format Format
	perm   fs.FileMode
	sf     singleflight.Group
	tracer trace.Tracer
}

// NewFileSource creates a source for path.
func NewFileSource(path string, opts ...Option) *FileSource {
	s := &FileSource{
		path:   path,
		format: FormatOf(path),
		perm:   0o644,
		tracer: otel.Tracer("podium-source"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the file path.
func (s *FileSource) Path() string { return s.path }

// Format returns the document encoding.
func (s *FileSource) Format() Format { return s.format }

// Raw returns the file bytes unchanged.
func (s *FileSource) Raw(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	return data, nil
}

// Load reads and decodes the document. Concurrent calls share one read.
// JSON numbers are kept as json.Number.
func (s *FileSource) Load(ctx context.Context) (any, error) {
	ctx, span := s.tracer.Start(ctx, "FileSource.Load",
		trace.WithAttributes(
			attribute.String("source.path", s.path),
			attribute.String("source.format", string(s.format)),
		),
	)
	defer span.End()

	start := time.Now()
	v, err, shared := s.sf.Do(s.path, func() (any, error) {
		data, err := s.Raw(ctx)
		if err != nil {
			return nil, err
		}
		span.SetAttributes(attribute.Int("source.bytes", len(data)))
		return s.decode(data)
	})
	metrics.RecordSourceLoadLatency(float64(time.Since(start).Microseconds()) / 1000)
	span.SetAttributes(attribute.Bool("source.shared", shared))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return v, nil
}

func (s *FileSource) decode(data []byte) (any, error) {
	var v any
	switch s.format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrDecode, s.path, err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrDecode, s.path, err)
		}
	}
	return v, nil
}

// Save encodes v in the source's format and replaces the file atomically.
// JSON is written with two-space indentation.
func (s *FileSource) Save(ctx context.Context, v any) error {
	_, span := s.tracer.Start(ctx, "FileSource.Save",
		trace.WithAttributes(attribute.String("source.path", s.path)),
	)
	defer span.End()

	data, err := Encode(s.format, v)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if err := writeAtomic(s.path, data, s.perm); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetAttributes(attribute.Int("source.bytes", len(data)))
	return nil
}

// plainNumbers replaces json.Number with int64 or float64 so YAML output
// keeps numbers unquoted.
func plainNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = plainNumbers(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = plainNumbers(val)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = plainNumbers(val)
		}
		return out
	default:
		return v
	}
}

// Encode renders v in format f.
func Encode(f Format, v any) ([]byte, error) {
	switch f {
	case FormatYAML:
		out, err := yaml.Marshal(plainNumbers(v))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEncode, err)
		}
		return out, nil
	case FormatJSON:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEncode, err)
		}
		return bytes.TrimRight(buf.Bytes(), "\n"), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, f)
	}
}

// writeAtomic writes data next to path and renames it into place so that
// readers never see a partial file.
func writeAtomic(path string, data []byte, perm fs.FileMode) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err = os.Chmod(tmp.Name(), perm); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}
