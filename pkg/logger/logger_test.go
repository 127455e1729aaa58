package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerInit(t *testing.T) {
	require.NoError(t, Init())
	defer func() {
		assert.NoError(t, Sync())
	}()

	assert.NotNil(t, Get())
	assert.Error(t, Init(WithFormat("xml")), "unknown format must be rejected")
	assert.Error(t, Init(WithLevel("loud")), "unknown level must be rejected")
}

func TestLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(WithFormat(FormatJSON), WithWriter(&buf)))

	Get().Info(context.Background(), "snapshot published", String("reason", "startup"), Int("teams", 3))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "output is not json: %q", buf.String())
	assert.Equal(t, "snapshot published", entry["msg"])
	assert.Equal(t, "startup", entry["reason"])
	assert.EqualValues(t, 3, entry["teams"])
	assert.Contains(t, entry["source"], "logger_test.go", "source should point at the caller")
}

func TestLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(WithWriter(&buf), WithLevel("warn")))
	defer func() { _ = SetLevelString("info") }()

	ctx := context.Background()
	Get().Info(ctx, "hidden")
	Get().Warn(ctx, "shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	require.NoError(t, SetLevelString("debug"))
	Get().Debug(ctx, "now visible")
	assert.Contains(t, buf.String(), "now visible")
}

func TestSetLevelString(t *testing.T) {
	tests := []struct {
		level   string
		wantErr bool
	}{
		{level: "debug"},
		{level: "INFO"},
		{level: ""},
		{level: " warning "},
		{level: "error"},
		{level: "trace", wantErr: true},
	}
	defer func() { _ = SetLevelString("info") }()

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			err := SetLevelString(tt.level)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLoggerNamed(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(WithWriter(&buf)))

	namedLogger := Named("editor")
	require.NotNil(t, namedLogger)

	namedLogger.Info(context.Background(), "login", String("user", "admin"))
	assert.Contains(t, buf.String(), "editor.user=admin", "named fields should be grouped")
}
