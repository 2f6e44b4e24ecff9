package telemetry

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, ParseLevel(tc.in), "level %q", tc.in)
	}
}

func TestInitLogger_WritesToFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "logs", "xlerion.log")
	logger, closer, err := InitLogger("INFO", path)
	require.NoError(t, err)

	logger.Info("hello", "user_id", "u-1")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"service":"xlerion"`)
}

func TestInitTelemetry_Shutdown(t *testing.T) {
	dir := t.TempDir()
	shutdown, err := InitTelemetry(context.Background(), dir, "test")
	require.NoError(t, err)

	_, span := otel.Tracer("telemetry-test").Start(context.Background(), "probe")
	span.End()
	require.NoError(t, shutdown(context.Background()))

	data, err := os.ReadFile(filepath.Join(dir, "xlerion_traces.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "probe")
}
