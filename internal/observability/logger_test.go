package observability

import (
	"context"
	"log/slog"
	"testing"

	"github.com/couchcryptid/pier-dxv-etl/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("nonsense"))
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	logger := NewLogger(&config.Config{LogLevel: "warn", LogFormat: "text"})
	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelWarn))
}
