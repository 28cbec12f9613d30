package logger

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    string
		expected slog.Level
		wantErr  bool
	}{
		{"debug", "debug", slog.LevelDebug, false},
		{"info", "info", slog.LevelInfo, false},
		{"warn", "warn", slog.LevelWarn, false},
		{"error", "error", slog.LevelError, false},
		{"mixed case", "DEBUG", slog.LevelDebug, false},
		{"unknown", "verbose", slog.LevelInfo, true},
		{"empty", "", slog.LevelInfo, true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			level, err := parseLevel(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tc.expected, level)
		})
	}
}

func TestSetup(t *testing.T) {
	t.Run("valid level", func(t *testing.T) {
		logger, err := Setup(LoggerConfig{Level: "debug"})
		require.NoError(t, err)
		assert.NotNil(t, logger)
		assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
	})

	t.Run("invalid level falls back to info", func(t *testing.T) {
		logger, err := Setup(LoggerConfig{Level: "nonsense"})
		require.NoError(t, err)
		assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
		assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
	})
}

func TestLoggerContext(t *testing.T) {
	t.Parallel()

	attached := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		ctx := WithLogger(context.Background(), attached)
		assert.Same(t, attached, FromContext(ctx))
		assert.Same(t, attached, FromContextOrDefault(ctx, nil))
	})

	t.Run("missing logger uses fallback", func(t *testing.T) {
		t.Parallel()

		fallback := slog.New(slog.NewTextHandler(io.Discard, nil))
		assert.Same(t, fallback, FromContextOrDefault(context.Background(), fallback))
	})

	t.Run("missing logger and fallback uses default", func(t *testing.T) {
		t.Parallel()

		assert.NotNil(t, FromContext(context.Background()))
		assert.NotNil(t, FromContextOrDefault(context.Background(), nil))
	})
}
