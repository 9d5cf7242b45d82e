package logger_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/screwyprof/sortition/pkg/logger"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	t.Run("it parses known levels", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, slog.LevelDebug, logger.ParseLevel("debug"))
		assert.Equal(t, slog.LevelError, logger.ParseLevel("ERROR"))
	})

	t.Run("it falls back to info", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, slog.LevelInfo, logger.ParseLevel("chatty"))
	})
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("it writes json by default", func(t *testing.T) {
		t.Parallel()

		// Arrange
		var buf bytes.Buffer
		log := logger.New(&buf, logger.Config{LogLevel: "info"})

		// Act
		log.Info("scan completed", slog.Int("events", 2))

		// Assert
		assert.Contains(t, buf.String(), `"msg":"scan completed"`)
		assert.Contains(t, buf.String(), `"events":2`)
	})

	t.Run("it writes text when human friendly", func(t *testing.T) {
		t.Parallel()

		// Arrange
		var buf bytes.Buffer
		log := logger.New(&buf, logger.Config{LogLevel: "info", LogHumanFriendly: true})

		// Act
		log.Info("scan completed")

		// Assert
		assert.Contains(t, buf.String(), `msg="scan completed"`)
	})

	t.Run("it drops records below the configured level", func(t *testing.T) {
		t.Parallel()

		// Arrange
		var buf bytes.Buffer
		log := logger.New(&buf, logger.Config{LogLevel: "warn"})

		// Act
		log.Info("hidden")

		// Assert
		assert.Empty(t, buf.String())
	})
}
