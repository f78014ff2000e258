package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"hr_notify/internal/config"
)

func TestNew(t *testing.T) {
	t.Run("development", func(t *testing.T) {
		logger, err := New(&config.Config{LogLevel: "warn"})
		require.NoError(t, err)
		require.False(t, logger.Core().Enabled(zapcore.InfoLevel))
		require.True(t, logger.Core().Enabled(zapcore.WarnLevel))
	})

	t.Run("release writes the log file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "logs", "app.log")
		logger, err := New(&config.Config{Release: true, LogLevel: "info", LogFile: file, OTELServiceName: "hr-notify"})
		require.NoError(t, err)
		logger.Info("hello")
		_ = logger.Sync()

		data, err := os.ReadFile(file)
		require.NoError(t, err)
		require.Contains(t, string(data), `"msg":"hello"`)
		require.Contains(t, string(data), `"service":"hr-notify"`)
	})

	t.Run("bad level", func(t *testing.T) {
		_, err := New(&config.Config{LogLevel: "loud"})
		require.Error(t, err)
	})
}
