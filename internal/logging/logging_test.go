package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ConsoleLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Level: zerolog.InfoLevel, Console: &buf, NoColor: true})
	defer logger.Close()

	logger.Debug().Msg("hidden")
	logger.Info().Str("profile", "work").Msg("applied")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "applied")
	assert.Contains(t, out, "profile=work")
}

func TestNew_FileSink(t *testing.T) {
	var buf bytes.Buffer
	logPath := filepath.Join(t.TempDir(), "hostctl.log")

	logger := New(Options{Level: zerolog.DebugLevel, Console: &buf, File: logPath, MaxSizeMB: 1})
	logger.Info().Msg("to file")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"to file"`)
}

func TestNew_BridgesSlog(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Level: zerolog.InfoLevel, Console: &buf, NoColor: true})
	defer logger.Close()

	slog.Info("from slog")
	assert.Contains(t, buf.String(), "from slog")
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, slogLevel(zerolog.TraceLevel))
	assert.Equal(t, slog.LevelDebug, slogLevel(zerolog.DebugLevel))
	assert.Equal(t, slog.LevelInfo, slogLevel(zerolog.InfoLevel))
	assert.Equal(t, slog.LevelWarn, slogLevel(zerolog.WarnLevel))
	assert.Equal(t, slog.LevelError, slogLevel(zerolog.ErrorLevel))
}
