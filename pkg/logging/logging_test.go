package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		name      string
		verbosity int
		wantLevel zerolog.Level
	}{
		{"default warn level", 0, zerolog.WarnLevel},
		{"info level", 1, zerolog.InfoLevel},
		{"debug level", 2, zerolog.DebugLevel},
		{"trace level", 3, zerolog.TraceLevel},
		{"high verbosity defaults to trace", 5, zerolog.TraceLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logPath := filepath.Join(t.TempDir(), "state", LogFileName)

			SetupLogger(tt.verbosity, FileOutput{Path: logPath, MaxSizeMB: 1})
			assert.Equal(t, tt.wantLevel, zerolog.GlobalLevel())

			log.Warn().Msg("written to file")
			_, err := os.Stat(logPath)
			assert.NoError(t, err, "log file should be created on first write")
		})
	}
}

func TestSetupLogger_ConsoleOnly(t *testing.T) {
	SetupLogger(0, FileOutput{})
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
}

func TestGetLogger(t *testing.T) {
	var buf bytes.Buffer
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = zerolog.New(&buf)

	logger := GetLogger("reconcile")
	logger.Info().Msg("entry linked")

	require.Contains(t, buf.String(), `"component":"reconcile"`)
	require.Contains(t, buf.String(), "entry linked")
}

func TestLogOperationStart(t *testing.T) {
	var buf bytes.Buffer
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	logger := zerolog.New(&buf)

	done := LogOperationStart(logger, "pull")
	done()

	output := buf.String()
	assert.Contains(t, output, "Operation started")
	assert.Contains(t, output, "Operation completed")
	assert.Contains(t, output, "duration")
}
