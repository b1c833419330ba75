package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("bogus"))
}

func TestInitWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "incidentsum.log")
	require.NoError(t, Init(true, "info", path, false))
	t.Cleanup(func() { Use(nil) })

	Debugf("hidden %d", 1)
	Infof("report generated status=%s", "success")
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "report generated status=success")
	assert.Contains(t, string(data), "INFO")
	assert.NotContains(t, string(data), "hidden")
}

func TestUseRoutesMessages(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	Use(zap.New(core))
	t.Cleanup(func() { Use(nil) })

	Infof("ignored")
	Warnf("summarization failed: %v", "timeout")
	Errorf("write failed")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "summarization failed: timeout", logs.All()[0].Message)
}

func TestDisabledLoggerIsNoop(t *testing.T) {
	require.NoError(t, Init(false, "debug", "", true))
	assert.NotPanics(t, func() { Errorf("nothing %s", "happens") })
}
