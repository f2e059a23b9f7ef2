package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLoggerTo(t *testing.T) {
	prev := Log
	t.Cleanup(func() { Log = prev })

	var console bytes.Buffer
	file := filepath.Join(t.TempDir(), "logs", "radar.log")
	require.NoError(t, InitLoggerTo(&console, "debug", file))

	Log.WithField("run_id", "r1").WithField("b", 2).Debug("hello")

	line := console.String()
	assert.Contains(t, line, "[DEBU]")
	assert.Contains(t, line, "logger_test.go:")
	assert.Contains(t, line, "hello b=2 run_id=r1")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, line, string(data))
}

func TestInitLoggerTo_BadLevelFallsBackToInfo(t *testing.T) {
	prev := Log
	t.Cleanup(func() { Log = prev })

	var console bytes.Buffer
	require.NoError(t, InitLoggerTo(&console, "loud", ""))
	assert.Equal(t, logrus.InfoLevel, Log.GetLevel())

	Log.Debug("hidden")
	assert.Empty(t, console.String())
}
