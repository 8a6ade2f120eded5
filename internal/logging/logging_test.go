package logging

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, lvl.Level())

	lvl, err = ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, lvl.Level())

	_, err = ParseLevel("chatty")
	assert.Error(t, err)
}

func TestNewWritesToFile(t *testing.T) {
	dir := t.TempDir()

	logger, err := New(Options{Dir: dir, Level: "info"})
	require.NoError(t, err)

	logger.Info("channel connected", zap.String("endpoint", "ws://localhost:1/ws"))
	logger.Debug("not written at info level")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "channel connected")
	assert.Contains(t, text, "ws://localhost:1/ws")
	assert.NotContains(t, text, "not written")
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err)
}

func TestStdLogRedirect(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	restore := redirectStdLog(zap.New(core))
	t.Cleanup(restore)

	log.Printf("from a dependency %d", 7)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "from a dependency 7", entries[0].Message)
	assert.True(t, strings.HasSuffix(entries[0].LoggerName, "stdlog"))
}
