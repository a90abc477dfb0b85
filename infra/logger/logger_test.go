package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Level: "debug", Output: &buf}, "matchbook")
	require.NoError(t, err)

	log.Debug("hello", zap.Uint64("order_id", 7))
	require.NoError(t, log.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "DEBUG", entry["level"])
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "matchbook", entry["service"])
	assert.EqualValues(t, 7, entry["order_id"])
}

func TestNewLevelFilterAndFallback(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Level: "nonsense", Output: &buf}, "x")
	require.NoError(t, err)

	log.Debug("dropped")
	log.Info("kept")
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}

func TestNewFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "matchbook.log")
	var buf bytes.Buffer
	log, err := New(Config{Level: "info", File: path, Output: &buf}, "x")
	require.NoError(t, err)

	log.Warn("to both")
	require.NoError(t, log.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(raw), "to both"))
	assert.Contains(t, buf.String(), "to both")
}
