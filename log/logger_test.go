package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}

	return entries
}

func TestLogger_StructuredFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "debug")
	require.NoError(t, err)

	logger.Named("i2c").Debug("roles detected", map[string]any{"sda": 1, "scl": 0})

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	require.Equal(t, "debug", entries[0]["level"])
	require.Equal(t, "roles detected", entries[0]["message"])
	require.Equal(t, "i2c", entries[0]["logger"])

	fields, ok := entries[0]["fields"].(map[string]any)
	require.True(t, ok)
	require.EqualValues(t, 1, fields["sda"])
	require.EqualValues(t, 0, fields["scl"])
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "warn")
	require.NoError(t, err)

	logger.Debug("dropped", nil)
	logger.Info("dropped", nil)
	logger.Warn("kept", nil)
	logger.Error("kept", nil)

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	require.Equal(t, "warn", entries[0]["level"])
	require.Equal(t, "error", entries[1]["level"])
}

func TestLogger_DefaultLevelIsInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "")
	require.NoError(t, err)

	logger.Debug("dropped", nil)
	logger.Info("kept", nil)
	require.Len(t, decodeLines(t, &buf), 1)
}

func TestLogger_InvalidLevel(t *testing.T) {
	_, err := New(&bytes.Buffer{}, "loud")
	require.Error(t, err)
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "info")
	require.NoError(t, err)

	logger.With(map[string]any{"protocol": "i2c"}).Info("run completed", nil)

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	require.Equal(t, "i2c", entries[0]["protocol"])
}

func TestLogger_NilAndNop(t *testing.T) {
	var nilLogger *Logger
	require.NotPanics(t, func() {
		nilLogger.Debug("x", nil)
		nilLogger.Info("x", nil)
		nilLogger.Warn("x", nil)
		nilLogger.Error("x", nil)
		nilLogger.Named("y").Info("x", nil)
		nilLogger.With(map[string]any{"a": 1}).Info("x", nil)
		nilLogger.Sugar().Infof("x %d", 1)
		_ = nilLogger.Sync()
	})

	require.NotPanics(t, func() {
		Nop().Info("x", map[string]any{"a": 1})
	})
}

func TestSugaredLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "debug")
	require.NoError(t, err)

	sugar := logger.Sugar().With("file", "capture.rle")
	sugar.Debugf("decoded %d samples", 42)
	sugar.Infof("found %d datagrams", 5)
	sugar.Warnf("skipped %s", "state")
	sugar.Errorf("failed: %v", "boom")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 4)
	require.Equal(t, "decoded 42 samples", entries[0]["message"])
	require.Equal(t, "capture.rle", entries[0]["file"])
}
