package logger

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesJSONToFile(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "logs", "app.log")
	errOut := filepath.Join(dir, "logs", "error.log")

	log, err := NewLogger(
		WithLevel("info"),
		WithOutputPaths([]string{out}),
		WithErrorPaths([]string{errOut}),
		WithInitialField("service", "smart-sdlc"),
	)
	require.NoError(t, err)

	log.Debug("hidden")
	log.Named("pipeline").Info("Classification finished", String("outcome", "remote"))
	log.Error("Remote classification failed", Int("status", 502))
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "pipeline", entry["logger"])
	assert.Equal(t, "Classification finished", entry["message"])
	assert.Equal(t, "remote", entry["outcome"])
	assert.Equal(t, "smart-sdlc", entry["service"])

	errData, err := os.ReadFile(errOut)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(strings.TrimSpace(string(errData)), "\n")+1)
	assert.Contains(t, string(errData), "Remote classification failed")
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := NewLogger(WithLevel("loud"), WithOutputPaths([]string{"stdout"}), WithErrorPaths(nil))

	assert.Error(t, err)
}

func TestFromContext(t *testing.T) {
	tl := NewTestLogger()

	FromContext(context.Background(), tl).Info("no id")
	FromContext(WithRequestID(context.Background(), "req-1"), tl).Info("with id")

	entries := tl.GetEntries()
	require.Len(t, entries, 2)
	assert.Empty(t, entries[0].Fields)
	require.Len(t, entries[1].Fields, 1)
	assert.Equal(t, "request_id", entries[1].Fields[0].Key)
	assert.Equal(t, "req-1", entries[1].Fields[0].String)

	id, ok := RequestID(WithRequestID(context.Background(), ""))
	assert.False(t, ok)
	assert.Empty(t, id)
}

func TestTestLogger_ChildrenShareEntries(t *testing.T) {
	tl := NewTestLogger()

	tl.Named("a").Named("b").With(String("k", "v")).Warn("child")

	assert.True(t, tl.HasMessage("WARN", "child"))
	assert.Equal(t, "a.b", tl.GetEntries()[0].Logger)

	tl.Clear()
	assert.Empty(t, tl.GetEntries())
}
