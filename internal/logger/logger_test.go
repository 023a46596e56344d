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
)

func TestNewConsoleLevels(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Console: &buf})
	l.Debug("hidden")
	l.Info("shown")
	require.NoError(t, l.Sync())
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	buf.Reset()
	l = New(Options{Console: &buf, Debug: true})
	l.Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")
}

func TestNewProductionConsoleIsJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Console: &buf, Production: true})
	l.Info("branded")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "branded", entry["message"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Contains(t, entry, "timestamp")
}

func TestNewWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sparken.log")
	var buf bytes.Buffer
	l := New(Options{FilePath: path, Console: &buf, Debug: true})
	l.Debug("console only")
	l.Warn("both")
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"message":"both"`)
	assert.Contains(t, lines[0], `"level":"WARN"`)
}

func TestRotator(t *testing.T) {
	r := Rotator("x.log")
	assert.Equal(t, 10, r.MaxSize)
	assert.Equal(t, 5, r.MaxBackups)
	assert.True(t, r.Compress)
}
