package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDisabledDiscards(t *testing.T) {
	var buf bytes.Buffer
	closer, err := Init(Options{Enabled: false, Output: &buf})
	require.NoError(t, err)
	defer closer()

	L.Info("hello")
	assert.Zero(t, buf.Len())
}

func TestInitJSONToWriter(t *testing.T) {
	var buf bytes.Buffer
	closer, err := Init(Options{Enabled: true, Format: "json", Output: &buf, Level: slog.LevelDebug})
	require.NoError(t, err)
	defer closer()
	t.Cleanup(func() { L = Discard() })

	L.Debug("probe", "addr", 0x1000)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "probe", rec["msg"])
	assert.EqualValues(t, 0x1000, rec["addr"])
}

func TestInitUnknownFormat(t *testing.T) {
	_, err := Init(Options{Enabled: true, Format: "xml", Output: &bytes.Buffer{}})
	assert.Error(t, err)
}

func TestInitLogDirCreatesDatedFile(t *testing.T) {
	dir := t.TempDir()
	closer, err := Init(Options{Enabled: true, LogDir: dir})
	require.NoError(t, err)
	t.Cleanup(func() { L = Discard() })

	L.Info("written")
	require.NoError(t, closer())

	name := filepath.Join(dir, logPrefix+time.Now().Format("2006-01-02")+logSuffix)
	data, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written")
}

func TestCleanOldLogs(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	old := filepath.Join(dir, logPrefix+"2024-01-01"+logSuffix)
	fresh := filepath.Join(dir, logPrefix+"2024-06-29"+logSuffix)
	other := filepath.Join(dir, "unrelated.log")
	for _, p := range []string{old, fresh, other} {
		require.NoError(t, os.WriteFile(p, nil, 0o644))
	}

	cleanOldLogs(dir, now)

	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)
	assert.FileExists(t, other)
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestOr(t *testing.T) {
	l := Discard()
	assert.Same(t, l, Or(l))
	assert.Same(t, L, Or(nil))
}
