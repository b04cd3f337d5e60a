package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger("terrain", &buf, INFO)

	l.Debug("скрыто %d", 1)
	l.Info("zone %s generated", "(0,0)")
	l.Error("boom")

	out := buf.String()
	assert.NotContains(t, out, "скрыто")
	assert.Contains(t, out, "[INFO] [terrain] zone (0,0) generated")
	assert.Contains(t, out, "[ERROR] [terrain] boom")

	assert.False(t, l.Enabled(DEBUG))
	l.SetLevels(TRACE, ERROR+1)
	assert.True(t, l.Enabled(TRACE))
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, DEBUG, lvl)

	lvl, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, INFO, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}

func TestManagerCachesLoggers(t *testing.T) {
	dir := t.TempDir()
	Configure(dir, WARN)
	t.Cleanup(func() { Configure("", INFO) })

	lm := &LoggerManager{loggers: make(map[string]*Logger)}
	a, err := lm.GetLogger("worker")
	require.NoError(t, err)
	b, err := lm.GetLogger("worker")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, []string{"worker"}, lm.ListComponents())

	a.Warn("queue is full")
	require.NoError(t, lm.CloseAll())

	files, err := filepath.Glob(filepath.Join(dir, "worker_*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "queue is full")

	assert.Error(t, lm.SetLogLevel("missing", INFO, INFO))
}
