package logger

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogWritesMemoryAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "out.txt")
	l := New(path)
	l.Log("hello")
	l.Log("world")

	lines := l.Lines()
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], "] hello"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
}

func TestSlogLandsInLines(t *testing.T) {
	l := New("-")
	log := l.Slog(slog.LevelInfo)
	log.Debug("hidden")
	log.Info("decoration placed", "catalog", "ball")

	lines := l.Lines()
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `level=INFO msg="decoration placed" catalog=ball`)
	assert.NotContains(t, lines[0], "time=")
}

func TestToastExpires(t *testing.T) {
	l := New("-")
	now := time.Unix(1000, 0)
	l.now = func() time.Time { return now }

	_, ok := l.Toast()
	assert.False(t, ok)

	l.Notify("Deleted")
	msg, ok := l.Toast()
	assert.True(t, ok)
	assert.Equal(t, "Deleted", msg)

	now = now.Add(ToastDuration)
	_, ok = l.Toast()
	assert.False(t, ok)
}

func TestHistoryIsBounded(t *testing.T) {
	l := New("-")
	for i := 0; i < maxLines+10; i++ {
		l.Log("x")
	}
	assert.Len(t, l.Lines(), maxLines)
}
