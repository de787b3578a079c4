// Package logger is the editor's line log: timestamped lines kept in memory
// for the console and appended to a file on disk. Structured records from
// the rest of the program go through Slog and land in the same place.
package logger

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// DefaultPath is the log file, relative to the working directory.
const DefaultPath = "logs/decorator.txt"

// ToastDuration is how long a Notify message stays on screen.
const ToastDuration = 2500 * time.Millisecond

// maxLines bounds the in-memory history; the file keeps everything.
const maxLines = 500

// Logger stores lines in memory and appends them to a file. Safe for
// concurrent use: texture loads and exports log from their own goroutines.
type Logger struct {
	mu    sync.Mutex
	path  string
	lines []string
	toast string
	until time.Time
	now   func() time.Time
}

// New returns a Logger writing to path (DefaultPath when empty) and makes
// sure its directory exists. A path of "-" keeps lines in memory only.
func New(path string) *Logger {
	if path == "" {
		path = DefaultPath
	}
	if path != "-" {
		_ = os.MkdirAll(filepath.Dir(path), 0o755)
	}
	return &Logger{path: path, now: time.Now}
}

// Log appends a line prefixed with [timestamp] to memory and to the log file.
func (l *Logger) Log(line string) {
	ts := l.now().Format("2006-01-02 15:04:05")
	stamped := "[" + ts + "] " + line

	l.mu.Lock()
	l.lines = append(l.lines, stamped)
	if len(l.lines) > maxLines {
		l.lines = append(l.lines[:0], l.lines[len(l.lines)-maxLines:]...)
	}
	path := l.path
	l.mu.Unlock()

	if path == "-" {
		return
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	_, _ = f.WriteString(stamped + "\n")
	_ = f.Close()
}

// Notify logs msg and shows it as the current toast.
func (l *Logger) Notify(msg string) {
	l.Log(msg)
	l.mu.Lock()
	l.toast = msg
	l.until = l.now().Add(ToastDuration)
	l.mu.Unlock()
}

// Toast returns the message to show right now, if any.
func (l *Logger) Toast() (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.toast == "" || !l.now().Before(l.until) {
		return "", false
	}
	return l.toast, true
}

// Lines returns a copy of all stored lines.
func (l *Logger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}

// Slog returns a structured logger whose records are written as lines of
// this Logger, level and message first, attributes as key=value.
func (l *Logger) Slog(level slog.Leveler) *slog.Logger {
	return slog.New(slog.NewTextHandler(lineWriter{l}, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}

type lineWriter struct{ l *Logger }

func (w lineWriter) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		w.l.Log(line)
	}
	return len(p), nil
}
