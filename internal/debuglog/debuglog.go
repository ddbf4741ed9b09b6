// Package debuglog provides the process-wide default logger. Debug output is
// enabled with SCREENGRAB_DEBUG=1 and can be redirected to a file with
// SCREENGRAB_DEBUG_FILE.
package debuglog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	enabledOnce sync.Once
	enabledFlag bool

	outputOnce sync.Once
	output     io.Writer = os.Stderr

	loggerOnce sync.Once
	logger     *slog.Logger
)

// Enabled reports whether debug logging was requested through the environment.
func Enabled() bool {
	enabledOnce.Do(func() {
		enabledFlag = strings.TrimSpace(os.Getenv("SCREENGRAB_DEBUG")) == "1"
	})
	return enabledFlag
}

func writer() io.Writer {
	outputOnce.Do(func() {
		p := strings.TrimSpace(os.Getenv("SCREENGRAB_DEBUG_FILE"))
		if p == "" {
			return
		}
		f, err := os.OpenFile(p, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "screengrab debug log open failed: %v\n", err)
			return
		}
		output = f
	})
	return output
}

// Logger returns the default logger: text to stderr at warn level, or at
// debug level when Enabled.
func Logger() *slog.Logger {
	loggerOnce.Do(func() {
		level := slog.LevelWarn
		if Enabled() {
			level = slog.LevelDebug
		}
		logger = New(writer(), level)
	})
	return logger
}

// New builds a text logger writing to w at level.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return New(io.Discard, slog.LevelError+1)
}
