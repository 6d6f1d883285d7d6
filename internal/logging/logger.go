package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Config controls logger behavior.
type Config struct {
	Level     string
	Format    string
	DevMode   bool
	AddSource bool
}

// ParseLevel maps a config string to a slog level. Unknown values
// fall back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a configured slog.Logger writing to stderr so that
// command output on stdout stays machine-readable.
// DevMode produces human-readable text; otherwise Format selects
// "text" or JSON.
func New(cfg Config) *slog.Logger {
	return slog.New(newPrimary(cfg))
}

// NewWithRing creates a logger that writes to stderr and additionally
// captures WARN+ records in an in-memory ring buffer for diagnostics.
func NewWithRing(cfg Config, ring *RingBuffer) *slog.Logger {
	return slog.New(&ringHandler{
		primary: newPrimary(cfg),
		ring:    ring,
	})
}

func newPrimary(cfg Config) slog.Handler {
	opts := &slog.HandlerOptions{
		Level:     ParseLevel(cfg.Level),
		AddSource: cfg.AddSource || cfg.DevMode,
	}
	if cfg.DevMode || cfg.Format == "text" {
		return slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.NewJSONHandler(os.Stderr, opts)
}
