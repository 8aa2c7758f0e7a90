package logging

import (
	"io"
	log "log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

var levelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

// ParseLevel maps a level name to a slog level; unknown names are info.
func ParseLevel(s string) log.Level {
	if l, ok := levelMap[strings.ToLower(strings.TrimSpace(s))]; ok {
		return l
	}
	return log.LevelInfo
}

// New builds the colored handler used by every binary.
func New(level string, w io.Writer, color bool) *log.Logger {
	return log.New(tint.NewHandler(w, &tint.Options{
		Level:      ParseLevel(level),
		TimeFormat: time.Kitchen,
		NoColor:    !color,
	}))
}

// Setup installs the handler as the slog default.
func Setup(level string, w io.Writer, color bool) {
	log.SetDefault(New(level, w, color))
}
