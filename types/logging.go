package types

import (
	"fmt"
	"log/slog"
	"strings"
)

const (
	LevelTrace = slog.Level(slog.LevelDebug - 1)
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

var logLevelMap = map[string]slog.Level{
	"trace": LevelTrace,
	"debug": LevelDebug,
	"info":  LevelInfo,
	"warn":  LevelWarn,
	"error": LevelError,
}

// ParseLogLevel maps a level name as given on the command line onto its
// slog.Level. Names are case insensitive.
func ParseLogLevel(name string) (slog.Level, error) {
	l, ok := logLevelMap[strings.ToLower(name)]
	if !ok {
		return LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
	return l, nil
}

// LevelName is the reverse of ParseLogLevel. slog itself would render
// LevelTrace as DEBUG-1.
func LevelName(l slog.Level) string {
	if l == LevelTrace {
		return "TRACE"
	}
	return l.String()
}
