package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/scitags/nlcodec/types"
)

const (
	MsgTypeKey  string = "msgType"
	MsgFlagsKey string = "msgFlags"
)

func logReplacements(groups []string, a slog.Attr) slog.Attr {
	// Remove time.
	if a.Key == slog.TimeKey && len(groups) == 0 && !logTimeFlag {
		return slog.Attr{}
	}

	// Remove the directory from the source's filename.
	if a.Key == slog.SourceKey {
		source := a.Value.Any().(*slog.Source)
		source.File = filepath.Base(source.File)
	}

	// slog renders our trace level as DEBUG-1
	if a.Key == slog.LevelKey && len(groups) == 0 {
		if level, ok := a.Value.Any().(slog.Level); ok {
			return slog.String(a.Key, types.LevelName(level))
		}
	}

	// Message types and flags are easier on the eye in hex. When slog
	// gobbles a uint16 it becomes a uint64 apparently...
	if a.Key == MsgTypeKey || a.Key == MsgFlagsKey {
		v, ok := a.Value.Any().(uint64)
		if ok {
			return slog.Attr{Key: a.Key, Value: slog.StringValue(fmt.Sprintf("%#06x", v))}
		}
	}

	return a
}
