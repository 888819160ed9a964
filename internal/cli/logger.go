package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/mesh-intelligence/brep/pkg/types"
)

// newLogger builds a logger writing to w. An empty level means warn and an
// empty format means text. The global slog logger is left alone.
func newLogger(level, format string, w io.Writer) (*slog.Logger, error) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "", "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrLogLevelUnknown, level)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	switch format {
	case "", types.LogFormatText:
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case types.LogFormatJSON:
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrLogFormatUnknown, format)
	}
}
