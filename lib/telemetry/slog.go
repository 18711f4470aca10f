package telemetry

import (
	"log/slog"
	"os"
)

// InitSlog installs the process-wide text handler. debug=true is
// meant for tests and local runs, production binaries keep Info.
func InitSlog(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}
