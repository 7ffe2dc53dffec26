package testutil

import (
	"io"
	"log/slog"
)

// NopLogger satisfies the logger dependencies of services under test
// without producing output
func NopLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
