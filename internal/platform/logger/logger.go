package logger

import (
	"log/slog"
	"os"
)

// New returns a structured stdout logger tagged with the service name.
func New(level slog.Level) *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With("service", "chariledger")
}
