package logger

import (
	"log/slog"
	"os"
)

// New returns the process logger: JSON in production for log pipelines, text
// locally for readability. Handlers and services must never log passwords,
// tokens, or Authorization headers; they log identifiers and error values.
func New(environment string) *slog.Logger {
	if environment == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
