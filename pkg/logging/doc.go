// Package logging builds the slog loggers used across upstreamd.
//
// It wraps log/slog so every component configures verbosity and encoding
// the same way. Library code never logs through a global: anything that
// logs accepts a *slog.Logger and defaults to Nop(), which keeps the
// simulator silent when embedded in a test binary unless the caller opts
// in.
//
// # Usage
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelInfo,
//	    Format: logging.FormatJSON,
//	})
//
//	logger.Info("listening", "addr", addr)
//	logger.Warn("graceful shutdown timed out", "error", err)
//
// # Formats
//
//   - Text: human-readable, the default for interactive use
//   - JSON: one object per line for log aggregation
package logging
