// Package logging provides structured logging for the stratum tools.
//
// This package wraps zap logger with convenience functions for the logging
// patterns used throughout the codec tooling: general leveled logging plus
// helpers for raw-byte and frame diagnostics.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (hex dumps, layer decoding steps)
//   - Info: Normal operations (connections, frames, decode results)
//   - Warn: Non-fatal issues (unparseable frames, contained sub-layers)
//   - Error: Fatal issues (startup failures, critical errors)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("Frame decoded",
//	    zap.String("protocol", "ssh2"),
//	    zap.Int("length", 48),
//	)
//
// # Configuration
//
// Logging is silent by default. Initialize from the STRATUM_LOG_LEVEL
// environment variable at startup:
//
//	if err := logging.InitializeFromEnv(); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap
// logger handles synchronization automatically.
package logging
