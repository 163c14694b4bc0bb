// Package logging provides structured logging for mqttsub.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured diagnostics across the application.
//
// # Features
//
//   - Text output by default, JSON on request
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - Writes to stderr so stdout stays reserved for received messages
//
// # Configuration
//
//	--log-level   / MQTTSUB_LOGGING_LEVEL    debug, info, warn, error
//	--log-format  / MQTTSUB_LOGGING_FORMAT   text, json
//	MQTTSUB_LOGGING_OUTPUT                   stderr, stdout
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("connected", "broker", target)
//	logger.Warn("error reconnecting", "error", err, "retry_in", delay)
//
// # Security
//
// Never log passwords. Only the username is included in connection diagnostics.
package logging
