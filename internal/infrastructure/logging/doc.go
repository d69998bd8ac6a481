// Package logging provides structured logging for Hearth Core.
//
// It wraps log/slog so every component logs with the same shape:
// JSON in production, text during development, and the default
// attributes service and version on every record.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr, discard
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	busLog := logger.Component("bus")
//	busLog.Warn("publish failed", "topic", topic, "error", err)
//
// Never log secrets such as the MQTT password or JWT secret.
package logging
