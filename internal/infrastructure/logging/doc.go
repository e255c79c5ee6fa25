// Package logging wraps log/slog with the conventions used across the
// service: JSON output in production, text for local development, a
// service/version field on every record, and level filtering driven by
// the logging section of config.yaml.
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("starting service", "port", 8080)
//
// Component loggers are derived with With:
//
//	apiLog := logger.With("component", "api")
//
// Secrets, tokens, and password hashes must never appear in log lines.
package logging
