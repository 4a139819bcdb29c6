// Package logger builds configured log/slog loggers.
//
// The factory defaults to JSON output at INFO level, which suits log
// aggregation in production. Development environments switch to the text
// handler at DEBUG level via WithEnvironment.
//
//	log := logger.New(logger.WithEnvironment(cfg.Environment, "portal"))
//	slog.SetDefault(log)
package logger
