// Package logger provides structured logging for mcellckpt.
//
// It wraps log/slog:
//
//   - logger.go: handler construction, level control, package-level helpers
//   - context.go: context propagation of the logger and the run id
//
// Output is JSON by default; log.format selects text.
package logger
