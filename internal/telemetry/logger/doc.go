// Package logger provides structured logging for synckit.
//
// It wraps log/slog behind a small Logger interface:
//
//   - logger.go: handler construction, level control, process default
//   - context.go: context-carried logger, run ID and component fields
//
// Features:
//
//   - JSON and text output formats
//   - Log level filtering, adjustable at runtime (config hot reload)
//   - Context propagation of stress run IDs
//   - A discarding logger for libraries that were given none
package logger
