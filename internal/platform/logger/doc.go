// Package logger installs the process-wide JSON slog logger and moves
// request- and task-scoped loggers through context.Context.
package logger
