// Package logger configures structured JSON logging on top of log/slog and
// provides helpers for carrying a request-scoped logger through a context.
package logger
