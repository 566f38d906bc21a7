// Package logger builds the application's slog.Logger: JSON or text output,
// environment-driven defaults, static service attributes, and context
// extractors that annotate each record with request-scoped values such as
// the environment. Attr helpers keep field names consistent across packages.
package logger
