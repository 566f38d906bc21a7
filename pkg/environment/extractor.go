package environment

import (
	"context"
	"log/slog"
)

// LoggerExtractor returns a logger context extractor that annotates records
// with the request's environment when one is attached.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if env := FromContext(ctx); env != "" {
			return slog.String("env", env), true
		}
		return slog.Attr{}, false
	}
}
