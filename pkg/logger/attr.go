package logger

import (
	"log/slog"
	"strconv"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Error creates an attribute for a single error under the key "error".
// Returns an empty Attr for nil errors.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Errors groups multiple non-nil errors under the key "errors".
// Returns an empty Attr when all errors are nil.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// WalletID records the wallet identifier under the key "wallet_id".
func WalletID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("wallet_id", id)
}

// Owner records the wallet owner under grouped "owner" keys.
func Owner(ownerType, ownerID string) slog.Attr {
	return Group("owner",
		slog.String("type", ownerType),
		slog.String("id", ownerID),
	)
}

// Component records the subsystem emitting the log line.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}
