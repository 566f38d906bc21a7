package environment

import "context"

// Environment represents the application environment.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

type contextKey struct{}

// WithContext attaches the environment to the context.
func WithContext(ctx context.Context, env string) context.Context {
	return context.WithValue(ctx, contextKey{}, env)
}

// FromContext retrieves the environment from the context, or "" if unset.
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	env, _ := ctx.Value(contextKey{}).(string)
	return env
}

// IsProduction reports whether the context's environment is production.
// Both "production" and "prod" count; production gates dev-credit top-ups.
func IsProduction(ctx context.Context) bool {
	env := FromContext(ctx)
	return env == string(Production) || env == "prod"
}

// IsDevelopment reports whether the context's environment is development.
func IsDevelopment(ctx context.Context) bool {
	env := FromContext(ctx)
	return env == string(Development) || env == "dev"
}

// IsStaging reports whether the context's environment is staging.
func IsStaging(ctx context.Context) bool {
	env := FromContext(ctx)
	return env == string(Staging) || env == "stage"
}
