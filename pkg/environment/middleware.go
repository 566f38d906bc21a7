package environment

import "net/http"

// Middleware attaches the given environment to every request context so
// downstream handlers and loggers can branch on it without extra plumbing.
func Middleware(env Environment) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), string(env))))
		})
	}
}
