package ratelimit

import (
	"net/http"
	"strconv"

	"github.com/dmitrymomot/billingkit/pkg/clientip"
)

// KeyFunc extracts a rate limit identifier from the request.
// Returning an empty string skips the check for that request.
type KeyFunc func(r *http.Request) string

// IPKeyFunc identifies requests by client IP, honoring proxy headers.
func IPKeyFunc(r *http.Request) string {
	return clientip.GetIP(r)
}

// HeaderKeyFunc identifies requests by a header value, e.g. an API key.
func HeaderKeyFunc(header string) KeyFunc {
	return func(r *http.Request) string {
		return r.Header.Get(header)
	}
}

// Middleware enforces a single definition per request using keyFunc as the
// identifier source. Denied requests get a 429 with a Retry-After header.
func Middleware(limiter *Limiter, def Definition, keyFunc KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result := limiter.Check(r.Context(), Check{
				Definition: def,
				Identifier: keyFunc(r),
			})

			if !result.Success {
				w.Header().Set("Retry-After", strconv.Itoa(RetryAfterSeconds(result.Reset)))
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
