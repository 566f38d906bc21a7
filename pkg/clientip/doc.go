// Package clientip extracts the real client IP from proxied HTTP requests.
// The rate limiter uses it as the identifier for per-IP limits, so every
// header candidate is validated before use.
package clientip
