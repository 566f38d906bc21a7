// Package requestid propagates a correlation id through HTTP middleware,
// context, and structured logs so all records for one request, including
// its billing decisions, can be tied together when troubleshooting.
package requestid
