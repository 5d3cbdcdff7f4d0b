// Package middleware holds the HTTP middleware chain of the curation API:
// request IDs, tracing, structured request logs, panic recovery, rate
// limiting and request body validation.
package middleware
