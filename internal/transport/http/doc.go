// Package http implements the HTTP handlers of the curation API. Handlers
// stay thin: they parse and validate the request, delegate to a service and
// render the result. Every failure goes through the shared RFC 7807 error
// handler.
//
// Routes, relative to /api:
//
//	GET  /health         liveness
//	GET  /health/ready   readiness, 503 when the run ledger is unreachable
//	GET  /version        build information
//	GET  /runs           recorded runs, newest first (?limit=1..500)
//	POST /runs           execute a run: {"input_dir": "...", "mode": "full"}
//	GET  /runs/active    IDs of runs in progress
//	GET  /runs/{id}      one recorded run with its datasets
package http
