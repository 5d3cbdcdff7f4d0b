// Package services sits between the HTTP handlers and the curation core.
//
// RunService starts runs on the operations manager and reads the run ledger,
// translating run failures into API errors. HealthService reports liveness,
// readiness and build information.
package services
