// Package app wires the curator together and manages its lifecycle.
//
// New resolves paths, opens the run ledger, sets up OpenTelemetry and builds
// the curation manager together with the HTTP router that exposes it. The
// same Application backs both the batch commands and the HTTP server:
//
//	a, err := app.New(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	defer a.Close(context.Background())
//	resp, err := a.RunBatch(ctx, operations.Request{Mode: config.ModeFull})
//
// Serve runs the HTTP server until its context is cancelled and then shuts
// down gracefully within Server.ShutdownTimeout.
package app
