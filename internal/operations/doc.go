// Package operations runs curation pipelines as a sequence of steps.
//
// A run loads every dataset table of an input directory, then applies the
// steps of its mode:
//
//	full   load, score, resolve, label, export
//	score  load, score, rewrite
//	label  load, label, export
//
// Core Components:
//
// Manager: executes the steps of a run in order, stops at the first failure
// and marks the remaining steps skipped. Every run and step gets a span and
// its duration is recorded as a metric. Finished runs are handed to a
// RunRecorder when one is configured.
//
// Step: a single unit of work. Steps share an OperationState which carries
// the loaded datasets and the per-dataset results.
//
// Registry: holds the registered steps by id.
//
// Example usage:
//
//	manager, err := operations.NewCurationManager(cfg, paths, providers, ledger, logger)
//	if err != nil {
//		return err
//	}
//	resp, err := manager.Run(ctx, operations.Request{Mode: config.ModeFull})
package operations
