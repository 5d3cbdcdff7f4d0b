// Package files finds the dataset tables a curation run works on.
//
// An input directory holds one table per target, either .csv or .xlsx. The
// dataset name is the file stem. Outputs of earlier runs (MLReady_ and
// conflict log files) and Office lock files are never picked up, so the
// input and output directories may coincide.
//
// Example usage:
//
//	found, err := files.Discover(paths.InputDir)
//	if err != nil {
//	    return err
//	}
//	for _, f := range found {
//	    ds, err := dataset.ReadFile(f.Path)
//	    ...
//	}
package files
