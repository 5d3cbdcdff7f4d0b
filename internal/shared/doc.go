// Package shared holds helpers used across the curation packages that do not
// belong to any one domain layer.
//
// testutil provides log capture for asserting on structured log output and
// small fixture writers for dataset files.
package shared
