// Package model defines the core data types shared across the analysis
// engine: evidence items and bundles, task specifications, per-task
// outcomes, and the final analysis result set.
//
// Types in this package are plain data carriers with no I/O. Evidence
// bundles are built once per run and shared read-only across concurrent
// task runners; outcomes are created exactly once per task and never
// mutated after construction. Keeping these types free of behavior makes
// the orchestration layers easy to test in isolation.
package model
