// Package analysis is the orchestration core: it schedules the fixed
// set of analysis tasks concurrently over a shared evidence bundle,
// isolates per-task failures, and aggregates the outcomes into one
// deterministic result set.
//
// The design is fork/join, not a pipeline: every task is independent,
// runs against its own read-only evidence projection, and terminates in
// exactly one TaskOutcome no matter what goes wrong inside it. One
// task's failure never cancels another task. Completion order under
// concurrency is unspecified and is erased by the aggregator, which
// re-orders outcomes into registry order before the result set is
// handed to renderers.
package analysis
