package model

import "time"

// RunStatus is the overall state of one analysis run.
type RunStatus int

const (
	// RunSuccess means every task completed with StatusSuccess.
	RunSuccess RunStatus = iota

	// RunPartialSuccess means the run produced usable findings but not a
	// clean sweep: some tasks degraded or failed while others succeeded.
	RunPartialSuccess

	// RunFailed means every task failed.
	RunFailed
)

// String returns a human-readable representation of the run status.
func (s RunStatus) String() string {
	switch s {
	case RunSuccess:
		return "SUCCESS"
	case RunPartialSuccess:
		return "PARTIAL_SUCCESS"
	case RunFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// AnalysisResultSet is the final artifact of one run: one outcome per
// registered task, in registry order, plus run metadata. Assembled once
// by the aggregator and handed off immutably to renderers and storage.
//
// Invariant: len(Outcomes) always equals the number of registered tasks.
// Missing slots are filled with synthesized failed outcomes, never
// silently dropped.
type AnalysisResultSet struct {
	// Company is the analysis target.
	Company Company `json:"company"`

	// Outcomes holds one entry per registered task, in registry order.
	// Completion order under concurrency never leaks into this slice.
	Outcomes []TaskOutcome `json:"outcomes"`

	// StartedAt and EndedAt bound the run wall time.
	StartedAt time.Time `json:"startedAt"`
	EndedAt   time.Time `json:"endedAt"`

	// Summary counts, always consistent with Outcomes.
	SuccessCount  int `json:"successCount"`
	DegradedCount int `json:"degradedCount"`
	FailedCount   int `json:"failedCount"`

	// Status is the overall run state derived from the counts.
	Status RunStatus `json:"status"`

	// SourceAvailability records which evidence sources yielded data,
	// keyed by SourceKind name. Renderers use this for the "data sources
	// used" appendix.
	SourceAvailability map[string]bool `json:"sourceAvailability"`
}

// TaskCount returns the number of outcomes in the result set.
func (r *AnalysisResultSet) TaskCount() int {
	return len(r.Outcomes)
}

// Elapsed returns the run wall time.
func (r *AnalysisResultSet) Elapsed() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}
