package model

// TaskStatus is the terminal state of one analysis task.
type TaskStatus int

const (
	// StatusSuccess means the task completed with full-confidence evidence.
	StatusSuccess TaskStatus = iota

	// StatusDegraded means the task completed, but a preferred evidence
	// source was unavailable and lower-priority material was used instead.
	StatusDegraded

	// StatusFailed means no findings could be produced. The outcome
	// carries placeholder findings and the error that caused the failure.
	StatusFailed
)

// String returns a human-readable representation of the task status.
func (s TaskStatus) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusDegraded:
		return "DEGRADED"
	case StatusFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// ErrorKind classifies failures for machine handling. Only
// ErrKindInvalidInput aborts a run; every other kind is contained at the
// task boundary and surfaces as a per-task status.
type ErrorKind int

const (
	// ErrKindInvalidInput is a malformed company identifier. Fatal for
	// the whole run, detected before any I/O.
	ErrKindInvalidInput ErrorKind = iota

	// ErrKindRetryableInference is a transient inference failure
	// (rate limit, timeout, connection reset) that exhausted its retries.
	ErrKindRetryableInference

	// ErrKindFatalInference is a non-retryable inference failure
	// (authentication, quota exhausted, malformed request).
	ErrKindFatalInference

	// ErrKindSourceUnavailable is a single evidence source failing.
	// Degrades the bundle, never fails the run.
	ErrKindSourceUnavailable

	// ErrKindCancelled means the run deadline expired or the caller
	// cancelled before this task completed.
	ErrKindCancelled

	// ErrKindInternal is a defect (panic or other unexpected error)
	// caught at the orchestrator boundary.
	ErrKindInternal
)

// String returns a human-readable representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrKindInvalidInput:
		return "invalid_input"
	case ErrKindRetryableInference:
		return "retryable_inference"
	case ErrKindFatalInference:
		return "fatal_inference"
	case ErrKindSourceUnavailable:
		return "source_unavailable"
	case ErrKindCancelled:
		return "cancelled"
	case ErrKindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// ErrorInfo is the serializable failure record attached to a failed
// outcome.
type ErrorInfo struct {
	// Kind classifies the failure.
	Kind ErrorKind `json:"kind"`

	// Message is the human-readable failure description.
	Message string `json:"message"`
}

// TaskOutcome is the terminal result of one task in one run. A runner
// builds the outcome fully before returning it, and nothing mutates it
// afterwards: this is the isolation boundary the orchestrator depends on.
type TaskOutcome struct {
	// TaskID is the spec ID this outcome belongs to.
	TaskID string `json:"taskId"`

	// DisplayName is copied from the spec so that reports and placeholder
	// text do not need registry lookups.
	DisplayName string `json:"displayName"`

	// Status is the terminal state of the task.
	Status TaskStatus `json:"status"`

	// Findings is the analysis text. Never empty: failed tasks carry an
	// explicit "analysis unavailable" placeholder so renderers never
	// branch on missing sections.
	Findings string `json:"findings"`

	// Caveats records confidence warnings for degraded outcomes, e.g.
	// "structured market data unavailable".
	Caveats []string `json:"caveats,omitempty"`

	// Err describes the failure for failed outcomes, nil otherwise.
	Err *ErrorInfo `json:"error,omitempty"`

	// Attempts is how many inference calls were made, including retries.
	Attempts int `json:"attempts"`

	// ElapsedMs is the task wall time in milliseconds.
	ElapsedMs int64 `json:"elapsedMs"`
}

// UnavailablePlaceholder returns the findings text used when a task
// produces no analysis. Kept in one place so every failure path renders
// the same marker.
func UnavailablePlaceholder(displayName string) string {
	return "Analysis unavailable for " + displayName + "."
}
