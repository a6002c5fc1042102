package analysis

import (
	"time"

	"stockscan/internal/model"
)

// Aggregate merges per-task outcomes into the final result set. It is a
// pure function: the same outcomes and bundle always produce the same
// result set, regardless of the order outcomes arrive in. That is the
// property that keeps reports reproducible under concurrency.
//
// Outcomes are re-ordered into registry order. A registered task with no
// matching outcome gets a synthesized failed slot, so the result set
// length always equals the registry length.
func Aggregate(bundle *model.EvidenceBundle, outcomes []model.TaskOutcome, startedAt, endedAt time.Time) *model.AnalysisResultSet {
	return aggregateWith(registry, bundle, outcomes, startedAt, endedAt)
}

// aggregateWith is Aggregate over an explicit task table. The
// orchestrator uses it so that the table it scheduled is the table the
// result set is shaped by.
func aggregateWith(specs []model.TaskSpec, bundle *model.EvidenceBundle, outcomes []model.TaskOutcome, startedAt, endedAt time.Time) *model.AnalysisResultSet {
	byID := make(map[string]model.TaskOutcome, len(outcomes))
	for _, outcome := range outcomes {
		if outcome.TaskID == "" {
			// Zero-value slot: the task never reported. Synthesized below.
			continue
		}
		byID[outcome.TaskID] = outcome
	}

	ordered := make([]model.TaskOutcome, 0, len(specs))
	var successCount, degradedCount, failedCount int

	for _, spec := range specs {
		outcome, ok := byID[spec.ID]
		if !ok {
			outcome = model.TaskOutcome{
				TaskID:      spec.ID,
				DisplayName: spec.DisplayName,
				Status:      model.StatusFailed,
				Findings:    model.UnavailablePlaceholder(spec.DisplayName),
				Err: &model.ErrorInfo{
					Kind:    model.ErrKindInternal,
					Message: "task produced no outcome",
				},
			}
		}

		switch outcome.Status {
		case model.StatusSuccess:
			successCount++
		case model.StatusDegraded:
			degradedCount++
		case model.StatusFailed:
			failedCount++
		}
		ordered = append(ordered, outcome)
	}

	availability := make(map[string]bool, len(bundle.Availability))
	for kind, ok := range bundle.Availability {
		availability[kind.String()] = ok
	}

	return &model.AnalysisResultSet{
		Company:            bundle.Company,
		Outcomes:           ordered,
		StartedAt:          startedAt,
		EndedAt:            endedAt,
		SuccessCount:       successCount,
		DegradedCount:      degradedCount,
		FailedCount:        failedCount,
		Status:             runStatus(successCount, degradedCount, failedCount),
		SourceAvailability: availability,
	}
}

// runStatus derives the overall run state from the counts: a clean sweep
// of successes is RunSuccess, a total loss is RunFailed, and anything in
// between (including degraded-only runs) is RunPartialSuccess.
func runStatus(success, degraded, failed int) model.RunStatus {
	total := success + degraded + failed
	switch {
	case total > 0 && success == total:
		return model.RunSuccess
	case total > 0 && failed == total:
		return model.RunFailed
	default:
		return model.RunPartialSuccess
	}
}
