package analysis

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"stockscan/internal/model"
)

func successOutcomes() []model.TaskOutcome {
	specs := Registry()
	outcomes := make([]model.TaskOutcome, 0, len(specs))
	for _, spec := range specs {
		outcomes = append(outcomes, model.TaskOutcome{
			TaskID:      spec.ID,
			DisplayName: spec.DisplayName,
			Status:      model.StatusSuccess,
			Findings:    "findings for " + spec.ID,
			Attempts:    1,
		})
	}
	return outcomes
}

func TestAggregate(t *testing.T) {
	t.Parallel()

	startedAt := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	endedAt := startedAt.Add(42 * time.Second)

	t.Run("is deterministic regardless of completion order", func(t *testing.T) {
		t.Parallel()

		bundle := testBundle(t, true)
		outcomes := successOutcomes()

		shuffled := make([]model.TaskOutcome, len(outcomes))
		copy(shuffled, outcomes)
		for i, j := 0, len(shuffled)-1; i < j; i, j = i+1, j-1 {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		}

		got := Aggregate(bundle, shuffled, startedAt, endedAt)
		want := Aggregate(bundle, outcomes, startedAt, endedAt)

		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("result sets differ by arrival order (-want +got):\n%s", diff)
		}
		for i, spec := range Registry() {
			if got.Outcomes[i].TaskID != spec.ID {
				t.Errorf("position %d: expected %q, got %q", i, spec.ID, got.Outcomes[i].TaskID)
			}
		}
	})

	t.Run("synthesizes a failed slot for a task that never reported", func(t *testing.T) {
		t.Parallel()

		outcomes := successOutcomes()
		// Drop one and leave a zero-value slot for another, mimicking a
		// run where two goroutines never delivered.
		outcomes = outcomes[:len(outcomes)-1]
		outcomes[2] = model.TaskOutcome{}

		result := Aggregate(testBundle(t, true), outcomes, startedAt, endedAt)

		if len(result.Outcomes) != TaskCount() {
			t.Fatalf("expected %d outcomes, got %d", TaskCount(), len(result.Outcomes))
		}
		if result.FailedCount != 2 {
			t.Fatalf("expected 2 synthesized failures, got %d", result.FailedCount)
		}
		for _, outcome := range result.Outcomes {
			if outcome.Status != model.StatusFailed {
				continue
			}
			if outcome.Err == nil || outcome.Err.Kind != model.ErrKindInternal {
				t.Errorf("task %s: expected internal error kind, got %+v", outcome.TaskID, outcome.Err)
			}
			if outcome.Findings == "" {
				t.Errorf("task %s: synthesized slot must carry placeholder findings", outcome.TaskID)
			}
		}
	})

	t.Run("derives the overall run status from the counts", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name     string
			statuses []model.TaskStatus
			want     model.RunStatus
		}{
			{
				name:     "all success",
				statuses: []model.TaskStatus{model.StatusSuccess, model.StatusSuccess},
				want:     model.RunSuccess,
			},
			{
				name:     "all failed",
				statuses: []model.TaskStatus{model.StatusFailed, model.StatusFailed},
				want:     model.RunFailed,
			},
			{
				name:     "mixed",
				statuses: []model.TaskStatus{model.StatusSuccess, model.StatusFailed},
				want:     model.RunPartialSuccess,
			},
			{
				name:     "all degraded",
				statuses: []model.TaskStatus{model.StatusDegraded, model.StatusDegraded},
				want:     model.RunPartialSuccess,
			},
			{
				name:     "degraded and success",
				statuses: []model.TaskStatus{model.StatusSuccess, model.StatusDegraded},
				want:     model.RunPartialSuccess,
			},
		}

		for _, tt := range tests {
			tt := tt
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				specs := []model.TaskSpec{
					{ID: "alpha", DisplayName: "Alpha"},
					{ID: "beta", DisplayName: "Beta"},
				}
				outcomes := make([]model.TaskOutcome, len(tt.statuses))
				for i, status := range tt.statuses {
					outcomes[i] = model.TaskOutcome{
						TaskID:      specs[i].ID,
						DisplayName: specs[i].DisplayName,
						Status:      status,
						Findings:    "x",
					}
				}

				result := aggregateWith(specs, testBundle(t, true), outcomes, startedAt, endedAt)

				if result.Status != tt.want {
					t.Errorf("expected %s, got %s", tt.want, result.Status)
				}
			})
		}
	})

	t.Run("records source availability by kind name", func(t *testing.T) {
		t.Parallel()

		result := Aggregate(testBundle(t, true), successOutcomes(), startedAt, endedAt)

		want := map[string]bool{
			"uploaded":   false,
			"structured": true,
			"knowledge":  true,
		}
		if diff := cmp.Diff(want, result.SourceAvailability); diff != "" {
			t.Errorf("availability mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("carries the run window", func(t *testing.T) {
		t.Parallel()

		result := Aggregate(testBundle(t, true), successOutcomes(), startedAt, endedAt)

		if !result.StartedAt.Equal(startedAt) || !result.EndedAt.Equal(endedAt) {
			t.Errorf("unexpected run window: %v .. %v", result.StartedAt, result.EndedAt)
		}
		if result.Elapsed() != 42*time.Second {
			t.Errorf("expected 42s elapsed, got %v", result.Elapsed())
		}
	})
}
