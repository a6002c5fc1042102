package analysis

import (
	"testing"

	"stockscan/internal/model"
)

func TestRegistry(t *testing.T) {
	t.Parallel()

	t.Run("contains the seven-step framework in report order", func(t *testing.T) {
		t.Parallel()

		specs := Registry()
		wantOrder := []string{"phase", "business", "moat", "growth", "metrics", "risk", "valuation"}

		if len(specs) != len(wantOrder) {
			t.Fatalf("expected %d tasks, got %d", len(wantOrder), len(specs))
		}
		for i, want := range wantOrder {
			if specs[i].ID != want {
				t.Errorf("position %d: expected task %q, got %q", i, want, specs[i].ID)
			}
		}
	})

	t.Run("every task can fall back to model knowledge", func(t *testing.T) {
		t.Parallel()

		for _, spec := range Registry() {
			if !spec.RequiresSource(model.SourceKnowledge) {
				t.Errorf("task %s does not list the knowledge field", spec.ID)
			}
		}
	})

	t.Run("returned slice is a copy", func(t *testing.T) {
		t.Parallel()

		specs := Registry()
		specs[0].ID = "mutated"

		if Registry()[0].ID == "mutated" {
			t.Error("mutating the returned slice must not affect the registry")
		}
	})

	t.Run("task count matches registry length", func(t *testing.T) {
		t.Parallel()

		if TaskCount() != len(Registry()) {
			t.Error("TaskCount disagrees with Registry length")
		}
	})
}
