package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"stockscan/internal/database"
	"stockscan/internal/model"
)

// openHistoryTestDB opens a database in a temporary directory.
func openHistoryTestDB(t *testing.T) *database.HistoryDB {
	t.Helper()

	db, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close database: %v", err)
		}
	})
	return db
}

// historyResultSet creates a result set with the given per-task statuses.
func historyResultSet(name string, statuses map[string]model.TaskStatus) *model.AnalysisResultSet {
	started := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	result := &model.AnalysisResultSet{
		Company:   model.Company{Name: name, Code: "600019.SH"},
		StartedAt: started,
		EndedAt:   started.Add(time.Minute),
		SourceAvailability: map[string]bool{
			"knowledge": true,
		},
	}

	for id, status := range statuses {
		outcome := model.TaskOutcome{
			TaskID:      id,
			DisplayName: id,
			Status:      status,
			Findings:    "findings for " + id,
			Attempts:    1,
		}
		result.Outcomes = append(result.Outcomes, outcome)

		switch status {
		case model.StatusSuccess:
			result.SuccessCount++
		case model.StatusDegraded:
			result.DegradedCount++
		case model.StatusFailed:
			result.FailedCount++
		}
	}

	switch {
	case result.FailedCount == len(result.Outcomes):
		result.Status = model.RunFailed
	case result.SuccessCount == len(result.Outcomes):
		result.Status = model.RunSuccess
	default:
		result.Status = model.RunPartialSuccess
	}

	return result
}

// TestNewHistoryCmd tests the history command creation.
func TestNewHistoryCmd(t *testing.T) {
	t.Parallel()

	cmd := NewHistoryCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "history [company]" {
			t.Errorf("expected use 'history [company]', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has list-companies flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("list-companies")
		if flag == nil {
			t.Fatal("expected list-companies flag")
		}
		if flag.Shorthand != "L" {
			t.Errorf("expected shorthand 'L', got %q", flag.Shorthand)
		}
	})

	t.Run("has show-id flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("show-id")
		if flag == nil {
			t.Fatal("expected show-id flag")
		}
		if flag.Shorthand != "i" {
			t.Errorf("expected shorthand 'i', got %q", flag.Shorthand)
		}
	})

	t.Run("has compare flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("compare")
		if flag == nil {
			t.Fatal("expected compare flag")
		}
		if flag.Shorthand != "C" {
			t.Errorf("expected shorthand 'C', got %q", flag.Shorthand)
		}
	})

	t.Run("has json flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("json")
		if flag == nil {
			t.Fatal("expected json flag")
		}
		if flag.Shorthand != "j" {
			t.Errorf("expected shorthand 'j', got %q", flag.Shorthand)
		}
	})
}

// TestRunHistoryCmdRequiresCompany tests that a company argument is required.
func TestRunHistoryCmdRequiresCompany(t *testing.T) {
	t.Parallel()

	rootCmd := NewRootCmd()
	rootCmd.SetArgs([]string{"history"})

	err := rootCmd.Execute()
	if err == nil {
		t.Error("expected error when no company specified")
	}
	if !strings.Contains(err.Error(), "company name is required") {
		t.Errorf("expected 'company name is required' error, got: %v", err)
	}
}

// TestRunHistoryCmdInvalidCompany tests the history command with an empty identifier.
func TestRunHistoryCmdInvalidCompany(t *testing.T) {
	t.Parallel()

	rootCmd := NewRootCmd()
	rootCmd.SetArgs([]string{"history", "   "})

	err := rootCmd.Execute()
	if err == nil {
		t.Error("expected error for empty company identifier")
	}
	if !strings.Contains(err.Error(), "invalid company identifier") {
		t.Errorf("expected 'invalid company identifier' error, got: %v", err)
	}
}

// TestCompareRuns tests run comparison logic.
func TestCompareRuns(t *testing.T) {
	t.Parallel()

	t.Run("detects changed tasks", func(t *testing.T) {
		t.Parallel()

		previous := historyResultSet("Acme", map[string]model.TaskStatus{
			"phase": model.StatusSuccess,
			"moat":  model.StatusFailed,
			"risk":  model.StatusSuccess,
		})
		current := historyResultSet("Acme", map[string]model.TaskStatus{
			"phase": model.StatusSuccess,
			"moat":  model.StatusSuccess,
			"risk":  model.StatusDegraded,
		})

		result := compareRuns(previous, current)

		if len(result.TaskChanges) != 2 {
			t.Fatalf("expected 2 task changes, got %d", len(result.TaskChanges))
		}
		if result.UnchangedCount != 1 {
			t.Errorf("expected 1 unchanged task, got %d", result.UnchangedCount)
		}

		changes := make(map[string]TaskChange, len(result.TaskChanges))
		for _, change := range result.TaskChanges {
			changes[change.TaskID] = change
		}
		if changes["moat"].PreviousStatus != "FAILED" || changes["moat"].CurrentStatus != "SUCCESS" {
			t.Errorf("unexpected moat change: %+v", changes["moat"])
		}
		if changes["risk"].PreviousStatus != "SUCCESS" || changes["risk"].CurrentStatus != "DEGRADED" {
			t.Errorf("unexpected risk change: %+v", changes["risk"])
		}
	})

	t.Run("identical runs produce no changes", func(t *testing.T) {
		t.Parallel()

		statuses := map[string]model.TaskStatus{
			"phase": model.StatusSuccess,
			"moat":  model.StatusSuccess,
		}
		result := compareRuns(historyResultSet("Acme", statuses), historyResultSet("Acme", statuses))

		if len(result.TaskChanges) != 0 {
			t.Errorf("expected no task changes, got %d", len(result.TaskChanges))
		}
		if result.UnchangedCount != 2 {
			t.Errorf("expected 2 unchanged tasks, got %d", result.UnchangedCount)
		}
		if result.Trend != trendUnchanged {
			t.Errorf("expected trend %q, got %q", trendUnchanged, result.Trend)
		}
	})

	t.Run("carries run summaries", func(t *testing.T) {
		t.Parallel()

		previous := historyResultSet("Acme", map[string]model.TaskStatus{
			"phase": model.StatusFailed,
		})
		current := historyResultSet("Acme", map[string]model.TaskStatus{
			"phase": model.StatusSuccess,
		})

		result := compareRuns(previous, current)

		if result.Company != "Acme, 600019.SH" {
			t.Errorf("expected company 'Acme, 600019.SH', got %q", result.Company)
		}
		if result.PreviousRun.Status != "FAILED" {
			t.Errorf("expected previous status FAILED, got %q", result.PreviousRun.Status)
		}
		if result.CurrentRun.Status != "SUCCESS" {
			t.Errorf("expected current status SUCCESS, got %q", result.CurrentRun.Status)
		}
	})
}

// TestCalculateTrend tests the trend calculation between runs.
func TestCalculateTrend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		previous RunSummary
		current  RunSummary
		want     string
	}{
		{
			name:     "fewer failures improves",
			previous: RunSummary{FailedCount: 2},
			current:  RunSummary{FailedCount: 1},
			want:     trendImproved,
		},
		{
			name:     "more failures worsens",
			previous: RunSummary{FailedCount: 0},
			current:  RunSummary{FailedCount: 1},
			want:     trendWorsened,
		},
		{
			name:     "same counts unchanged",
			previous: RunSummary{DegradedCount: 1},
			current:  RunSummary{DegradedCount: 1},
			want:     trendUnchanged,
		},
		{
			name:     "failure outweighs recovered degradations",
			previous: RunSummary{DegradedCount: 5},
			current:  RunSummary{FailedCount: 1},
			want:     trendWorsened,
		},
		{
			name:     "degradation traded for success improves",
			previous: RunSummary{DegradedCount: 2},
			current:  RunSummary{DegradedCount: 1},
			want:     trendImproved,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := calculateTrend(tt.previous, tt.current)
			if got != tt.want {
				t.Errorf("calculateTrend() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestFormatTaskSummary tests the task summary formatting.
func TestFormatTaskSummary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		summary map[string]int
		want    string
	}{
		{
			name:    "nil summary",
			summary: nil,
			want:    "N/A",
		},
		{
			name:    "empty summary",
			summary: map[string]int{},
			want:    noRunsMessage,
		},
		{
			name:    "all statuses",
			summary: map[string]int{"succeeded": 5, "degraded": 1, "failed": 1},
			want:    "OK:5 DEG:1 FAIL:1",
		},
		{
			name:    "only successes",
			summary: map[string]int{"succeeded": 7},
			want:    "OK:7",
		},
		{
			name:    "zero counts omitted",
			summary: map[string]int{"succeeded": 3, "degraded": 0, "failed": 0},
			want:    "OK:3",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := formatTaskSummary(tt.summary)
			if got != tt.want {
				t.Errorf("formatTaskSummary() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestFormatDelta tests delta formatting.
func TestFormatDelta(t *testing.T) {
	t.Parallel()

	tests := []struct {
		delta int
		want  string
	}{
		{delta: 3, want: "+3"},
		{delta: -2, want: "-2"},
		{delta: 0, want: "0"},
	}

	for _, tt := range tests {
		if got := formatDelta(tt.delta); got != tt.want {
			t.Errorf("formatDelta(%d) = %q, want %q", tt.delta, got, tt.want)
		}
	}
}

// TestFormatTrend tests trend formatting.
func TestFormatTrend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		trend string
		want  string
	}{
		{trend: trendImproved, want: "IMPROVED (fewer failures)"},
		{trend: trendWorsened, want: "WORSENED (more failures)"},
		{trend: trendUnchanged, want: "UNCHANGED"},
		{trend: "bogus", want: "UNCHANGED"},
	}

	for _, tt := range tests {
		if got := formatTrend(tt.trend); got != tt.want {
			t.Errorf("formatTrend(%q) = %q, want %q", tt.trend, got, tt.want)
		}
	}
}

// TestRunHistoryComparison tests comparison against a populated database.
func TestRunHistoryComparison(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("requires at least two runs", func(t *testing.T) {
		t.Parallel()

		db := openHistoryTestDB(t)
		if err := db.SaveResultSet(ctx, historyResultSet("Acme", map[string]model.TaskStatus{
			"phase": model.StatusSuccess,
		})); err != nil {
			t.Fatalf("failed to save result: %v", err)
		}

		err := runHistoryComparison(ctx, db, "Acme", false)
		if err == nil {
			t.Error("expected error with a single run")
		}
		if !strings.Contains(err.Error(), "at least 2 runs") {
			t.Errorf("expected 'at least 2 runs' error, got: %v", err)
		}
	})

	t.Run("errors for unknown company", func(t *testing.T) {
		t.Parallel()

		db := openHistoryTestDB(t)
		err := runHistoryComparison(ctx, db, "Unknown", false)
		if err == nil {
			t.Error("expected error for unknown company")
		}
	})

	t.Run("compares latest two runs", func(t *testing.T) {
		t.Parallel()

		db := openHistoryTestDB(t)
		if err := db.SaveResultSet(ctx, historyResultSet("Acme", map[string]model.TaskStatus{
			"phase": model.StatusFailed,
		})); err != nil {
			t.Fatalf("failed to save first run: %v", err)
		}
		if err := db.SaveResultSet(ctx, historyResultSet("Acme", map[string]model.TaskStatus{
			"phase": model.StatusSuccess,
		})); err != nil {
			t.Fatalf("failed to save second run: %v", err)
		}

		if err := runHistoryComparison(ctx, db, "Acme", false); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if err := runHistoryComparison(ctx, db, "Acme", true); err != nil {
			t.Errorf("unexpected error with JSON output: %v", err)
		}
	})
}

// TestShowRecordedRun tests printing recorded reports by ID.
func TestShowRecordedRun(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("errors for missing run", func(t *testing.T) {
		t.Parallel()

		db := openHistoryTestDB(t)
		err := showRecordedRun(ctx, db, "Acme", 999, false, false)
		if err == nil {
			t.Error("expected error for missing run ID")
		}
		if !strings.Contains(err.Error(), "not found") {
			t.Errorf("expected 'not found' error, got: %v", err)
		}
	})

	t.Run("rejects run belonging to another company", func(t *testing.T) {
		t.Parallel()

		db := openHistoryTestDB(t)
		if err := db.SaveResultSet(ctx, historyResultSet("Other Corp", map[string]model.TaskStatus{
			"phase": model.StatusSuccess,
		})); err != nil {
			t.Fatalf("failed to save result: %v", err)
		}

		runs, err := db.GetRunHistoryWithMetadata(ctx, "Other Corp")
		if err != nil || len(runs) != 1 {
			t.Fatalf("failed to load run metadata: %v", err)
		}

		err = showRecordedRun(ctx, db, "Acme", runs[0].ID, false, false)
		if err == nil {
			t.Error("expected error for mismatched company")
		}
		if !strings.Contains(err.Error(), "belongs to") {
			t.Errorf("expected 'belongs to' error, got: %v", err)
		}
	})

	t.Run("prints recorded run", func(t *testing.T) {
		t.Parallel()

		db := openHistoryTestDB(t)
		if err := db.SaveResultSet(ctx, historyResultSet("Acme", map[string]model.TaskStatus{
			"phase": model.StatusSuccess,
		})); err != nil {
			t.Fatalf("failed to save result: %v", err)
		}

		runs, err := db.GetRunHistoryWithMetadata(ctx, "Acme")
		if err != nil || len(runs) != 1 {
			t.Fatalf("failed to load run metadata: %v", err)
		}

		if err := showRecordedRun(ctx, db, "Acme", runs[0].ID, false, false); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

// TestListRunHistory tests the run history listing.
func TestListRunHistory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("no history is not an error", func(t *testing.T) {
		t.Parallel()

		db := openHistoryTestDB(t)
		if err := listRunHistory(ctx, db, "Acme"); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("lists recorded runs", func(t *testing.T) {
		t.Parallel()

		db := openHistoryTestDB(t)
		if err := db.SaveResultSet(ctx, historyResultSet("Acme", map[string]model.TaskStatus{
			"phase": model.StatusSuccess,
			"moat":  model.StatusDegraded,
		})); err != nil {
			t.Fatalf("failed to save result: %v", err)
		}

		if err := listRunHistory(ctx, db, "Acme"); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

// TestListRecordedCompanies tests the company listing.
func TestListRecordedCompanies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("empty database is not an error", func(t *testing.T) {
		t.Parallel()

		db := openHistoryTestDB(t)
		if err := listRecordedCompanies(ctx, db); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("lists companies with records", func(t *testing.T) {
		t.Parallel()

		db := openHistoryTestDB(t)
		if err := db.SaveResultSet(ctx, historyResultSet("Acme", map[string]model.TaskStatus{
			"phase": model.StatusSuccess,
		})); err != nil {
			t.Fatalf("failed to save result: %v", err)
		}

		if err := listRecordedCompanies(ctx, db); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
