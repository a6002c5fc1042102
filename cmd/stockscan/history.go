package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"stockscan/internal/config"
	"stockscan/internal/database"
	"stockscan/internal/model"
	"stockscan/internal/report"
)

// Constants for trend direction and summary messages.
const (
	trendImproved  = "improved"
	trendWorsened  = "worsened"
	trendUnchanged = "unchanged"
	noRunsMessage  = "No runs"
)

// NewHistoryCmd creates the history command.
// This command inspects and compares analysis runs stored in the database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [company]",
		Short: "Inspect and compare recorded analysis runs",
		Long: `History lists recorded analysis runs and compares them over time.

Every 'stockscan analyze' run is saved to a local database unless
--no-save was given. This command retrieves those records and shows:
- All companies with recorded runs
- The run history of one company
- A full report for a specific recorded run
- Task-level changes between the latest two runs

Examples:
  # List all companies in the database
  stockscan history --list-companies

  # List recorded runs for a company
  stockscan history "Acme Widgets"

  # Print the full report of a specific run by ID
  stockscan history --show-id 5 "Acme Widgets"

  # Compare the latest two runs task by task
  stockscan history --compare "Acme Widgets"

  # Output in JSON format
  stockscan history --compare --json "Acme Widgets"`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	// Listing flags
	cmd.Flags().BoolP("list-companies", "L", false,
		"List all companies with recorded runs")

	// Run selection flags
	cmd.Flags().Int64P("show-id", "i", 0,
		"Print the full report of a specific run by ID")
	cmd.Flags().BoolP("compare", "C", false,
		"Compare the latest two runs for the company")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output report in Markdown format (with --show-id)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	// Handle --list-companies flag first (requires database but no company)
	listCompanies, err := cmd.Flags().GetBool("list-companies")
	if err != nil {
		return err
	}

	// Validate arguments before opening database (unless --list-companies)
	var companyName string
	if !listCompanies {
		// Require a company for other operations
		if len(args) == 0 {
			return errors.New("company name is required (use --list-companies to see recorded companies)")
		}

		company, err := model.ParseCompanyID(args[0])
		if err != nil {
			return fmt.Errorf("invalid company identifier: %w", err)
		}
		companyName = company.Name
	}

	// Use XDG data directory for database
	dbDir := config.XDGDataDir()

	// Open database
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	// Handle --list-companies flag
	if listCompanies {
		return listRecordedCompanies(ctx, db)
	}

	// Get output format flags
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}

	// Handle --show-id flag
	showID, err := cmd.Flags().GetInt64("show-id")
	if err != nil {
		return err
	}
	if showID > 0 {
		return showRecordedRun(ctx, db, companyName, showID, jsonOutput, markdownOutput)
	}

	// Handle --compare flag
	compare, err := cmd.Flags().GetBool("compare")
	if err != nil {
		return err
	}
	if compare {
		return runHistoryComparison(ctx, db, companyName, jsonOutput)
	}

	// Default: list run history for the company
	return listRunHistory(ctx, db, companyName)
}

// listRecordedCompanies lists all companies that have run records in the database.
func listRecordedCompanies(ctx context.Context, db *database.HistoryDB) error {
	companies, err := db.ListCompanies(ctx)
	if err != nil {
		return fmt.Errorf("failed to list companies: %w", err)
	}

	if len(companies) == 0 {
		fmt.Println("No recorded runs found in the database.")
		fmt.Println("\nUse 'stockscan analyze <company>' to analyze a company.")
		return nil
	}

	fmt.Printf("Recorded companies (%d):\n\n", len(companies))
	for _, company := range companies {
		fmt.Printf("  • %s\n", company)
	}
	fmt.Println("\nUse 'stockscan history <company>' to see the run history for a company.")

	return nil
}

// listRunHistory lists all recorded runs for a specific company.
func listRunHistory(ctx context.Context, db *database.HistoryDB, companyName string) error {
	runs, err := db.GetRunHistoryWithMetadata(ctx, companyName)
	if err != nil {
		return fmt.Errorf("failed to get run history: %w", err)
	}

	if len(runs) == 0 {
		fmt.Printf("No run history found for %s\n", companyName)
		fmt.Println("\nUse 'stockscan analyze' to analyze this company.")
		return nil
	}

	fmt.Printf("Run history for %s (%d runs):\n\n", companyName, len(runs))
	fmt.Printf("  %-6s  %-20s  %-16s  %s\n", "ID", "Date", "Status", "Tasks")
	fmt.Println("  " + strings.Repeat("-", 64))

	for _, meta := range runs {
		fmt.Printf("  %-6d  %-20s  %-16s  %s\n",
			meta.ID,
			meta.Timestamp.Format("2006-01-02 15:04:05"),
			meta.Status,
			formatTaskSummary(meta.TaskSummary),
		)
	}

	fmt.Println("\nUse 'stockscan history --show-id <id> <company>' to print a recorded report.")
	fmt.Println("Use 'stockscan history --compare <company>' to compare the latest two runs.")

	return nil
}

// formatTaskSummary formats the per-status task counts into a short string.
func formatTaskSummary(summary map[string]int) string {
	if summary == nil {
		return "N/A"
	}

	var parts []string
	if v := summary["succeeded"]; v > 0 {
		parts = append(parts, fmt.Sprintf("OK:%d", v))
	}
	if v := summary["degraded"]; v > 0 {
		parts = append(parts, fmt.Sprintf("DEG:%d", v))
	}
	if v := summary["failed"]; v > 0 {
		parts = append(parts, fmt.Sprintf("FAIL:%d", v))
	}

	if len(parts) == 0 {
		return noRunsMessage
	}
	return strings.Join(parts, " ")
}

// showRecordedRun prints the full report of one recorded run.
func showRecordedRun(ctx context.Context, db *database.HistoryDB, companyName string, id int64, jsonOutput, markdownOutput bool) error {
	result, err := db.GetResultSetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get run with ID %d: %w", id, err)
	}
	if result == nil {
		return fmt.Errorf("run with ID %d not found", id)
	}
	// Validate that the run ID belongs to the requested company
	if result.Company.Name != companyName {
		return fmt.Errorf("run ID %d belongs to %s, not %s", id, result.Company.Name, companyName)
	}

	if jsonOutput {
		writer := report.NewFullJSONWriter(os.Stdout, getVersion(), report.WithPrettyPrint())
		_, err := writer.Write(result)
		return err
	}
	if markdownOutput {
		writer := report.NewMarkdownWriter(os.Stdout)
		_, err := writer.Write(result)
		return err
	}
	writer := report.NewSimpleWriter(os.Stdout)
	_, err = writer.Write(result)
	return err
}

// runHistoryComparison compares the latest two runs for a company.
func runHistoryComparison(ctx context.Context, db *database.HistoryDB, companyName string, jsonOutput bool) error {
	runs, err := db.GetRunHistory(ctx, companyName)
	if err != nil {
		return fmt.Errorf("failed to get run history: %w", err)
	}

	if len(runs) == 0 {
		return fmt.Errorf("no run history found for %s", companyName)
	}
	if len(runs) < 2 {
		return fmt.Errorf("at least 2 runs are required for comparison (found %d)", len(runs))
	}

	// Runs are sorted newest first
	comparison := compareRuns(runs[1], runs[0])

	if jsonOutput {
		return outputComparisonJSON(comparison)
	}
	return outputComparisonText(comparison)
}

// ComparisonResult holds the result of comparing two analysis runs.
type ComparisonResult struct {
	// Company is the analyzed company.
	Company string `json:"company"`

	// PreviousRun contains metadata about the earlier run.
	PreviousRun RunSummary `json:"previous_run"`

	// CurrentRun contains metadata about the later run.
	CurrentRun RunSummary `json:"current_run"`

	// TaskChanges lists tasks whose status changed between the runs.
	TaskChanges []TaskChange `json:"task_changes,omitempty"`

	// UnchangedCount is the number of tasks with the same status in both runs.
	UnchangedCount int `json:"unchanged_count"`

	// Trend describes the overall direction of change.
	Trend string `json:"trend"`
}

// RunSummary contains metadata about one run for comparison display.
type RunSummary struct {
	// Date is when the run was performed.
	Date time.Time `json:"date"`

	// Status is the overall run state.
	Status string `json:"status"`

	// SuccessCount is the number of successful tasks.
	SuccessCount int `json:"success_count"`

	// DegradedCount is the number of degraded tasks.
	DegradedCount int `json:"degraded_count"`

	// FailedCount is the number of failed tasks.
	FailedCount int `json:"failed_count"`
}

// TaskChange records one task whose status differs between the runs.
type TaskChange struct {
	// TaskID is the stable task identifier, e.g. "moat".
	TaskID string `json:"task_id"`

	// DisplayName is the human-readable task name.
	DisplayName string `json:"display_name"`

	// PreviousStatus is the task status in the earlier run.
	PreviousStatus string `json:"previous_status"`

	// CurrentStatus is the task status in the later run.
	CurrentStatus string `json:"current_status"`
}

// compareRuns compares two result sets and generates a comparison result.
func compareRuns(previous, current *model.AnalysisResultSet) *ComparisonResult {
	result := &ComparisonResult{
		Company:     current.Company.ID(),
		PreviousRun: summarizeRun(previous),
		CurrentRun:  summarizeRun(current),
	}

	previousStatus := make(map[string]model.TaskOutcome, len(previous.Outcomes))
	for _, outcome := range previous.Outcomes {
		previousStatus[outcome.TaskID] = outcome
	}

	for _, outcome := range current.Outcomes {
		prev, ok := previousStatus[outcome.TaskID]
		if !ok || prev.Status == outcome.Status {
			result.UnchangedCount++
			continue
		}
		result.TaskChanges = append(result.TaskChanges, TaskChange{
			TaskID:         outcome.TaskID,
			DisplayName:    outcome.DisplayName,
			PreviousStatus: prev.Status.String(),
			CurrentStatus:  outcome.Status.String(),
		})
	}

	result.Trend = calculateTrend(result.PreviousRun, result.CurrentRun)

	return result
}

// summarizeRun extracts display metadata from one result set.
func summarizeRun(result *model.AnalysisResultSet) RunSummary {
	return RunSummary{
		Date:          result.StartedAt,
		Status:        result.Status.String(),
		SuccessCount:  result.SuccessCount,
		DegradedCount: result.DegradedCount,
		FailedCount:   result.FailedCount,
	}
}

// calculateTrend determines the overall direction of change between runs.
// Failed tasks weigh more than degraded ones: a run that trades a
// degradation for a hard failure has gotten worse, not better.
func calculateTrend(previous, current RunSummary) string {
	previousScore := previous.FailedCount*10 + previous.DegradedCount
	currentScore := current.FailedCount*10 + current.DegradedCount

	if currentScore < previousScore {
		return trendImproved
	}
	if currentScore > previousScore {
		return trendWorsened
	}
	return trendUnchanged
}

// outputComparisonJSON outputs the comparison result in JSON format.
func outputComparisonJSON(result *ComparisonResult) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputComparisonText outputs the comparison result in human-readable text format.
func outputComparisonText(result *ComparisonResult) error {
	fmt.Printf("Run Comparison: %s\n", result.Company)
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\nTrend: %s\n", formatTrend(result.Trend))

	fmt.Printf("\nPrevious run: %s  [%s]\n",
		result.PreviousRun.Date.Format("2006-01-02 15:04:05"), result.PreviousRun.Status)
	fmt.Printf("Current run:  %s  [%s]\n",
		result.CurrentRun.Date.Format("2006-01-02 15:04:05"), result.CurrentRun.Status)

	fmt.Println("\nTask Summary:")
	fmt.Printf("  %-10s  %-10s  %-10s  %-10s\n", "Status", "Previous", "Current", "Change")
	fmt.Println("  " + strings.Repeat("-", 45))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Success",
		result.PreviousRun.SuccessCount, result.CurrentRun.SuccessCount,
		formatDelta(result.CurrentRun.SuccessCount-result.PreviousRun.SuccessCount))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Degraded",
		result.PreviousRun.DegradedCount, result.CurrentRun.DegradedCount,
		formatDelta(result.CurrentRun.DegradedCount-result.PreviousRun.DegradedCount))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Failed",
		result.PreviousRun.FailedCount, result.CurrentRun.FailedCount,
		formatDelta(result.CurrentRun.FailedCount-result.PreviousRun.FailedCount))

	if len(result.TaskChanges) > 0 {
		fmt.Printf("\nChanged Tasks (%d):\n", len(result.TaskChanges))
		for _, change := range result.TaskChanges {
			fmt.Printf("  [~] %s: %s -> %s\n",
				change.DisplayName, change.PreviousStatus, change.CurrentStatus)
		}
	}

	if result.UnchangedCount > 0 {
		fmt.Printf("\nUnchanged: %d tasks\n", result.UnchangedCount)
	}

	return nil
}

// formatTrend formats the trend for display.
func formatTrend(trend string) string {
	switch trend {
	case trendImproved:
		return "IMPROVED (fewer failures)"
	case trendWorsened:
		return "WORSENED (more failures)"
	default:
		return "UNCHANGED"
	}
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	} else if delta < 0 {
		return strconv.Itoa(delta)
	}
	return "0"
}
