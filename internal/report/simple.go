package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"stockscan/internal/model"
)

// timePrecision is how finely elapsed times are displayed.
const timePrecision = 10 * time.Millisecond

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting and per-task status markers.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showCaveats controls whether per-task caveats appear in the output.
	showCaveats bool

	// verbose enables additional detail such as attempts and timings.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowCaveats configures the writer to print per-task caveats.
func WithShowCaveats(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showCaveats = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter:  newBaseWriter(output),
		showCaveats: true,
		verbose:     false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the full result set in human-readable format.
func (w *SimpleWriter) Write(result *model.AnalysisResultSet) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, result)
	w.writeSummary(&sb, result)
	w.writeSources(&sb, result)
	w.writeTasks(&sb, result)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, result *model.AnalysisResultSet) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         STOCKSCAN REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Company:        %s\n", result.Company.DisplayName()))
	if result.Company.Code != "" {
		sb.WriteString(fmt.Sprintf("Market Code:    %s\n", result.Company.Code))
	}
	sb.WriteString(fmt.Sprintf("Analysis Date:  %s\n", result.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Elapsed:        %s\n", result.Elapsed().Round(timePrecision)))
	sb.WriteString(fmt.Sprintf("Status:         %s\n", runStatusText(result.Status)))
	sb.WriteString("\n")
}

// writeSummary writes the per-status count summary.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, result *model.AnalysisResultSet) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("TASK SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  SUCCEEDED: %d\n", result.SuccessCount))
	sb.WriteString(fmt.Sprintf("  DEGRADED:  %d\n", result.DegradedCount))
	sb.WriteString(fmt.Sprintf("  FAILED:    %d\n", result.FailedCount))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  TOTAL:     %d tasks\n", result.TaskCount()))
	sb.WriteString("\n")
}

// writeSources writes which evidence sources backed the analysis.
func (w *SimpleWriter) writeSources(sb *strings.Builder, result *model.AnalysisResultSet) {
	if len(result.SourceAvailability) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("EVIDENCE SOURCES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	names := make([]string, 0, len(result.SourceAvailability))
	for name := range result.SourceAvailability {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		marker := "[-]"
		if result.SourceAvailability[name] {
			marker = "[+]"
		}
		sb.WriteString(fmt.Sprintf("  %s %s\n", marker, name))
	}
	sb.WriteString("\n")
}

// writeTasks writes every task section with its findings.
func (w *SimpleWriter) writeTasks(sb *strings.Builder, result *model.AnalysisResultSet) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("ANALYSIS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, outcome := range result.Outcomes {
		w.writeTask(sb, outcome)
	}
}

// writeTask writes a single task section.
func (w *SimpleWriter) writeTask(sb *strings.Builder, outcome model.TaskOutcome) {
	sb.WriteString(fmt.Sprintf("[%s] %s\n", statusLabel(outcome.Status), outcome.DisplayName))

	if w.verbose {
		sb.WriteString(fmt.Sprintf("  Attempts: %d  Elapsed: %dms\n", outcome.Attempts, outcome.ElapsedMs))
	}

	if outcome.Err != nil {
		sb.WriteString(fmt.Sprintf("  Error (%s): %s\n", outcome.Err.Kind, outcome.Err.Message))
	}

	if w.showCaveats {
		for _, caveat := range outcome.Caveats {
			sb.WriteString(fmt.Sprintf("  Caveat: %s\n", caveat))
		}
	}

	for _, line := range strings.Split(strings.TrimRight(outcome.Findings, "\n"), "\n") {
		sb.WriteString("  ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Findings are AI-generated research notes, not investment advice.\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// runStatusText returns the display text for the overall run state.
func runStatusText(status model.RunStatus) string {
	switch status {
	case model.RunSuccess:
		return "Complete"
	case model.RunPartialSuccess:
		return "PARTIAL (some tasks degraded or failed)"
	case model.RunFailed:
		return "FAILED (no task produced findings)"
	default:
		return "?"
	}
}
