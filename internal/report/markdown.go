package report

import (
	"io"
	"sort"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"stockscan/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the result set in Markdown format.
func (w *MarkdownWriter) Write(result *model.AnalysisResultSet) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, result)
	w.writeSummary(md, result)
	w.writeTasks(md, result)
	w.writeSources(md, result)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, result *model.AnalysisResultSet) {
	md.H1(result.Company.DisplayName() + " - Analysis Report")
	md.PlainText("")

	code := result.Company.Code
	if code == "" {
		code = "-"
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Company", result.Company.DisplayName()},
			{"Market Code", "`" + code + "`"},
			{"Analysis Date", result.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Elapsed", result.Elapsed().Round(timePrecision).String()},
			{"Status", w.getStatusText(result)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on the run state.
func (w *MarkdownWriter) getStatusText(result *model.AnalysisResultSet) string {
	switch result.Status {
	case model.RunFailed:
		return "❌ Failed - no task produced findings"
	case model.RunPartialSuccess:
		return "⚠️ Partial - some tasks degraded or failed"
	default:
		return "✅ Complete"
	}
}

// writeSummary writes the per-status count summary.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, result *model.AnalysisResultSet) {
	md.H2("Task Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Status", "Count"},
		Rows: [][]string{
			{"🟢 Succeeded", strconv.Itoa(result.SuccessCount)},
			{"🟡 Degraded", strconv.Itoa(result.DegradedCount)},
			{"🔴 Failed", strconv.Itoa(result.FailedCount)},
			{"**Total**", "**" + strconv.Itoa(result.TaskCount()) + "**"},
		},
	})
	md.PlainText("")

	if result.TaskCount() > 0 {
		w.writePieChart(md, result)
	}

	w.writeAlert(md, result)
}

// writePieChart writes a mermaid pie chart for the status distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, result *model.AnalysisResultSet) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Task Status Distribution"),
		piechart.WithShowData(true),
	)

	if result.SuccessCount > 0 {
		chart.LabelAndIntValue("Succeeded", uint64(result.SuccessCount))
	}
	if result.DegradedCount > 0 {
		chart.LabelAndIntValue("Degraded", uint64(result.DegradedCount))
	}
	if result.FailedCount > 0 {
		chart.LabelAndIntValue("Failed", uint64(result.FailedCount))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on the run state.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, result *model.AnalysisResultSet) {
	switch {
	case result.Status == model.RunFailed:
		md.Cautionf(
			"All %d analysis tasks failed. The findings below are placeholders; "+
				"check credentials and connectivity, then rerun.",
			result.FailedCount,
		)
	case result.FailedCount > 0:
		md.Warningf(
			"%d task(s) failed and carry placeholder findings. "+
				"The remaining sections are complete.",
			result.FailedCount,
		)
	case result.DegradedCount > 0:
		md.Importantf(
			"%d task(s) ran without structured market data and rely on "+
				"documents and model knowledge alone.",
			result.DegradedCount,
		)
	default:
		md.Note("All tasks completed against the full evidence bundle.")
	}
	md.PlainText("")
}

// writeTasks writes one section per analysis task, in registry order.
// Failed tasks still get a section so the report shape is stable.
func (w *MarkdownWriter) writeTasks(md *markdown.Markdown, result *model.AnalysisResultSet) {
	for _, outcome := range result.Outcomes {
		md.H2(w.taskHeading(outcome))
		md.PlainText("")

		if outcome.Err != nil {
			md.Warningf("%s: %s", outcome.Err.Kind, outcome.Err.Message)
			md.PlainText("")
		}
		for _, caveat := range outcome.Caveats {
			md.Note(caveat)
			md.PlainText("")
		}

		md.PlainText(outcome.Findings)
		md.PlainText("")
	}
}

// taskHeading returns the section heading for a task outcome.
func (w *MarkdownWriter) taskHeading(outcome model.TaskOutcome) string {
	switch outcome.Status {
	case model.StatusFailed:
		return "🔴 " + outcome.DisplayName
	case model.StatusDegraded:
		return "🟡 " + outcome.DisplayName
	default:
		return outcome.DisplayName
	}
}

// writeSources writes the evidence-source appendix.
func (w *MarkdownWriter) writeSources(md *markdown.Markdown, result *model.AnalysisResultSet) {
	if len(result.SourceAvailability) == 0 {
		return
	}

	md.H2("Evidence Sources")
	md.PlainText("")

	names := make([]string, 0, len(result.SourceAvailability))
	for name := range result.SourceAvailability {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		state := "unavailable"
		if result.SourceAvailability[name] {
			state = "available"
		}
		rows = append(rows, []string{name, state})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Source", "State"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Findings are AI-generated research notes, not investment advice.*")
}
