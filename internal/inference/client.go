package inference

import (
	"context"
	"strings"

	"stockscan/internal/model"
)

// Client performs one unit of inference: task specification plus
// evidence projection in, findings text out. Implementations must return
// errors classifiable by KindOf.
//
// Design decision: We accept the evidence projection as a value slice
// rather than the whole bundle so that a client can never read evidence
// a task did not declare. This keeps each task's effective input minimal
// and auditable.
type Client interface {
	Infer(ctx context.Context, task model.TaskSpec, evidence []model.EvidenceItem) (string, error)
}

// BuildPrompt renders a task's evidence projection into the prompt text
// sent to the backend. Items appear in bundle order, so higher-priority
// sources are presented first. The company under analysis is named by
// the knowledge item every task projection includes.
func BuildPrompt(task model.TaskSpec, evidence []model.EvidenceItem) string {
	var sb strings.Builder

	sb.WriteString("You are performing the \"")
	sb.WriteString(task.DisplayName)
	sb.WriteString("\" step of an equity analysis.\n\n")
	sb.WriteString("Base your analysis strictly on the evidence below, in the order given; ")
	sb.WriteString("earlier blocks take priority over later ones. ")
	sb.WriteString("Cite the evidence block you relied on for each claim.\n")

	for _, item := range evidence {
		sb.WriteString("\n=== ")
		sb.WriteString(item.Key)
		sb.WriteString(" (")
		sb.WriteString(item.Source.String())
		sb.WriteString(") ===\n")
		sb.WriteString(item.Payload)
		sb.WriteString("\n")
	}

	return sb.String()
}
