package evidence

import (
	"context"
	"time"

	"stockscan/internal/model"
)

// ModelKnowledgeSource is the last-resort fallback: it produces a single
// item that names the company and authorizes the inference backend to
// use its internal knowledge. It never fails, which guarantees that
// every bundle has at least the knowledge level available.
type ModelKnowledgeSource struct {
	now func() time.Time
}

// NewModelKnowledgeSource creates the fallback source.
func NewModelKnowledgeSource() *ModelKnowledgeSource {
	return &ModelKnowledgeSource{now: time.Now}
}

// FetchKnowledge implements KnowledgeSource.
func (s *ModelKnowledgeSource) FetchKnowledge(_ context.Context, name string) ([]model.EvidenceItem, error) {
	return []model.EvidenceItem{{
		Source:    model.SourceKnowledge,
		Key:       model.FieldKnowledge,
		Payload:   "Company under analysis: " + name + ". Where the evidence above is silent, draw on general knowledge of this company and its industry, and mark such statements as model knowledge.",
		FetchedAt: s.now(),
	}}, nil
}
