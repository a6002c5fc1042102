package evidence

import (
	"context"
	"strings"
	"time"

	"stockscan/internal/model"
)

// NoteSource serves free-form analyst notes from the company profile as
// uploaded evidence. Notes ride at the same priority as documents since
// both are operator-provided material.
type NoteSource struct {
	text string
	now  func() time.Time
}

// NewNoteSource creates a NoteSource for the given text.
func NewNoteSource(text string) *NoteSource {
	return &NoteSource{
		text: text,
		now:  time.Now,
	}
}

// FetchUploaded returns the notes as a single evidence item.
// Empty notes yield no items and no error.
func (s *NoteSource) FetchUploaded(_ context.Context, _ model.Company) ([]model.EvidenceItem, error) {
	text := strings.TrimSpace(s.text)
	if text == "" {
		return nil, nil
	}

	return []model.EvidenceItem{
		{
			Source:    model.SourceUploaded,
			Key:       model.FieldDocuments,
			Payload:   "[analyst notes]\n" + text,
			FetchedAt: s.now(),
		},
	}, nil
}
