package evidence

import (
	"context"
	"errors"
	"testing"
	"time"

	"stockscan/internal/model"
)

// mockUploaded is a test UploadedSource.
type mockUploaded struct {
	items []model.EvidenceItem
	err   error
	calls int
}

func (m *mockUploaded) FetchUploaded(context.Context, model.Company) ([]model.EvidenceItem, error) {
	m.calls++
	return m.items, m.err
}

// mockStructured is a test StructuredSource.
type mockStructured struct {
	items []model.EvidenceItem
	err   error
	calls int
}

func (m *mockStructured) FetchStructured(context.Context, string) ([]model.EvidenceItem, error) {
	m.calls++
	return m.items, m.err
}

// mockKnowledge is a test KnowledgeSource.
type mockKnowledge struct {
	items []model.EvidenceItem
	err   error
}

func (m *mockKnowledge) FetchKnowledge(context.Context, string) ([]model.EvidenceItem, error) {
	return m.items, m.err
}

func structuredItems() []model.EvidenceItem {
	return []model.EvidenceItem{
		{Source: model.SourceStructured, Key: model.FieldBasicInfo, Payload: "info"},
		{Source: model.SourceStructured, Key: model.FieldDailyMetrics, Payload: "daily"},
	}
}

func knowledgeItems() []model.EvidenceItem {
	return []model.EvidenceItem{
		{Source: model.SourceKnowledge, Key: model.FieldKnowledge, Payload: "k"},
	}
}

func TestResolverResolve(t *testing.T) {
	t.Parallel()

	t.Run("empty identifier fails fast before any fetch", func(t *testing.T) {
		t.Parallel()

		up := &mockUploaded{}
		st := &mockStructured{}
		r := NewResolver([]UploadedSource{up}, st, &mockKnowledge{})

		_, err := r.Resolve(context.Background(), "  ")
		if !errors.Is(err, model.ErrEmptyCompanyID) {
			t.Fatalf("expected ErrEmptyCompanyID, got %v", err)
		}
		if up.calls != 0 || st.calls != 0 {
			t.Error("no source should be queried for an invalid identifier")
		}
	})

	t.Run("source failure is non-fatal and recorded in availability", func(t *testing.T) {
		t.Parallel()

		r := NewResolver(
			[]UploadedSource{&mockUploaded{err: ErrSourceUnavailable}},
			&mockStructured{items: structuredItems()},
			&mockKnowledge{items: knowledgeItems()},
		)

		bundle, err := r.Resolve(context.Background(), "ACME/001")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if bundle.HasSource(model.SourceUploaded) {
			t.Error("uploaded should be unavailable after source failure")
		}
		if !bundle.HasSource(model.SourceStructured) {
			t.Error("structured should be available")
		}
		if !bundle.HasSource(model.SourceKnowledge) {
			t.Error("knowledge should be available")
		}
		if len(bundle.Items) != 3 {
			t.Errorf("expected 3 items, got %d", len(bundle.Items))
		}
	})

	t.Run("structured source skipped without a market code", func(t *testing.T) {
		t.Parallel()

		st := &mockStructured{items: structuredItems()}
		r := NewResolver(nil, st, &mockKnowledge{items: knowledgeItems()})

		bundle, err := r.Resolve(context.Background(), "Kweichow Moutai")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if st.calls != 0 {
			t.Error("structured source must not be queried without a code")
		}
		if bundle.HasSource(model.SourceStructured) {
			t.Error("structured should be unavailable")
		}
	})

	t.Run("all sources failing yields a placeholder, never an empty bundle", func(t *testing.T) {
		t.Parallel()

		fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		r := NewResolver(
			[]UploadedSource{&mockUploaded{err: ErrSourceUnavailable}},
			&mockStructured{err: ErrSourceUnavailable},
			&mockKnowledge{err: errors.New("lookup failed")},
			withClock(func() time.Time { return fixed }),
		)

		bundle, err := r.Resolve(context.Background(), "ACME/001")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(bundle.Items) != 1 {
			t.Fatalf("expected exactly the placeholder item, got %d items", len(bundle.Items))
		}
		placeholder := bundle.Items[0]
		if placeholder.Source != model.SourceKnowledge {
			t.Errorf("placeholder should be a knowledge item, got %s", placeholder.Source)
		}
		if !placeholder.FetchedAt.Equal(fixed) {
			t.Errorf("placeholder timestamp: expected %v, got %v", fixed, placeholder.FetchedAt)
		}
	})

	t.Run("items are ordered by source priority", func(t *testing.T) {
		t.Parallel()

		r := NewResolver(
			[]UploadedSource{&mockUploaded{items: []model.EvidenceItem{
				{Source: model.SourceUploaded, Key: model.FieldDocuments, Payload: "doc"},
			}}},
			&mockStructured{items: structuredItems()},
			&mockKnowledge{items: knowledgeItems()},
		)

		bundle, err := r.Resolve(context.Background(), "ACME, 001")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var last model.SourceKind
		for i, item := range bundle.Items {
			if item.Source < last {
				t.Errorf("item %d breaks priority order: %s after %s", i, item.Source, last)
			}
			last = item.Source
		}
	})
}
