package model

import (
	"sort"
	"time"
)

// SourceKind identifies which evidence source produced an item.
// The numeric order is the trust priority: lower values are preferred.
//
// Design decision: We use iota-based constants rather than string constants
// so that priority comparisons and sorting are simple integer operations.
// The String() method provides human-readable output when needed.
type SourceKind int

const (
	// SourceUploaded is user-supplied material: research documents and
	// reference links provided for the company under analysis. This is the
	// highest-priority source because the user chose it deliberately.
	SourceUploaded SourceKind = iota

	// SourceStructured is data fetched from the structured market-data
	// backend, keyed by the company's market code. Authoritative for
	// quantitative fields but unavailable without a configured token.
	SourceStructured

	// SourceKnowledge is the generic model-knowledge fallback. Always
	// available, lowest confidence. A bundle that contains only knowledge
	// items produces a degraded analysis, never an empty one.
	SourceKnowledge
)

// String returns a human-readable representation of the source kind.
func (k SourceKind) String() string {
	switch k {
	case SourceUploaded:
		return "uploaded"
	case SourceStructured:
		return "structured"
	case SourceKnowledge:
		return "knowledge"
	default:
		return "unknown"
	}
}

// Evidence field names. Each evidence item carries exactly one field key,
// and task specifications select their input by listing required fields.
const (
	// FieldDocuments is user-uploaded research documents (broker reports,
	// filings). Produced by the uploaded source.
	FieldDocuments = "documents"

	// FieldReferences is user-supplied reference links resolved to titled
	// markdown links. Produced by the uploaded source.
	FieldReferences = "references"

	// FieldBasicInfo is company identity data (industry, listing market,
	// listing date). Produced by the structured source.
	FieldBasicInfo = "basic_info"

	// FieldDailyMetrics is current trading metrics (price, PE, PB,
	// turnover). Produced by the structured source.
	FieldDailyMetrics = "daily_metrics"

	// FieldFinancials is financial statement indicators (revenue, margin,
	// ROE). Produced by the structured source.
	FieldFinancials = "financial_indicators"

	// FieldKnowledge is the model-knowledge fallback marker. Produced by
	// the knowledge source.
	FieldKnowledge = "knowledge"
)

// FieldSource maps an evidence field name to the source kind that
// produces it. Unknown fields map to SourceKnowledge so that a typo in a
// task specification degrades gracefully instead of claiming structured
// backing it does not have.
func FieldSource(field string) SourceKind {
	switch field {
	case FieldDocuments, FieldReferences:
		return SourceUploaded
	case FieldBasicInfo, FieldDailyMetrics, FieldFinancials:
		return SourceStructured
	default:
		return SourceKnowledge
	}
}

// EvidenceItem is one unit of source material. Items are immutable once
// created; the resolver builds them and nothing downstream writes to them.
type EvidenceItem struct {
	// Source identifies which source produced this item.
	Source SourceKind `json:"source"`

	// Key is the evidence field this item belongs to (see Field constants).
	Key string `json:"key"`

	// Payload is the item content as text. Documents are read verbatim,
	// structured responses are rendered as labeled text blocks.
	Payload string `json:"payload"`

	// FetchedAt records when the item was obtained.
	FetchedAt time.Time `json:"fetchedAt"`
}

// EvidenceBundle is the ordered, prioritized evidence for one company.
// Items are ordered strictly by source priority (uploaded before
// structured before knowledge), with insertion order preserved within a
// source. The bundle is built once per run and shared read-only across
// all concurrent task runners.
type EvidenceBundle struct {
	// Company is the analysis target this bundle was assembled for.
	Company Company `json:"company"`

	// Items is the prioritized evidence sequence. Never empty: when all
	// real sources fail, the resolver inserts a synthetic knowledge
	// placeholder so downstream code never branches on an empty bundle.
	Items []EvidenceItem `json:"items"`

	// Availability records which sources actually yielded data. Task
	// runners read this to decide whether an outcome that required
	// structured backing must be flagged as degraded.
	Availability map[SourceKind]bool `json:"availability"`
}

// NewEvidenceBundle creates an empty bundle for the given company with
// all sources marked unavailable.
func NewEvidenceBundle(company Company) *EvidenceBundle {
	return &EvidenceBundle{
		Company: company,
		Items:   make([]EvidenceItem, 0),
		Availability: map[SourceKind]bool{
			SourceUploaded:   false,
			SourceStructured: false,
			SourceKnowledge:  false,
		},
	}
}

// Add appends items to the bundle and marks their sources available.
// Call Finalize after all sources have been attempted to restore the
// priority ordering invariant.
func (b *EvidenceBundle) Add(items ...EvidenceItem) {
	for _, item := range items {
		b.Items = append(b.Items, item)
		b.Availability[item.Source] = true
	}
}

// Finalize restores the ordering invariant: items sorted by source
// priority, ties broken by insertion order. Uses a stable sort so that
// the order in which sources appended their items is preserved within
// each priority level.
func (b *EvidenceBundle) Finalize() {
	sort.SliceStable(b.Items, func(i, j int) bool {
		return b.Items[i].Source < b.Items[j].Source
	})
}

// Project returns the subset of the bundle relevant to the given fields,
// preserving bundle order. The result shares item values but is a fresh
// slice, so a task sees only its own minimal, auditable input.
func (b *EvidenceBundle) Project(fields []string) []EvidenceItem {
	want := make(map[string]bool, len(fields))
	for _, f := range fields {
		want[f] = true
	}

	projected := make([]EvidenceItem, 0, len(b.Items))
	for _, item := range b.Items {
		if want[item.Key] {
			projected = append(projected, item)
		}
	}
	return projected
}

// HasSource reports whether the given source yielded any data.
func (b *EvidenceBundle) HasSource(kind SourceKind) bool {
	return b.Availability[kind]
}
