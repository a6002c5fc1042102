package evidence

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"stockscan/internal/model"
)

// UploadedSource provides user-supplied evidence: documents, reference
// links. Multiple uploaded sources may be registered; their items share
// the top priority level in insertion order.
type UploadedSource interface {
	// FetchUploaded returns uploaded evidence for the company.
	FetchUploaded(ctx context.Context, company model.Company) ([]model.EvidenceItem, error)
}

// StructuredSource queries the structured market-data backend by market
// code. Implementations must be safely retryable (idempotent reads).
type StructuredSource interface {
	// FetchStructured returns structured evidence for the market code.
	FetchStructured(ctx context.Context, code string) ([]model.EvidenceItem, error)
}

// KnowledgeSource is the last-resort generic lookup keyed by company
// name.
type KnowledgeSource interface {
	// FetchKnowledge returns fallback evidence for the company name.
	FetchKnowledge(ctx context.Context, name string) ([]model.EvidenceItem, error)
}

// Resolver assembles the evidence bundle for one company, honoring the
// strict source priority uploaded > structured > knowledge.
type Resolver struct {
	uploaded   []UploadedSource
	structured StructuredSource
	knowledge  KnowledgeSource
	logger     *slog.Logger
	now        func() time.Time
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithResolverLogger sets a custom logger.
func WithResolverLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// withClock replaces the time source. Test hook.
func withClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) {
		r.now = now
	}
}

// NewResolver creates a Resolver over the given sources. Any source may
// be nil, in which case that priority level is simply unavailable.
func NewResolver(uploaded []UploadedSource, structured StructuredSource, knowledge KnowledgeSource, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		uploaded:   uploaded,
		structured: structured,
		knowledge:  knowledge,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Resolve parses the company identifier and assembles its evidence
// bundle. The only fatal error is a malformed identifier, detected
// before any I/O; every source failure degrades the bundle instead.
func (r *Resolver) Resolve(ctx context.Context, companyID string) (*model.EvidenceBundle, error) {
	company, err := model.ParseCompanyID(companyID)
	if err != nil {
		return nil, fmt.Errorf("invalid company identifier %q: %w", companyID, err)
	}

	bundle := model.NewEvidenceBundle(company)

	r.resolveUploaded(ctx, company, bundle)
	r.resolveStructured(ctx, company, bundle)
	r.resolveKnowledge(ctx, company, bundle)

	// Downstream code never branches on an empty bundle: if every source
	// failed, insert an explicit "no data" knowledge placeholder.
	if len(bundle.Items) == 0 {
		r.logger.Warn("all evidence sources failed, inserting placeholder",
			"company", company.ID(),
		)
		bundle.Add(model.EvidenceItem{
			Source:    model.SourceKnowledge,
			Key:       model.FieldKnowledge,
			Payload:   "No evidence available for " + company.ID() + ". Analysis must rely on general model knowledge and state so explicitly.",
			FetchedAt: r.now(),
		})
	}

	bundle.Finalize()
	return bundle, nil
}

// resolveUploaded collects items from every registered uploaded source.
// A failing source is logged and skipped.
func (r *Resolver) resolveUploaded(ctx context.Context, company model.Company, bundle *model.EvidenceBundle) {
	for _, src := range r.uploaded {
		items, err := src.FetchUploaded(ctx, company)
		if err != nil {
			r.logger.Warn("uploaded source failed",
				"company", company.ID(),
				"error", err,
			)
			continue
		}
		bundle.Add(items...)
	}
}

// resolveStructured queries the market-data backend when the company has
// a code. Missing code or backend failure leaves the structured level
// marked unavailable; task runners read that flag to degrade outcomes.
func (r *Resolver) resolveStructured(ctx context.Context, company model.Company, bundle *model.EvidenceBundle) {
	if r.structured == nil {
		return
	}
	if company.Code == "" {
		r.logger.Debug("structured source skipped: no market code",
			"company", company.Name,
		)
		return
	}

	items, err := r.structured.FetchStructured(ctx, company.Code)
	if err != nil {
		r.logger.Warn("structured source failed",
			"company", company.ID(),
			"error", err,
		)
		return
	}
	bundle.Add(items...)
}

// resolveKnowledge collects the fallback items.
func (r *Resolver) resolveKnowledge(ctx context.Context, company model.Company, bundle *model.EvidenceBundle) {
	if r.knowledge == nil {
		return
	}

	items, err := r.knowledge.FetchKnowledge(ctx, company.Name)
	if err != nil {
		r.logger.Warn("knowledge source failed",
			"company", company.ID(),
			"error", err,
		)
		return
	}
	bundle.Add(items...)
}
