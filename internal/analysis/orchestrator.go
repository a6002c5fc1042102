package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"stockscan/internal/model"
)

// Orchestrator fans the registered tasks out over the shared evidence
// bundle and joins their outcomes into one result set.
//
// Design decision: We use errgroup purely for its SetLimit concurrency
// gate and Wait semantics; task goroutines always return nil so that no
// task can cancel its siblings. Failures live inside outcomes, not in
// the group error. This mirrors how batch work elsewhere in the codebase
// keeps per-unit errors in the unit's own record.
type Orchestrator struct {
	runner      *Runner
	specs       []model.TaskSpec
	concurrency int
	logger      *slog.Logger
	now         func() time.Time
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithConcurrency bounds how many tasks run simultaneously. The default
// runs every registered task at once; lower it when the inference
// backend enforces a tight concurrent-request limit.
func WithConcurrency(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithOrchestratorLogger sets a custom logger.
func WithOrchestratorLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// withSpecs replaces the task table. Test hook.
func withSpecs(specs []model.TaskSpec) OrchestratorOption {
	return func(o *Orchestrator) {
		o.specs = specs
	}
}

// NewOrchestrator creates an Orchestrator over the fixed task registry.
func NewOrchestrator(runner *Runner, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		runner: runner,
		specs:  Registry(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.concurrency <= 0 {
		o.concurrency = len(o.specs)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// RunAll executes every registered task concurrently against the bundle
// and returns the aggregated result set. It always waits for all tasks:
// one task's failure never cancels another. Cancellation of ctx stops
// in-flight tasks at their next suspension point; their slots are
// recorded as failed with a cancelled error kind, while already-complete
// outcomes are preserved.
func (o *Orchestrator) RunAll(ctx context.Context, bundle *model.EvidenceBundle) *model.AnalysisResultSet {
	startedAt := o.now()

	o.logger.Info("starting analysis run",
		"company", bundle.Company.ID(),
		"tasks", len(o.specs),
		"concurrency", o.concurrency,
	)

	// Indexed result slice keeps each task's slot stable regardless of
	// completion order; the mutex guards against concurrent writers
	// completing simultaneously.
	outcomes := make([]model.TaskOutcome, len(o.specs))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(o.concurrency)

	for i, spec := range o.specs {
		i, spec := i, spec
		g.Go(func() error {
			outcome := o.runIsolated(ctx, spec, bundle)

			mu.Lock()
			outcomes[i] = outcome
			mu.Unlock()

			return nil
		})
	}

	// Task goroutines never return errors; Wait only joins.
	_ = g.Wait() //nolint:errcheck // Failures are carried inside outcomes

	endedAt := o.now()
	result := aggregateWith(o.specs, bundle, outcomes, startedAt, endedAt)

	o.logger.Info("analysis run finished",
		"company", bundle.Company.ID(),
		"status", result.Status,
		"success", result.SuccessCount,
		"degraded", result.DegradedCount,
		"failed", result.FailedCount,
		"elapsed", endedAt.Sub(startedAt),
	)
	return result
}

// runIsolated runs one task and guarantees a TaskOutcome no matter what
// happens inside the runner. A panic here is a programming defect, not
// an anticipated failure; it is converted into a failed outcome with an
// internal error kind so the "one outcome per registered task" invariant
// holds regardless of defects downstream.
func (o *Orchestrator) runIsolated(ctx context.Context, spec model.TaskSpec, bundle *model.EvidenceBundle) (outcome model.TaskOutcome) {
	defer func() {
		if rec := recover(); rec != nil {
			o.logger.Error("task panicked",
				"task", spec.ID,
				"panic", rec,
			)
			outcome = model.TaskOutcome{
				TaskID:      spec.ID,
				DisplayName: spec.DisplayName,
				Status:      model.StatusFailed,
				Findings:    model.UnavailablePlaceholder(spec.DisplayName),
				Err: &model.ErrorInfo{
					Kind:    model.ErrKindInternal,
					Message: fmt.Sprintf("task panicked: %v", rec),
				},
				Attempts: 0,
			}
		}
	}()

	// Cancelled before this task was admitted by the concurrency gate:
	// record the cancellation without touching the inference backend.
	select {
	case <-ctx.Done():
		return model.TaskOutcome{
			TaskID:      spec.ID,
			DisplayName: spec.DisplayName,
			Status:      model.StatusFailed,
			Findings:    model.UnavailablePlaceholder(spec.DisplayName),
			Err: &model.ErrorInfo{
				Kind:    model.ErrKindCancelled,
				Message: ctx.Err().Error(),
			},
		}
	default:
	}

	return o.runner.Run(ctx, spec, bundle)
}
