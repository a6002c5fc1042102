package analysis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"stockscan/internal/inference"
	"stockscan/internal/model"
	"stockscan/internal/retry"
)

// Runner executes one analysis task: it projects the evidence bundle
// down to the task's required fields, invokes the inference client
// through the retry policy, and normalizes every possible ending into a
// fully-built TaskOutcome. Every code path terminates in an outcome;
// the orchestrator relies on that as its isolation boundary.
type Runner struct {
	client inference.Client
	policy *retry.Policy
	logger *slog.Logger
	now    func() time.Time
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRunnerLogger sets a custom logger.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a Runner using the given inference client and retry
// policy. A nil policy gets the default policy.
func NewRunner(client inference.Client, policy *retry.Policy, opts ...RunnerOption) *Runner {
	r := &Runner{
		client: client,
		policy: policy,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.policy == nil {
		r.policy = retry.New()
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Run executes one task against the shared bundle and returns its
// outcome. The bundle is read-only; Run never writes to it.
func (r *Runner) Run(ctx context.Context, spec model.TaskSpec, bundle *model.EvidenceBundle) model.TaskOutcome {
	start := r.now()
	projection := bundle.Project(spec.RequiredFields)

	r.logger.Debug("task started",
		"task", spec.ID,
		"evidence_items", len(projection),
	)

	var findings string
	attempts, err := r.policy.Do(ctx, inference.ClassifyRetry, func(ctx context.Context) error {
		text, inferErr := r.client.Infer(ctx, spec, projection)
		if inferErr != nil {
			return inferErr
		}
		findings = text
		return nil
	})

	elapsed := r.now().Sub(start).Milliseconds()

	if err != nil {
		outcome := r.failedOutcome(spec, err, attempts, elapsed)
		r.logger.Warn("task failed",
			"task", spec.ID,
			"kind", outcome.Err.Kind,
			"attempts", attempts,
			"error", err,
		)
		return outcome
	}

	outcome := model.TaskOutcome{
		TaskID:      spec.ID,
		DisplayName: spec.DisplayName,
		Status:      model.StatusSuccess,
		Findings:    findings,
		Attempts:    attempts,
		ElapsedMs:   elapsed,
	}

	// The task completed, but if it wanted structured backing that the
	// resolver could not provide, the findings rest on lower-priority
	// sources and the outcome must say so.
	if spec.RequiresSource(model.SourceStructured) && !bundle.HasSource(model.SourceStructured) {
		outcome.Status = model.StatusDegraded
		outcome.Caveats = append(outcome.Caveats,
			"structured market data was unavailable; findings rely on documents and model knowledge")
	}

	r.logger.Debug("task completed",
		"task", spec.ID,
		"status", outcome.Status,
		"attempts", attempts,
		"elapsed_ms", elapsed,
	)
	return outcome
}

// failedOutcome builds the outcome for a task whose inference never
// succeeded. Findings carry an explicit placeholder, never empty text.
func (r *Runner) failedOutcome(spec model.TaskSpec, err error, attempts int, elapsed int64) model.TaskOutcome {
	kind := model.ErrKindRetryableInference

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		kind = model.ErrKindCancelled
	default:
		var final *retry.FinalError
		if errors.As(err, &final) {
			// Retries exhausted on a transient failure.
			kind = model.ErrKindRetryableInference
		} else if !inference.KindOf(err).Retryable() {
			kind = model.ErrKindFatalInference
		}
	}

	return model.TaskOutcome{
		TaskID:      spec.ID,
		DisplayName: spec.DisplayName,
		Status:      model.StatusFailed,
		Findings:    model.UnavailablePlaceholder(spec.DisplayName),
		Err: &model.ErrorInfo{
			Kind:    kind,
			Message: err.Error(),
		},
		Attempts:  attempts,
		ElapsedMs: elapsed,
	}
}
