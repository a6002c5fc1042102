package analysis

import (
	"context"
	"log/slog"
	"time"

	"stockscan/internal/evidence"
	"stockscan/internal/inference"
	"stockscan/internal/model"
	"stockscan/internal/retry"
)

// Options tunes one analysis run. Zero values fall back to defaults.
type Options struct {
	// Timeout bounds the whole run. Zero means no deadline beyond the
	// caller's context.
	Timeout time.Duration

	// MaxRetries is the total inference attempt count per task.
	MaxRetries int

	// MaxConcurrency bounds simultaneous inference calls. Zero means one
	// worker per registered task.
	MaxConcurrency int

	// Logger receives run progress. Nil means slog.Default().
	Logger *slog.Logger
}

// Run is the analysis entry point: resolve the company's evidence, fan
// the task registry out over it, and return the aggregated result set.
//
// The only error return is a malformed company identifier; every other
// failure is contained inside the result set as per-task status.
func Run(ctx context.Context, companyID string, resolver *evidence.Resolver, client inference.Client, opts Options) (*model.AnalysisResultSet, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	bundle, err := resolver.Resolve(ctx, companyID)
	if err != nil {
		return nil, err
	}

	var retryOpts []retry.Option
	if opts.MaxRetries > 0 {
		retryOpts = append(retryOpts, retry.WithMaxAttempts(opts.MaxRetries))
	}

	runner := NewRunner(client, retry.New(retryOpts...), WithRunnerLogger(logger))

	orchOpts := []OrchestratorOption{WithOrchestratorLogger(logger)}
	if opts.MaxConcurrency > 0 {
		orchOpts = append(orchOpts, WithConcurrency(opts.MaxConcurrency))
	}

	return NewOrchestrator(runner, orchOpts...).RunAll(ctx, bundle), nil
}
