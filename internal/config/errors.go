package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages. Using errors.New() here rather than fmt.Errorf()
// because we don't need to include dynamic values in these messages.
var (
	// ErrNoTarget is returned when no company identifier is specified.
	// This error occurs when no positional argument provides a target.
	ErrNoTarget = errors.New("no target specified: provide a company name or \"Name, CODE\"")

	// ErrMissingAPIKey is returned when no inference API key is configured.
	// Set the GEMINI_API_KEY environment variable or the --api-key flag.
	ErrMissingAPIKey = errors.New("missing API key: set GEMINI_API_KEY or --api-key")

	// ErrInvalidTimeout is returned when a timeout is not positive.
	// A timeout of zero or negative would cause immediate failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidRetries is returned when the retry count is not positive.
	// Every task needs at least one inference attempt.
	ErrInvalidRetries = errors.New("invalid retries: must be positive")

	// ErrInvalidConcurrency is returned when the concurrency bound is
	// negative. Use 0 to run one worker per registered task.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidMaxDocumentSize is returned when the max document size is
	// negative. A negative size is invalid; use 0 to use the default limit.
	ErrInvalidMaxDocumentSize = errors.New("invalid max document size: must be non-negative")
)
