package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values are chosen based on typical inference backend behavior
// and the characteristics of the seven-step analysis framework.
const (
	// DefaultGeminiModel is the inference model used when none is specified.
	// The flash tier is fast and cheap enough to run seven tasks per company
	// while producing acceptable analysis quality.
	DefaultGeminiModel = "gemini-2.5-flash"

	// DefaultRequestTimeout is set to 120 seconds because a single inference
	// call over a large evidence bundle can take well over a minute on
	// slower model tiers. A shorter timeout would misclassify slow-but-good
	// responses as failures.
	DefaultRequestTimeout = 120 * time.Second

	// DefaultRunTimeout bounds the whole analysis run. Seven tasks with up
	// to three attempts each and backoff between them fit comfortably
	// inside ten minutes; anything longer usually indicates a stuck backend.
	DefaultRunTimeout = 10 * time.Minute

	// DefaultMaxRetries is the total attempt count per task, including the
	// first call. Three attempts ride out short rate-limit windows without
	// stretching failed runs unreasonably.
	DefaultMaxRetries = 3

	// DefaultMaxConcurrency of 0 means one worker per registered task, so
	// all seven tasks run simultaneously. Lower it when the inference
	// backend enforces a tight concurrent-request limit.
	DefaultMaxConcurrency = 0

	// DefaultMarketDataBaseURL is the structured market-data gateway.
	// The gateway renders company info, daily metrics, and financial
	// indicators as text blocks keyed by market code.
	DefaultMarketDataBaseURL = "https://marketdata.stockscan.io/v1"

	// AppName is the application name used for XDG directory paths.
	AppName = "stockscan"

	// DefaultUserAgent identifies stockscan when fetching reference links.
	// A descriptive User-Agent is good practice and allows site operators
	// to identify the traffic in their logs.
	DefaultUserAgent = "stockscan/1.0"

	// DefaultMaxDocumentSize limits how much of an uploaded document is read.
	// 5MB is sufficient for annual reports exported as text while preventing
	// memory exhaustion from unexpectedly large files.
	DefaultMaxDocumentSize = 5 * 1024 * 1024 // 5MB
)

// Config holds all configuration options for stockscan.
// This struct is designed to be populated from CLI flags and environment
// variables, then passed through the application via dependency injection
// rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., InferenceConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
// If the configuration grows significantly, consider refactoring into sub-structs.
type Config struct {
	// GeminiAPIKey authenticates inference calls. Required for every run.
	// Populated from the GEMINI_API_KEY environment variable or a flag.
	GeminiAPIKey string

	// GeminiModel is the inference model identifier.
	// Empty means DefaultGeminiModel.
	GeminiModel string

	// GeminiBaseURL overrides the inference endpoint. Empty means the
	// public Gemini API. Used mainly for proxies and tests.
	GeminiBaseURL string

	// MarketDataToken authenticates structured market-data requests.
	// Empty disables the structured source: runs still work, but tasks
	// that want market data are reported as degraded.
	MarketDataToken string

	// MarketDataBaseURL overrides the market-data endpoint.
	MarketDataBaseURL string

	// RequestTimeout is the timeout for each individual inference call.
	RequestTimeout time.Duration

	// RunTimeout bounds one whole analysis run across all tasks.
	RunTimeout time.Duration

	// MaxRetries is the total inference attempt count per task.
	MaxRetries int

	// MaxConcurrency bounds simultaneous inference calls.
	// Zero means one worker per registered task.
	MaxConcurrency int

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .stockscan in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// Profiles holds per-company configurations loaded from the config file.
	// This is populated by LoadConfigFile and used when resolving evidence.
	Profiles *File

	// JSONReport enables JSON report output instead of human-readable format.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of
	// human-readable format. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	// Directories are created automatically if they don't exist.
	ReportFile string

	// Targets is the list of company identifiers to analyze.
	// Each entry is "Name", "Name, CODE", or "Name/CODE".
	Targets []string

	// UserAgent is the User-Agent header sent when fetching reference links.
	UserAgent string

	// MaxDocumentSize is the maximum uploaded-document size in bytes to read.
	// Set to 0 to use the default (5MB).
	MaxDocumentSize int64

	// DBDir is the directory path for storing the SQLite database.
	// When set, analysis results are saved for historical comparison.
	// When empty, results are not persisted.
	// Defaults to XDG data directory (~/.local/share/stockscan on Linux).
	DBDir string

	// SaveToDB indicates whether to save analysis results to the database.
	// This is automatically set to true when DBDir is configured.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeouts, retries).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		GeminiModel:       DefaultGeminiModel,
		MarketDataBaseURL: DefaultMarketDataBaseURL,
		RequestTimeout:    DefaultRequestTimeout,
		RunTimeout:        DefaultRunTimeout,
		MaxRetries:        DefaultMaxRetries,
		MaxConcurrency:    DefaultMaxConcurrency,
		UserAgent:         DefaultUserAgent,
		MaxDocumentSize:   DefaultMaxDocumentSize,
	}
}

// XDGDataDir returns the XDG data directory for stockscan.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/stockscan
// On macOS: ~/Library/Application Support/stockscan
// On Windows: %LOCALAPPDATA%\stockscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for stockscan.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.config/stockscan
// On macOS: ~/Library/Application Support/stockscan
// On Windows: %APPDATA%\stockscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for stockscan.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.cache/stockscan
// On macOS: ~/Library/Caches/stockscan
// On Windows: %LOCALAPPDATA%\stockscan\cache
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any analysis begins.
//
// We chose to return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	// We must have at least one company to analyze
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}

	// Inference is the core of every task; without a key nothing can run
	if c.GeminiAPIKey == "" {
		return ErrMissingAPIKey
	}

	// Timeouts must be positive; zero would cause immediate failures
	if c.RequestTimeout <= 0 || c.RunTimeout <= 0 {
		return ErrInvalidTimeout
	}

	// At least one attempt per task
	if c.MaxRetries <= 0 {
		return ErrInvalidRetries
	}

	// Zero means "one worker per task"; negative is meaningless
	if c.MaxConcurrency < 0 {
		return ErrInvalidConcurrency
	}

	// JSONReport and MarkdownReport are mutually exclusive
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	// MaxDocumentSize must be non-negative; zero means default
	if c.MaxDocumentSize < 0 {
		return ErrInvalidMaxDocumentSize
	}

	return nil
}
