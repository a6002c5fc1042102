package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"stockscan/internal/analysis"
	"stockscan/internal/config"
	"stockscan/internal/database"
	"stockscan/internal/evidence"
	"stockscan/internal/inference"
	"stockscan/internal/log"
	"stockscan/internal/model"
	"stockscan/internal/report"
)

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [company...]",
		Short: "Analyze a company through the seven-step framework",
		Long: `Analyze runs the full fundamental-analysis framework over a company.

Seven independent tasks cover: lifecycle phase, business model, moat,
growth, key metrics, risks, and valuation. Each task sees only the
evidence it needs, retries transient inference failures, and fails in
isolation, so a single stuck step never voids the rest of the report.

Evidence priority: uploaded documents > structured market data > model
knowledge. Without a market data token, data-dependent steps still run
on model knowledge and are flagged as degraded.

Examples:
  # Analyze by name and market code
  stockscan analyze "Ping An Bank, 000001.SZ"

  # Analyze several companies in one run
  stockscan analyze "Ping An Bank, 000001.SZ" "Baosteel, 600019.SH"

  # Attach an annual report as top-priority evidence
  stockscan analyze -c mycompanies.yaml "Acme Widgets"

  # Output JSON report to a file
  stockscan analyze --json -o report.json "Acme Widgets, 600019.SH"

Configuration file (.stockscan) example:
  companies:
    Acme Widgets:
      code: "600019.SH"
      documents:
        - reports/acme-annual-2025.txt
      links:
        - https://example.com/investor-relations
      notes: "Watch the Q3 capacity expansion."`,
		Args: cobra.ArbitraryArgs,
		RunE: runAnalyzeCmd,
	}

	// Inference backend flags
	cmd.Flags().StringP("api-key", "k", "",
		"Gemini API key (defaults to GEMINI_API_KEY environment variable)")
	cmd.Flags().String("model", config.DefaultGeminiModel,
		"Inference model identifier")

	// Market data flags
	cmd.Flags().String("market-token", "",
		"Market data API token (defaults to TUSHARE_TOKEN environment variable)")
	cmd.Flags().String("market-url", config.DefaultMarketDataBaseURL,
		"Market data gateway base URL")

	// Run behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultRequestTimeout,
		"Timeout for each individual inference call")
	cmd.Flags().DurationP("run-timeout", "T", config.DefaultRunTimeout,
		"Timeout for the whole analysis run")
	cmd.Flags().IntP("retries", "r", config.DefaultMaxRetries,
		"Total inference attempts per task, including the first call")
	cmd.Flags().IntP("concurrency", "n", config.DefaultMaxConcurrency,
		"Maximum simultaneous inference calls (0 = one worker per task)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .stockscan in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("no-save", false,
		"Do not save analysis results to the local history database")

	return cmd
}

// runAnalyzeCmd executes the analyze command.
func runAnalyzeCmd(cmd *cobra.Command, args []string) error {
	// Build config from flags
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging with credential redaction
	verbose := getVerboseFlag(cmd)
	logger := setupLogger(verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runAnalyze(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	// Get flag values
	var err error

	cfg.GeminiAPIKey, err = cmd.Flags().GetString("api-key")
	if err != nil {
		return nil, err
	}
	if cfg.GeminiAPIKey == "" {
		cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}

	cfg.GeminiModel, err = cmd.Flags().GetString("model")
	if err != nil {
		return nil, err
	}

	cfg.MarketDataToken, err = cmd.Flags().GetString("market-token")
	if err != nil {
		return nil, err
	}
	if cfg.MarketDataToken == "" {
		cfg.MarketDataToken = os.Getenv("TUSHARE_TOKEN")
	}

	cfg.MarketDataBaseURL, err = cmd.Flags().GetString("market-url")
	if err != nil {
		return nil, err
	}

	cfg.RequestTimeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.RunTimeout, err = cmd.Flags().GetDuration("run-timeout")
	if err != nil {
		return nil, err
	}

	cfg.MaxRetries, err = cmd.Flags().GetInt("retries")
	if err != nil {
		return nil, err
	}

	cfg.MaxConcurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load company profiles from config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.Profiles, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		// User explicitly specified a config file that doesn't exist
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		// Use empty config if no file found and user didn't explicitly specify one
		cfg.Profiles = &config.File{
			Companies: make(map[string]config.CompanyProfile),
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	noSave, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return nil, err
	}

	// Save to the history database unless disabled, using the XDG data
	// directory.
	cfg.SaveToDB = !noSave
	if cfg.SaveToDB {
		cfg.DBDir = config.XDGDataDir()
	}

	// Get positional arguments (company identifiers)
	cfg.Targets = args

	return cfg, nil
}

// setupLogger creates a structured logger based on verbosity setting.
// The secure handler masks API keys and tokens before any record is
// written, so verbose runs can be shared safely.
func setupLogger(verbose bool) *slog.Logger {
	return log.NewSecureLogger(os.Stderr, verbose)
}

// runAnalyze executes the analysis for every configured target.
func runAnalyze(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting analysis",
		"targets", cfg.Targets,
		"model", cfg.GeminiModel,
		"marketData", cfg.MarketDataToken != "",
		"saveToDB", cfg.SaveToDB,
	)

	// Open database connection if saving is enabled
	var db *database.HistoryDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	client := inference.NewGeminiClient(cfg.GeminiAPIKey,
		inference.WithGeminiModel(cfg.GeminiModel),
		inference.WithGeminiBaseURL(cfg.GeminiBaseURL),
		inference.WithGeminiTimeout(cfg.RequestTimeout),
		inference.WithGeminiLogger(logger),
	)

	for _, target := range cfg.Targets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		companyID, profile, err := resolveTarget(cfg, target)
		if err != nil {
			return fmt.Errorf("invalid target %q: %w", target, err)
		}

		resolver := buildResolver(cfg, profile, logger)

		fmt.Printf("Analyzing %s...\n", companyID)
		startTime := time.Now()

		result, err := analysis.Run(ctx, companyID, resolver, client, analysis.Options{
			Timeout:        cfg.RunTimeout,
			MaxRetries:     cfg.MaxRetries,
			MaxConcurrency: cfg.MaxConcurrency,
			Logger:         logger,
		})
		if err != nil {
			logger.Error("analysis failed", "target", target, "error", err)
			fmt.Fprintf(os.Stderr, "Analysis error for %s: %v\n", target, err)
			continue
		}

		elapsed := time.Since(startTime)
		fmt.Printf("Analysis completed in %s\n\n", elapsed.Round(time.Millisecond))

		// Generate and output report
		if err := outputReport(cfg, result); err != nil {
			logger.Error("report failed", "target", target, "error", err)
		}

		// Save to database if enabled
		if err := saveResultSet(ctx, db, result, logger); err != nil {
			logger.Error("failed to save analysis result", "target", target, "error", err)
		}
	}

	return nil
}

// resolveTarget parses a target identifier and merges it with the
// company profile from the configuration file. A profile market code
// fills in for targets given by name only.
func resolveTarget(cfg *config.Config, target string) (string, config.CompanyProfile, error) {
	company, err := model.ParseCompanyID(target)
	if err != nil {
		return "", config.CompanyProfile{}, err
	}

	var profile config.CompanyProfile
	if cfg.Profiles != nil {
		profile = cfg.Profiles.GetCompanyProfile(company.Name)
	}

	if company.Code == "" && profile.Code != "" {
		company.Code = model.NormalizeCode(profile.Code)
	}

	return company.ID(), profile, nil
}

// buildResolver assembles the evidence resolver for one target from its
// profile and the global configuration.
func buildResolver(cfg *config.Config, profile config.CompanyProfile, logger *slog.Logger) *evidence.Resolver {
	var uploaded []evidence.UploadedSource

	if len(profile.Documents) > 0 {
		uploaded = append(uploaded, evidence.NewFileSource(profile.Documents,
			evidence.WithMaxDocumentSize(cfg.MaxDocumentSize),
			evidence.WithFileSourceLogger(logger),
		))
	}
	if len(profile.Links) > 0 {
		uploaded = append(uploaded, evidence.NewLinkSource(profile.Links,
			evidence.WithLinkUserAgent(cfg.UserAgent),
			evidence.WithLinkSourceLogger(logger),
		))
	}
	if profile.Notes != "" {
		uploaded = append(uploaded, evidence.NewNoteSource(profile.Notes))
	}

	var structured evidence.StructuredSource
	if cfg.MarketDataToken != "" {
		structured = evidence.NewMarketDataClient(cfg.MarketDataBaseURL, cfg.MarketDataToken,
			evidence.WithMarketDataLogger(logger),
		)
	}

	return evidence.NewResolver(uploaded, structured, evidence.NewModelKnowledgeSource(),
		evidence.WithResolverLogger(logger),
	)
}

// outputReport outputs the analysis report in the requested format.
func outputReport(cfg *config.Config, result *model.AnalysisResultSet) error {
	// Determine output destination
	var output *os.File
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Create/overwrite the output file with secure permissions (0600)
		// Reports may contain non-public analyst material that should only
		// be readable by the owner
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	// JSON output (full result set wrapped with version metadata)
	if cfg.JSONReport {
		writer := report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
		_, err := writer.Write(result)
		return err
	}

	// Markdown output
	if cfg.MarkdownReport {
		writer := report.NewMarkdownWriter(output)
		_, err := writer.Write(result)
		return err
	}

	// Human-readable report (default)
	writer := report.NewSimpleWriter(output)
	_, err := writer.Write(result)
	return err
}

// saveResultSet saves the analysis result to the database if enabled.
// If db is nil, this function is a no-op.
func saveResultSet(ctx context.Context, db *database.HistoryDB, result *model.AnalysisResultSet, logger *slog.Logger) error {
	if db == nil {
		return nil
	}

	if err := db.SaveResultSet(ctx, result); err != nil {
		return fmt.Errorf("failed to save analysis result: %w", err)
	}

	logger.Info("analysis result saved to database", "company", result.Company.ID())
	return nil
}
