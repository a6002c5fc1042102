package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"stockscan/internal/model"
)

// HistoryDB provides SQLite-based storage for analysis run history.
// It manages connection pooling and provides methods for CRUD operations.
//
// Design decision: We use a single database file for all companies rather
// than separate files per company. This simplifies cross-company queries
// and backup/restore operations.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB at the specified path.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, "stockscan.db")

	if !opts.CreateIfNotExists {
		// Check if database file exists
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		// Ensure directory exists
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Build connection string
	// We use modernc.org/sqlite which uses a different connection string format.
	// When CreateIfNotExists is false, we use mode=rw to prevent creating new files.
	// When CreateIfNotExists is true, we use mode=rwc to allow creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; readers share the same connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- Analysis runs store complete result sets as JSON
	CREATE TABLE IF NOT EXISTS analysis_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		company_name TEXT NOT NULL,
		company_code TEXT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		status TEXT NOT NULL,
		task_summary TEXT,
		result_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_company ON analysis_runs(company_name);
	CREATE INDEX IF NOT EXISTS idx_runs_code ON analysis_runs(company_code);
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON analysis_runs(timestamp);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveResultSet saves a complete analysis result set as JSON.
func (hdb *HistoryDB) SaveResultSet(ctx context.Context, result *model.AnalysisResultSet) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to serialize result set: %w", err)
	}

	taskSummary := map[string]int{
		"succeeded": result.SuccessCount,
		"degraded":  result.DegradedCount,
		"failed":    result.FailedCount,
	}
	summaryJSON, _ := json.Marshal(taskSummary) //nolint:errcheck,errchkjson // taskSummary is a simple map; Marshal won't fail

	query := `
	INSERT INTO analysis_runs (company_name, company_code, status, task_summary, result_json)
	VALUES (?, ?, ?, ?, ?)
	`

	_, err = hdb.db.ExecContext(ctx, query,
		result.Company.Name,
		result.Company.Code,
		result.Status.String(),
		string(summaryJSON),
		string(resultJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save analysis run: %w", err)
	}

	return nil
}

// GetLatestResultSet retrieves the most recent result set for a company.
// Returns nil without error when the company has no recorded runs.
func (hdb *HistoryDB) GetLatestResultSet(ctx context.Context, companyName string) (*model.AnalysisResultSet, error) {
	query := `
	SELECT result_json FROM analysis_runs
	WHERE company_name = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT 1
	`

	var resultJSON string
	err := hdb.db.QueryRowContext(ctx, query, companyName).Scan(&resultJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis run: %w", err)
	}

	var result model.AnalysisResultSet
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to parse result set: %w", err)
	}

	return &result, nil
}

// ListCompanies returns all companies with at least one recorded run.
func (hdb *HistoryDB) ListCompanies(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT company_name FROM analysis_runs
	ORDER BY company_name
	`

	rows, err := hdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	var companies []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		companies = append(companies, name)
	}

	return companies, rows.Err()
}

// GetRunHistory retrieves all result sets for a company, newest first.
func (hdb *HistoryDB) GetRunHistory(ctx context.Context, companyName string) ([]*model.AnalysisResultSet, error) {
	query := `
	SELECT result_json FROM analysis_runs
	WHERE company_name = ?
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := hdb.db.QueryContext(ctx, query, companyName)
	if err != nil {
		return nil, fmt.Errorf("failed to get run history: %w", err)
	}
	defer rows.Close()

	var results []*model.AnalysisResultSet
	for rows.Next() {
		var resultJSON string
		if err := rows.Scan(&resultJSON); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		var result model.AnalysisResultSet
		if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
			continue // Skip malformed rows
		}
		results = append(results, &result)
	}

	return results, rows.Err()
}

// RunMetadata contains summary information about a recorded run.
// This is used for displaying history without loading full result sets.
type RunMetadata struct {
	// ID is the unique identifier of the run in the database.
	ID int64

	// CompanyName is the analyzed company.
	CompanyName string

	// CompanyCode is the market code, empty when the run had none.
	CompanyCode string

	// Timestamp is when the run was recorded.
	Timestamp time.Time

	// Status is the overall run state, e.g. "SUCCESS".
	Status string

	// TaskSummary contains per-status task counts.
	TaskSummary map[string]int
}

// GetRunHistoryWithMetadata retrieves run metadata for a company.
// This is more efficient than GetRunHistory when only metadata is needed.
func (hdb *HistoryDB) GetRunHistoryWithMetadata(ctx context.Context, companyName string) ([]RunMetadata, error) {
	query := `
	SELECT id, company_name, company_code, timestamp, status, task_summary
	FROM analysis_runs
	WHERE company_name = ?
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := hdb.db.QueryContext(ctx, query, companyName)
	if err != nil {
		return nil, fmt.Errorf("failed to get run history: %w", err)
	}
	defer rows.Close()

	var results []RunMetadata
	for rows.Next() {
		var meta RunMetadata
		var code sql.NullString
		var timestamp string
		var summaryJSON sql.NullString

		if err := rows.Scan(&meta.ID, &meta.CompanyName, &code, &timestamp, &meta.Status, &summaryJSON); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		meta.CompanyCode = code.String
		meta.Timestamp = parseTimestamp(timestamp)

		if summaryJSON.Valid && summaryJSON.String != "" {
			if err := json.Unmarshal([]byte(summaryJSON.String), &meta.TaskSummary); err != nil {
				meta.TaskSummary = make(map[string]int)
			}
		} else {
			meta.TaskSummary = make(map[string]int)
		}

		results = append(results, meta)
	}

	return results, rows.Err()
}

// GetResultSetByID retrieves a result set by its database ID.
func (hdb *HistoryDB) GetResultSetByID(ctx context.Context, id int64) (*model.AnalysisResultSet, error) {
	query := `
	SELECT result_json FROM analysis_runs
	WHERE id = ?
	`

	var resultJSON string
	err := hdb.db.QueryRowContext(ctx, query, id).Scan(&resultJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis run: %w", err)
	}

	var result model.AnalysisResultSet
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to parse result set: %w", err)
	}

	return &result, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
