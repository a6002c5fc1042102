// Package database provides SQLite-based storage for analysis history.
//
// This package implements the HistoryDB, which stores:
//   - Complete analysis result sets as JSON for later retrieval
//   - Run metadata (status and per-status counts) for fast history listings
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
package database
