// Package main provides the entry point for the stockscan CLI.
//
// stockscan is a fundamental-analysis tool for listed companies.
// It gathers evidence (uploaded documents, structured market data, model
// knowledge), runs a fixed seven-step analysis framework concurrently,
// and renders the aggregated findings as a report.
//
// Usage:
//
//	stockscan analyze "Acme Widgets, 600019.SH"
//	stockscan history "Acme Widgets"
//
// See --help for all available options.
package main

// main is the entry point for stockscan.
func main() {
	Execute()
}
