// Package config provides configuration structures and utilities for stockscan.
// It defines the main configuration options for running analyses, evidence
// gathering settings, and report generation preferences.
package config
