// Package config assembles component configurations from CLI inputs.
package config

import (
	"golang-recurring-detection-service/internal/detector"
	"golang-recurring-detection-service/internal/parsers"
	"golang-recurring-detection-service/internal/reporter"
)

// CreateTransactionParserConfig creates a transaction parser configuration
// with the default column layout and aliases
func CreateTransactionParserConfig() *parsers.TransactionParserConfig {
	return parsers.DefaultTransactionParserConfig()
}

// CreateDetectionConfig creates a detection configuration with the
// specified CLI overrides
func CreateDetectionConfig(
	minOccurrences int,
	confidenceThreshold, minCoverage, amountStability float64,
	excludedCategories, transferKeywords []string,
	includeNonExpenses bool,
) *detector.DetectionConfig {
	config := detector.DefaultDetectionConfig()

	config.MinOccurrences = minOccurrences
	config.ConfidenceThreshold = confidenceThreshold
	config.MinCoverage = minCoverage
	config.AmountStabilityThreshold = amountStability
	config.ExcludedCategories = excludedCategories
	config.TransferKeywords = transferKeywords
	config.IncludeNonExpenses = includeNonExpenses

	return config
}

// CreateReportConfig creates a report configuration for the requested
// output format
func CreateReportConfig(format string, includeOccurrences bool) *reporter.ReportConfig {
	config := reporter.DefaultReportConfig()

	config.Format = reporter.OutputFormat(format)
	config.IncludeOccurrences = includeOccurrences

	return config
}
