// Package detector implements recurring transaction pattern detection.
//
// Detection runs as a pure, synchronous, four-stage pipeline over an
// in-memory transaction list:
//  1. Preprocessing: expense filtering, payee normalization, canonical
//     payee assignment, and same-day duplicate removal
//  2. Payee grouping: partitioning by canonical payee
//  3. Amount clustering: splitting each payee group into sub-groups by
//     amount similarity (separates multiple subscription tiers)
//  4. Cadence analysis: interval inference, outlier removal, confidence
//     scoring, and next-date projection
//
// All state, including the canonical-payee registry, is local to a single
// Detect call, so an Engine is safe for concurrent use.
//
// Example usage:
//
//	config := detector.DefaultDetectionConfig()
//	config.MinOccurrences = 4
//
//	engine := detector.NewEngine(config)
//	patterns := engine.Detect(transactions)
package detector

import (
	"fmt"
	"strings"
)

// DetectionConfig holds configuration parameters for recurring pattern
// detection. Tolerances and gates control how much evidence a payee's
// transaction history must provide before a pattern is emitted.
//
// Use the provided factory functions for common scenarios:
//   - DefaultDetectionConfig(): balanced approach for most use cases
//   - StrictDetectionConfig(): high evidence bar for noisy data
//   - RelaxedDetectionConfig(): exploratory detection with loose gates
type DetectionConfig struct {
	// MinOccurrences defines the minimum number of observed transactions
	// required before a cluster can become a pattern
	MinOccurrences int `json:"min_occurrences"`

	// ConfidenceThreshold defines the minimum confidence score (0.0 to 1.0)
	// for an emitted pattern
	ConfidenceThreshold float64 `json:"confidence_threshold"`

	// MinCoverage defines the minimum ratio of observed to expected
	// occurrences given the detected cadence and date span
	MinCoverage float64 `json:"min_coverage"`

	// AmountStabilityThreshold defines the maximum MAD/median ratio for a
	// cluster's amounts to be considered stable
	AmountStabilityThreshold float64 `json:"amount_stability_threshold"`

	// IncludeNonExpenses disables the expense-only filter so that income
	// and zero-amount transactions are considered as well
	IncludeNonExpenses bool `json:"include_non_expenses"`

	// ExcludedCategories lists transaction categories skipped during
	// preprocessing (e.g. "Groceries"). Matching is case-insensitive.
	ExcludedCategories []string `json:"excluded_categories"`

	// TransferKeywords lists payee substrings that mark internal transfers
	// to be skipped during preprocessing. Matching is case-insensitive.
	TransferKeywords []string `json:"transfer_keywords"`
}

// DefaultDetectionConfig returns a configuration with sensible defaults
func DefaultDetectionConfig() *DetectionConfig {
	return &DetectionConfig{
		MinOccurrences:           3,
		ConfidenceThreshold:      0.6,
		MinCoverage:              0.6,
		AmountStabilityThreshold: 0.05,
		IncludeNonExpenses:       false,
		ExcludedCategories:       []string{},
		TransferKeywords:         []string{},
	}
}

// StrictDetectionConfig returns a configuration for strict detection
func StrictDetectionConfig() *DetectionConfig {
	return &DetectionConfig{
		MinOccurrences:           4,
		ConfidenceThreshold:      0.75,
		MinCoverage:              0.8,
		AmountStabilityThreshold: 0.03,
		IncludeNonExpenses:       false,
		ExcludedCategories:       []string{},
		TransferKeywords:         []string{},
	}
}

// RelaxedDetectionConfig returns a configuration for exploratory detection
func RelaxedDetectionConfig() *DetectionConfig {
	return &DetectionConfig{
		MinOccurrences:           2,
		ConfidenceThreshold:      0.5,
		MinCoverage:              0.4,
		AmountStabilityThreshold: 0.1,
		IncludeNonExpenses:       false,
		ExcludedCategories:       []string{},
		TransferKeywords:         []string{},
	}
}

// Validate checks if the detection configuration is valid
func (dc *DetectionConfig) Validate() error {
	if dc.MinOccurrences < 2 {
		return fmt.Errorf("minimum occurrences must be at least 2: %d", dc.MinOccurrences)
	}

	if dc.ConfidenceThreshold < 0.0 || dc.ConfidenceThreshold > 1.0 {
		return fmt.Errorf("confidence threshold must be between 0.0 and 1.0: %f", dc.ConfidenceThreshold)
	}

	if dc.MinCoverage < 0.0 || dc.MinCoverage > 1.0 {
		return fmt.Errorf("minimum coverage must be between 0.0 and 1.0: %f", dc.MinCoverage)
	}

	if dc.AmountStabilityThreshold < 0.0 || dc.AmountStabilityThreshold > 1.0 {
		return fmt.Errorf("amount stability threshold must be between 0.0 and 1.0: %f", dc.AmountStabilityThreshold)
	}

	return nil
}

// Clone creates a deep copy of the detection configuration
func (dc *DetectionConfig) Clone() *DetectionConfig {
	if dc == nil {
		return nil
	}

	clone := &DetectionConfig{
		MinOccurrences:           dc.MinOccurrences,
		ConfidenceThreshold:      dc.ConfidenceThreshold,
		MinCoverage:              dc.MinCoverage,
		AmountStabilityThreshold: dc.AmountStabilityThreshold,
		IncludeNonExpenses:       dc.IncludeNonExpenses,
		ExcludedCategories:       make([]string, len(dc.ExcludedCategories)),
		TransferKeywords:         make([]string, len(dc.TransferKeywords)),
	}
	copy(clone.ExcludedCategories, dc.ExcludedCategories)
	copy(clone.TransferKeywords, dc.TransferKeywords)

	return clone
}

// IsCategoryExcluded checks whether a transaction category is excluded by
// the configured policy
func (dc *DetectionConfig) IsCategoryExcluded(category string) bool {
	if category == "" {
		return false
	}

	for _, excluded := range dc.ExcludedCategories {
		if strings.EqualFold(strings.TrimSpace(excluded), strings.TrimSpace(category)) {
			return true
		}
	}
	return false
}

// IsTransferPayee checks whether a payee name matches a configured transfer
// keyword
func (dc *DetectionConfig) IsTransferPayee(payee string) bool {
	if payee == "" || len(dc.TransferKeywords) == 0 {
		return false
	}

	lowered := strings.ToLower(payee)
	for _, keyword := range dc.TransferKeywords {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword != "" && strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

// String returns a human-readable description of the configuration
func (dc *DetectionConfig) String() string {
	return fmt.Sprintf("DetectionConfig{MinOccurrences: %d, ConfidenceThreshold: %.2f, MinCoverage: %.2f, AmountStability: %.2f, ExcludedCategories: %d}",
		dc.MinOccurrences, dc.ConfidenceThreshold, dc.MinCoverage, dc.AmountStabilityThreshold, len(dc.ExcludedCategories))
}
