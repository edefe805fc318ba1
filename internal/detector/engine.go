package detector

import (
	"sort"
	"time"

	"golang-recurring-detection-service/internal/models"
	"golang-recurring-detection-service/pkg/logger"
)

// Engine runs the recurring pattern detection pipeline. An Engine holds
// only configuration; every Detect call builds its own registry and
// intermediate state, so a single Engine is safe for concurrent use.
type Engine struct {
	config *DetectionConfig
	logger logger.Logger
}

// NewEngine creates a new detection engine with the specified configuration
func NewEngine(config *DetectionConfig) *Engine {
	if config == nil {
		config = DefaultDetectionConfig()
	}

	return &Engine{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("detection_engine"),
	}
}

// Detect runs the full pipeline over the supplied transactions and returns
// the detected recurring patterns sorted by confidence descending. It
// never returns an error: insufficient evidence yields fewer or zero
// patterns.
func (e *Engine) Detect(transactions []*models.Transaction) []*models.RecurringPattern {
	return e.DetectAt(transactions, time.Now())
}

// DetectAt is Detect with a caller-supplied clock, used for next-date
// projection. Next expected dates are strictly after now.
func (e *Engine) DetectAt(transactions []*models.Transaction, now time.Time) []*models.RecurringPattern {
	if len(transactions) < e.config.MinOccurrences {
		return []*models.RecurringPattern{}
	}

	registry := newPayeeRegistry()
	normalized := preprocess(transactions, e.config, registry)

	e.logger.WithFields(logger.Fields{
		"input_transactions":  len(transactions),
		"usable_transactions": len(normalized),
		"distinct_payees":     registry.size(),
	}).Debug("Preprocessing complete")

	if len(normalized) < e.config.MinOccurrences {
		return []*models.RecurringPattern{}
	}

	groups := groupByPayee(normalized)

	patterns := []*models.RecurringPattern{}
	for payee, group := range groups {
		if len(group) < 2 {
			continue
		}

		for _, cluster := range clusterByAmount(group, e.config.MinOccurrences) {
			if pattern := analyzeCadence(payee, cluster, e.config, now); pattern != nil {
				patterns = append(patterns, pattern)
			}
		}
	}

	sortPatterns(patterns)

	e.logger.WithFields(logger.Fields{
		"payee_groups":      len(groups),
		"patterns_detected": len(patterns),
	}).Debug("Detection complete")

	return patterns
}

// GetConfiguration returns a copy of the current configuration
func (e *Engine) GetConfiguration() *DetectionConfig {
	return e.config.Clone()
}

// sortPatterns orders patterns by confidence descending, breaking ties by
// transaction count and then payee name so output is deterministic
func sortPatterns(patterns []*models.RecurringPattern) {
	sort.SliceStable(patterns, func(i, j int) bool {
		if patterns[i].Confidence != patterns[j].Confidence {
			return patterns[i].Confidence > patterns[j].Confidence
		}
		if patterns[i].TransactionCount != patterns[j].TransactionCount {
			return patterns[i].TransactionCount > patterns[j].TransactionCount
		}
		return patterns[i].Counterparty < patterns[j].Counterparty
	})
}
