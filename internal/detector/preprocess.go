package detector

import (
	"fmt"
	"sort"

	"golang-recurring-detection-service/internal/models"

	"github.com/shopspring/decimal"
)

// normalizedTransaction augments a source transaction with its canonical
// payee identity and precomputed absolute amount. Instances are created
// once during preprocessing, are immutable afterward, and exist only for
// the duration of one detection call.
type normalizedTransaction struct {
	tx              *models.Transaction
	canonicalPayee  string
	normalizedPayee string
	absAmount       decimal.Decimal
}

// preprocess filters transactions to relevant expenses, normalizes and
// canonicalizes payee names against a freshly built registry, removes
// same-day duplicate echoes, and returns the survivors sorted by date
// ascending. All downstream interval math depends on that ordering.
func preprocess(transactions []*models.Transaction, config *DetectionConfig, registry *payeeRegistry) []*normalizedTransaction {
	// Canonicalization folds later variants into earlier identities, so
	// process in date order
	sorted := make([]*models.Transaction, 0, len(transactions))
	for _, tx := range transactions {
		if tx != nil {
			sorted = append(sorted, tx)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	var normalized []*normalizedTransaction
	for _, tx := range sorted {
		if !isRelevant(tx, config) {
			continue
		}

		payee := tx.Payee()
		normalizedPayee := normalizePayee(payee)
		canonical := registry.resolve(normalizedPayee, payee)

		normalized = append(normalized, &normalizedTransaction{
			tx:              tx,
			canonicalPayee:  canonical,
			normalizedPayee: normalizedPayee,
			absAmount:       tx.AbsAmount(),
		})
	}

	return dedupe(normalized)
}

// isRelevant applies the expense filter, the caller-controlled dismiss
// flag, and the configured category/transfer exclusion policy
func isRelevant(tx *models.Transaction, config *DetectionConfig) bool {
	if tx.IsNotRecurring {
		return false
	}

	if err := tx.Validate(); err != nil {
		// Unusable evidence, not a fatal condition
		return false
	}

	if !config.IncludeNonExpenses && !tx.IsExpense() {
		return false
	}

	if config.IsCategoryExcluded(tx.Category) {
		return false
	}

	if config.IsTransferPayee(tx.Payee()) {
		return false
	}

	return true
}

// dedupe removes same-day echo records (pending vs posted doubles from bank
// feeds) that collide on canonical payee, date, and cent-rounded amount.
// When two records collide, the one with a non-zero amount wins over a
// zero-amount echo; otherwise the first record seen is kept. The tie-break
// is a heuristic that has not been validated against real provider data.
func dedupe(transactions []*normalizedTransaction) []*normalizedTransaction {
	seen := make(map[string]int, len(transactions))
	var result []*normalizedTransaction

	for _, ntx := range transactions {
		key := fmt.Sprintf("%s|%s|%s",
			ntx.canonicalPayee,
			ntx.tx.Date.Format("2006-01-02"),
			ntx.absAmount.Round(2).String())

		if idx, ok := seen[key]; ok {
			if result[idx].tx.Amount.IsZero() && !ntx.tx.Amount.IsZero() {
				result[idx] = ntx
			}
			continue
		}

		seen[key] = len(result)
		result = append(result, ntx)
	}

	return result
}

// groupByPayee partitions normalized transactions by canonical payee.
// Each group preserves the input's chronological order.
func groupByPayee(transactions []*normalizedTransaction) map[string][]*normalizedTransaction {
	groups := make(map[string][]*normalizedTransaction)
	for _, ntx := range transactions {
		groups[ntx.canonicalPayee] = append(groups[ntx.canonicalPayee], ntx)
	}
	return groups
}
