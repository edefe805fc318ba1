package detector

import (
	"math"
	"time"

	"golang-recurring-detection-service/internal/models"
	"golang-recurring-detection-service/internal/stats"

	"github.com/shopspring/decimal"
)

// cadenceTemplate describes a known recurrence cadence as an expected
// day-count with a matching tolerance
type cadenceTemplate struct {
	frequency models.Frequency
	days      int
	tolerance int
}

// cadenceTemplates are checked in order of ascending interval. Tolerances
// widen with the interval to absorb weekend shifts and month-length drift.
var cadenceTemplates = []cadenceTemplate{
	{models.FrequencyDaily, 1, 1},
	{models.FrequencyWeekly, 7, 2},
	{models.FrequencyBiWeekly, 14, 3},
	{models.FrequencyMonthly, 30, 4},
	{models.FrequencyQuarterly, 91, 7},
	{models.FrequencyYearly, 365, 14},
}

// Tunable heuristic constants. The custom-cadence and day-of-month
// thresholds are taken from observed billing data and have not been derived
// independently.
const (
	// gapOutlierMADMultiplier is how many MADs from the median a day gap
	// may stray before it is discarded as an outlier (pro-rated first or
	// last billing cycles)
	gapOutlierMADMultiplier = 3.0

	// customCadenceMaxCV is the maximum coefficient of variation for an
	// interval distribution to qualify as a stable custom cadence
	customCadenceMaxCV = 0.25

	// customCadenceMaxIQRRatio bounds the interquartile range relative to
	// the median interval for a custom cadence
	customCadenceMaxIQRRatio = 0.25

	// dayOfMonthMADLimit is the maximum day-of-month MAD for the monthly
	// consistency override
	dayOfMonthMADLimit = 2.0

	// monthlyOverrideMinDays and monthlyOverrideMaxDays bound the median
	// interval for the day-of-month override (calendar months span 28-31
	// days, so raw interval tolerance alone under- or over-matches)
	monthlyOverrideMinDays = 27.0
	monthlyOverrideMaxDays = 34.0

	// monthlyOverrideScore is the cadence score assigned when the
	// day-of-month override fires
	monthlyOverrideScore = 0.95

	// unstableMinOccurrences is the occurrence floor for clusters whose
	// amounts fail the stability gate; weaker amount evidence is
	// compensated with more temporal evidence
	unstableMinOccurrences = 5

	// Confidence weights
	cadenceWeight     = 0.35
	coverageWeight    = 0.30
	occurrenceWeight  = 0.20
	stabilityWeight   = 0.15
	unstableFlagValue = 0.5
)

// stableAmountMADCeiling is the absolute MAD in currency units below which
// a cluster counts as stable regardless of its relative dispersion
var stableAmountMADCeiling = decimal.NewFromInt(3)

// cadenceMatch is the outcome of matching an interval distribution against
// the known cadence templates
type cadenceMatch struct {
	frequency    models.Frequency
	expectedDays float64
	score        float64
}

// analyzeCadence examines one amount cluster and returns a recurring
// pattern, or nil when the cluster fails any evidence gate. Gate failures
// are expected steady-state behavior, not errors.
func analyzeCadence(payee string, cluster *amountCluster, config *DetectionConfig, now time.Time) *models.RecurringPattern {
	members := cluster.transactions
	if len(members) < 2 {
		return nil
	}

	gaps := dayGaps(members)
	if len(gaps) == 0 {
		return nil
	}

	filtered, ok := removeGapOutliers(gaps)
	if !ok {
		return nil
	}

	medianInterval := stats.Median(filtered)
	cv := stats.CoefficientOfVariation(filtered)
	iqr := stats.IQR(filtered)

	match := matchCadence(members, medianInterval, cv, iqr)
	if match == nil {
		return nil
	}

	if len(members) < config.MinOccurrences {
		return nil
	}

	coverage := computeCoverage(members, match.expectedDays)
	if coverage < config.MinCoverage {
		return nil
	}

	stable := isAmountStable(cluster, config.AmountStabilityThreshold)
	if !stable && len(members) < unstableMinOccurrences {
		return nil
	}

	occurrenceScore := math.Min(1, float64(len(members)-2)/4)
	stabilityFlag := 1.0
	if !stable {
		stabilityFlag = unstableFlagValue
	}

	confidence := cadenceWeight*match.score +
		coverageWeight*coverage +
		occurrenceWeight*occurrenceScore +
		stabilityWeight*stabilityFlag
	if confidence < config.ConfidenceThreshold {
		return nil
	}

	first := members[0].tx
	last := members[len(members)-1].tx
	intervalDays := int(math.Round(medianInterval))

	occurrences := make([]*models.Occurrence, len(members))
	amountSum := decimal.Zero
	for i, ntx := range members {
		occurrences[i] = &models.Occurrence{
			ID:     ntx.tx.ID,
			Date:   ntx.tx.Date,
			Amount: ntx.tx.Amount,
		}
		amountSum = amountSum.Add(ntx.absAmount)
	}

	return &models.RecurringPattern{
		ID:               first.ID + "-" + match.frequency.String(),
		Description:      first.Description,
		Counterparty:     payee,
		Amount:           cluster.median,
		AmountStdDev:     cluster.stdDev,
		AmountMAD:        cluster.mad,
		Currency:         first.Currency,
		Frequency:        match.frequency,
		IntervalDays:     intervalDays,
		Confidence:       confidence,
		Coverage:         coverage,
		NextExpectedDate: projectNextDate(last.Date, match.frequency, intervalDays, now),
		LastSeenDate:     last.Date,
		TransactionCount: len(members),
		AverageAmount:    amountSum.Div(decimal.NewFromInt(int64(len(members)))).Round(2),
		Occurrences:      occurrences,
		Category:         mostCommonCategory(members),
	}
}

// dayGaps computes the consecutive day intervals between chronologically
// sorted transactions, dropping non-positive gaps (same-day leftovers)
func dayGaps(members []*normalizedTransaction) []float64 {
	var gaps []float64
	for i := 1; i < len(members); i++ {
		days := math.Round(members[i].tx.Date.Sub(members[i-1].tx.Date).Hours() / 24)
		if days > 0 {
			gaps = append(gaps, days)
		}
	}
	return gaps
}

// removeGapOutliers drops gaps farther than three MADs from the median,
// which tolerates pro-rated first or last billing cycles. It reports
// failure when more than half the gaps are outliers: the remainder is too
// thin to infer a cadence from.
func removeGapOutliers(gaps []float64) ([]float64, bool) {
	median := stats.Median(gaps)
	mad := stats.MAD(gaps, median)
	if mad == 0 {
		return gaps, true
	}

	var filtered []float64
	for _, gap := range gaps {
		if math.Abs(gap-median) <= gapOutlierMADMultiplier*mad {
			filtered = append(filtered, gap)
		}
	}

	if len(filtered)*2 < len(gaps) {
		return nil, false
	}

	return filtered, true
}

// matchCadence matches the interval distribution against the cadence
// templates. The monthly day-of-month override runs first: consistent
// billing days across 27-34 day intervals are monthly regardless of the
// generic tolerance math. When no template fits, a tight enough interval
// distribution becomes a custom cadence.
func matchCadence(members []*normalizedTransaction, medianInterval, cv, iqr float64) *cadenceMatch {
	if domMAD := dayOfMonthMAD(members); domMAD <= dayOfMonthMADLimit &&
		medianInterval >= monthlyOverrideMinDays && medianInterval <= monthlyOverrideMaxDays {
		return &cadenceMatch{
			frequency:    models.FrequencyMonthly,
			expectedDays: 30,
			score:        monthlyOverrideScore,
		}
	}

	consistency := math.Max(0, 1-0.5*cv)

	var best *cadenceMatch
	for _, template := range cadenceTemplates {
		diff := math.Abs(medianInterval - float64(template.days))
		if diff > float64(template.tolerance) {
			continue
		}

		proximity := 1 - diff/float64(template.tolerance+1)
		score := 0.7*proximity + 0.3*consistency

		if best == nil || score > best.score {
			best = &cadenceMatch{
				frequency:    template.frequency,
				expectedDays: float64(template.days),
				score:        score,
			}
		}
	}

	if best != nil {
		return best
	}

	// Genuinely irregular-but-stable cadences, e.g. every 40 days
	if cv <= customCadenceMaxCV && iqr <= customCadenceMaxIQRRatio*medianInterval {
		return &cadenceMatch{
			frequency:    models.FrequencyCustom,
			expectedDays: math.Round(medianInterval),
			score:        consistency,
		}
	}

	return nil
}

// dayOfMonthMAD computes the MAD of the day-of-month across transactions
func dayOfMonthMAD(members []*normalizedTransaction) float64 {
	days := make([]float64, len(members))
	for i, ntx := range members {
		days[i] = float64(ntx.tx.Date.Day())
	}
	return stats.MAD(days, stats.Median(days))
}

// computeCoverage returns the ratio of observed occurrences to the number
// expected given the cadence and observed date span, capped at 1
func computeCoverage(members []*normalizedTransaction, expectedDays float64) float64 {
	if expectedDays <= 0 {
		return 0
	}

	span := members[len(members)-1].tx.Date.Sub(members[0].tx.Date).Hours() / 24
	expected := math.Ceil(span / expectedDays)
	if expected < 1 {
		expected = 1
	}

	return math.Min(1, float64(len(members))/expected)
}

// isAmountStable reports whether a cluster's amounts are stable: relative
// MAD within the configured threshold, or absolute MAD within a small
// currency ceiling (cheap plans fluctuate by cents, not percentages)
func isAmountStable(cluster *amountCluster, threshold float64) bool {
	if cluster.mad.LessThanOrEqual(stableAmountMADCeiling) {
		return true
	}

	if cluster.median.IsZero() {
		return false
	}

	ratio := cluster.mad.Div(cluster.median).InexactFloat64()
	return ratio <= threshold
}

// projectNextDate advances from the last observed occurrence to the first
// expected date strictly after now. Calendar-based cadences advance by
// calendar units with the day-of-month clamped to each target month's
// length; interval-based cadences advance by the rounded median interval.
// Both loop rather than single-step, which skips periods correctly when a
// batch run happens long after the last observed occurrence.
func projectNextDate(last time.Time, frequency models.Frequency, intervalDays int, now time.Time) time.Time {
	if frequency.IsCalendarBased() {
		months := 1
		switch frequency {
		case models.FrequencyQuarterly:
			months = 3
		case models.FrequencyYearly:
			months = 12
		}

		targetDay := last.Day()
		next := addMonthsClamped(last, months, targetDay)
		for !next.After(now) {
			next = addMonthsClamped(next, months, targetDay)
		}
		return next
	}

	if intervalDays < 1 {
		intervalDays = 1
	}

	next := last.AddDate(0, 0, intervalDays)
	for !next.After(now) {
		next = next.AddDate(0, 0, intervalDays)
	}
	return next
}

// addMonthsClamped advances by the given number of months, clamping the
// target day-of-month to the destination month's length (a Jan 31 charge
// lands on Feb 28, not Mar 3)
func addMonthsClamped(date time.Time, months, targetDay int) time.Time {
	year, month, _ := date.Date()
	firstOfTarget := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, date.Location())

	day := targetDay
	if lastDay := daysInMonth(firstOfTarget); day > lastDay {
		day = lastDay
	}

	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, 0, 0, 0, 0, date.Location())
}

// daysInMonth returns the number of days in the month of the given date
func daysInMonth(date time.Time) int {
	return time.Date(date.Year(), date.Month()+1, 0, 0, 0, 0, 0, date.Location()).Day()
}

// mostCommonCategory returns the category appearing most often among the
// cluster's transactions, preferring the earliest seen on ties
func mostCommonCategory(members []*normalizedTransaction) string {
	counts := make(map[string]int)
	var order []string

	for _, ntx := range members {
		category := ntx.tx.Category
		if category == "" {
			continue
		}
		if counts[category] == 0 {
			order = append(order, category)
		}
		counts[category]++
	}

	best := ""
	bestCount := 0
	for _, category := range order {
		if counts[category] > bestCount {
			best = category
			bestCount = counts[category]
		}
	}

	return best
}
