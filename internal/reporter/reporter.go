// Package reporter renders detected recurring patterns in multiple output
// formats.
//
// Supported output formats:
//   - Console: human-readable output for terminal display
//   - JSON: structured data for programmatic consumption
//   - CSV: flat rows for spreadsheet applications
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang-recurring-detection-service/internal/models"

	"github.com/shopspring/decimal"
)

// OutputFormat represents the supported report output formats
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// IncludeOccurrences lists every matched transaction under each
	// pattern (console and JSON formats)
	IncludeOccurrences bool `json:"include_occurrences"`

	// IncludeSummary appends aggregate statistics
	IncludeSummary bool `json:"include_summary"`

	// CSV options
	CSVDelimiter rune `json:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:             FormatConsole,
		IncludeOccurrences: false,
		IncludeSummary:     true,
		CSVDelimiter:       ',',
		CSVHeaders:         true,
	}
}

// Validate checks if the report configuration is valid
func (rc *ReportConfig) Validate() error {
	if !rc.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", rc.Format)
	}
	if rc.CSVDelimiter == 0 {
		return fmt.Errorf("CSV delimiter cannot be empty")
	}
	return nil
}

// Summary provides aggregate statistics over the detected patterns
type Summary struct {
	TransactionsAnalyzed  int                      `json:"transactions_analyzed"`
	PatternsDetected      int                      `json:"patterns_detected"`
	PatternsByFrequency   map[models.Frequency]int `json:"patterns_by_frequency"`
	AverageConfidence     float64                  `json:"average_confidence"`
	EstimatedMonthlyTotal decimal.Decimal          `json:"estimated_monthly_total"`
}

// Report is a complete detection report ready for rendering
type Report struct {
	GeneratedAt time.Time                  `json:"generated_at"`
	Patterns    []*models.RecurringPattern `json:"patterns"`
	Summary     *Summary                   `json:"summary,omitempty"`
}

// PatternReporter generates reports from detection results
type PatternReporter struct {
	config *ReportConfig
}

// NewPatternReporter creates a new reporter with the given configuration
func NewPatternReporter(config *ReportConfig) (*PatternReporter, error) {
	if config == nil {
		config = DefaultReportConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}

	return &PatternReporter{config: config}, nil
}

// BuildReport assembles a report from detected patterns
func (pr *PatternReporter) BuildReport(patterns []*models.RecurringPattern, transactionsAnalyzed int, now time.Time) *Report {
	report := &Report{
		GeneratedAt: now,
		Patterns:    patterns,
	}

	if pr.config.IncludeSummary {
		report.Summary = buildSummary(patterns, transactionsAnalyzed)
	}

	return report
}

// WriteReport renders the report to the writer in the configured format
func (pr *PatternReporter) WriteReport(w io.Writer, report *Report) error {
	switch pr.config.Format {
	case FormatJSON:
		return pr.writeJSON(w, report)
	case FormatCSV:
		return pr.writeCSV(w, report)
	default:
		return pr.writeConsole(w, report)
	}
}

func buildSummary(patterns []*models.RecurringPattern, transactionsAnalyzed int) *Summary {
	summary := &Summary{
		TransactionsAnalyzed:  transactionsAnalyzed,
		PatternsDetected:      len(patterns),
		PatternsByFrequency:   make(map[models.Frequency]int),
		EstimatedMonthlyTotal: decimal.Zero,
	}

	var confidenceSum float64
	for _, pattern := range patterns {
		summary.PatternsByFrequency[pattern.Frequency]++
		confidenceSum += pattern.Confidence
		summary.EstimatedMonthlyTotal = summary.EstimatedMonthlyTotal.Add(monthlyEquivalent(pattern))
	}

	if len(patterns) > 0 {
		summary.AverageConfidence = confidenceSum / float64(len(patterns))
	}
	summary.EstimatedMonthlyTotal = summary.EstimatedMonthlyTotal.Round(2)

	return summary
}

// monthlyEquivalent normalizes a pattern's charge to a per-month figure
// using the average month length of 30.44 days
func monthlyEquivalent(pattern *models.RecurringPattern) decimal.Decimal {
	switch pattern.Frequency {
	case models.FrequencyMonthly:
		return pattern.Amount
	case models.FrequencyQuarterly:
		return pattern.Amount.Div(decimal.NewFromInt(3))
	case models.FrequencyYearly:
		return pattern.Amount.Div(decimal.NewFromInt(12))
	default:
		if pattern.IntervalDays < 1 {
			return pattern.Amount
		}
		perDay := pattern.Amount.Div(decimal.NewFromInt(int64(pattern.IntervalDays)))
		return perDay.Mul(decimal.NewFromFloat(30.44))
	}
}

func (pr *PatternReporter) writeConsole(w io.Writer, report *Report) error {
	var b strings.Builder

	b.WriteString("RECURRING TRANSACTION REPORT\n")
	b.WriteString(strings.Repeat("=", 60) + "\n")
	b.WriteString(fmt.Sprintf("Generated: %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05")))

	if len(report.Patterns) == 0 {
		b.WriteString("No recurring patterns detected.\n")
	}

	for i, pattern := range report.Patterns {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, pattern.Counterparty))
		b.WriteString(fmt.Sprintf("   Frequency:  %s (every %d days)\n", pattern.Frequency, pattern.IntervalDays))
		b.WriteString(fmt.Sprintf("   Amount:     %s %s (MAD %s)\n",
			pattern.Amount.StringFixed(2), pattern.Currency, pattern.AmountMAD.StringFixed(2)))
		b.WriteString(fmt.Sprintf("   Confidence: %.0f%%  Coverage: %.0f%%  Occurrences: %d\n",
			pattern.Confidence*100, pattern.Coverage*100, pattern.TransactionCount))
		b.WriteString(fmt.Sprintf("   Last seen:  %s  Next expected: %s\n",
			pattern.LastSeenDate.Format("2006-01-02"), pattern.NextExpectedDate.Format("2006-01-02")))
		if pattern.Category != "" {
			b.WriteString(fmt.Sprintf("   Category:   %s\n", pattern.Category))
		}

		if pr.config.IncludeOccurrences {
			for _, occurrence := range pattern.Occurrences {
				b.WriteString(fmt.Sprintf("     - %s  %s  (%s)\n",
					occurrence.Date.Format("2006-01-02"), occurrence.Amount.StringFixed(2), occurrence.ID))
			}
		}
		b.WriteString("\n")
	}

	if report.Summary != nil {
		b.WriteString(strings.Repeat("-", 60) + "\n")
		b.WriteString("SUMMARY\n")
		b.WriteString(fmt.Sprintf("  Transactions analyzed:   %d\n", report.Summary.TransactionsAnalyzed))
		b.WriteString(fmt.Sprintf("  Patterns detected:       %d\n", report.Summary.PatternsDetected))
		b.WriteString(fmt.Sprintf("  Average confidence:      %.0f%%\n", report.Summary.AverageConfidence*100))
		b.WriteString(fmt.Sprintf("  Estimated monthly total: %s\n", report.Summary.EstimatedMonthlyTotal.StringFixed(2)))
		for frequency, count := range report.Summary.PatternsByFrequency {
			b.WriteString(fmt.Sprintf("    %-10s %d\n", frequency+":", count))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (pr *PatternReporter) writeJSON(w io.Writer, report *Report) error {
	out := *report
	if !pr.config.IncludeOccurrences {
		stripped := make([]*models.RecurringPattern, len(report.Patterns))
		for i, pattern := range report.Patterns {
			clone := *pattern
			clone.Occurrences = nil
			stripped[i] = &clone
		}
		out.Patterns = stripped
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(&out)
}

func (pr *PatternReporter) writeCSV(w io.Writer, report *Report) error {
	writer := csv.NewWriter(w)
	writer.Comma = pr.config.CSVDelimiter

	if pr.config.CSVHeaders {
		header := []string{
			"id", "counterparty", "frequency", "interval_days", "amount",
			"amount_mad", "currency", "confidence", "coverage",
			"transaction_count", "last_seen", "next_expected", "category",
		}
		if err := writer.Write(header); err != nil {
			return err
		}
	}

	for _, pattern := range report.Patterns {
		row := []string{
			pattern.ID,
			pattern.Counterparty,
			pattern.Frequency.String(),
			strconv.Itoa(pattern.IntervalDays),
			pattern.Amount.StringFixed(2),
			pattern.AmountMAD.StringFixed(2),
			pattern.Currency,
			strconv.FormatFloat(pattern.Confidence, 'f', 2, 64),
			strconv.FormatFloat(pattern.Coverage, 'f', 2, 64),
			strconv.Itoa(pattern.TransactionCount),
			pattern.LastSeenDate.Format("2006-01-02"),
			pattern.NextExpectedDate.Format("2006-01-02"),
			pattern.Category,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
