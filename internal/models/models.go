package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Frequency represents the recurrence cadence class of a detected pattern
type Frequency string

const (
	// FrequencyDaily represents a pattern recurring every day
	FrequencyDaily Frequency = "daily"
	// FrequencyWeekly represents a pattern recurring every 7 days
	FrequencyWeekly Frequency = "weekly"
	// FrequencyBiWeekly represents a pattern recurring every 14 days
	FrequencyBiWeekly Frequency = "bi_weekly"
	// FrequencyMonthly represents a pattern recurring once per calendar month
	FrequencyMonthly Frequency = "monthly"
	// FrequencyQuarterly represents a pattern recurring every three months
	FrequencyQuarterly Frequency = "quarterly"
	// FrequencyYearly represents a pattern recurring once per year
	FrequencyYearly Frequency = "yearly"
	// FrequencyCustom represents a stable cadence that matches no standard template
	FrequencyCustom Frequency = "custom"
)

// String returns the string representation of Frequency
func (f Frequency) String() string {
	return string(f)
}

// IsValid checks if the frequency is a recognized cadence class
func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiWeekly, FrequencyMonthly,
		FrequencyQuarterly, FrequencyYearly, FrequencyCustom:
		return true
	default:
		return false
	}
}

// IsCalendarBased reports whether the frequency advances by calendar units
// rather than by a fixed number of days
func (f Frequency) IsCalendarBased() bool {
	return f == FrequencyMonthly || f == FrequencyQuarterly || f == FrequencyYearly
}

// Transaction represents a single bank transaction record supplied by the caller
type Transaction struct {
	ID             string          `json:"id" csv:"id"`
	Counterparty   string          `json:"counterparty,omitempty" csv:"counterparty"`
	Description    string          `json:"description,omitempty" csv:"description"`
	Amount         decimal.Decimal `json:"amount" csv:"amount"`
	Currency       string          `json:"currency" csv:"currency"`
	Date           time.Time       `json:"date" csv:"date"`
	Category       string          `json:"category,omitempty" csv:"category"`
	IsNotRecurring bool            `json:"isNotRecurring,omitempty" csv:"is_not_recurring"`
}

// NewTransaction creates a new Transaction instance
func NewTransaction(id string, amount decimal.Decimal, currency string, date time.Time) *Transaction {
	return &Transaction{
		ID:       id,
		Amount:   amount,
		Currency: currency,
		Date:     date,
	}
}

// Validate performs basic validation on the Transaction
func (t *Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("transaction ID cannot be empty")
	}

	if t.Date.IsZero() {
		return fmt.Errorf("transaction date cannot be zero")
	}

	if strings.TrimSpace(t.Counterparty) == "" && strings.TrimSpace(t.Description) == "" {
		return fmt.Errorf("transaction must have a counterparty or a description")
	}

	return nil
}

// Payee returns the counterparty name, falling back to the description
// when the counterparty field is empty
func (t *Transaction) Payee() string {
	if strings.TrimSpace(t.Counterparty) != "" {
		return strings.TrimSpace(t.Counterparty)
	}
	return strings.TrimSpace(t.Description)
}

// IsExpense returns true if the transaction is an expense (negative amount)
func (t *Transaction) IsExpense() bool {
	return t.Amount.IsNegative()
}

// AbsAmount returns the absolute value of the transaction amount
func (t *Transaction) AbsAmount() decimal.Decimal {
	return t.Amount.Abs()
}

// String returns a string representation of the Transaction
func (t *Transaction) String() string {
	return fmt.Sprintf("Transaction{ID: %s, Payee: %s, Amount: %s %s, Date: %s}",
		t.ID, t.Payee(), t.Amount.String(), t.Currency, t.Date.Format("2006-01-02"))
}

// MarshalJSON implements custom JSON marshaling for Transaction
func (t *Transaction) MarshalJSON() ([]byte, error) {
	type Alias Transaction
	return json.Marshal(&struct {
		Amount string `json:"amount"`
		Date   string `json:"date"`
		*Alias
	}{
		Amount: t.Amount.String(),
		Date:   t.Date.Format("2006-01-02"),
		Alias:  (*Alias)(t),
	})
}

// UnmarshalJSON implements custom JSON unmarshaling for Transaction
func (t *Transaction) UnmarshalJSON(data []byte) error {
	type Alias Transaction
	aux := &struct {
		Amount string `json:"amount"`
		Date   string `json:"date"`
		*Alias
	}{
		Alias: (*Alias)(t),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	t.Amount, err = decimal.NewFromString(aux.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount format: %w", err)
	}

	t.Date, err = ParseDateWithFormats(aux.Date)
	if err != nil {
		return fmt.Errorf("invalid date format: %w", err)
	}

	return nil
}

// Occurrence represents one observed transaction belonging to a recurring pattern
type Occurrence struct {
	ID     string          `json:"id"`
	Date   time.Time       `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// MarshalJSON implements custom JSON marshaling for Occurrence
func (o *Occurrence) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		ID     string `json:"id"`
		Date   string `json:"date"`
		Amount string `json:"amount"`
	}{
		ID:     o.ID,
		Date:   o.Date.Format("2006-01-02"),
		Amount: o.Amount.String(),
	})
}

// RecurringPattern represents a detected recurring transaction pattern.
// Patterns are created fresh on every detection call and are never mutated
// or persisted by the detector.
type RecurringPattern struct {
	ID               string          `json:"id"`
	Description      string          `json:"description"`
	Counterparty     string          `json:"counterparty"`
	Amount           decimal.Decimal `json:"amount"`
	AmountStdDev     float64         `json:"amountStdDev"`
	AmountMAD        decimal.Decimal `json:"amountMAD"`
	Currency         string          `json:"currency"`
	Frequency        Frequency       `json:"frequency"`
	IntervalDays     int             `json:"intervalDays"`
	Confidence       float64         `json:"confidence"`
	Coverage         float64         `json:"coverage"`
	NextExpectedDate time.Time       `json:"nextExpectedDate"`
	LastSeenDate     time.Time       `json:"lastSeenDate"`
	TransactionCount int             `json:"transactionCount"`
	AverageAmount    decimal.Decimal `json:"averageAmount"`
	Occurrences      []*Occurrence   `json:"occurrences"`
	Category         string          `json:"category,omitempty"`
}

// String returns a string representation of the RecurringPattern
func (p *RecurringPattern) String() string {
	return fmt.Sprintf("RecurringPattern{Payee: %s, Frequency: %s, Amount: %s %s, Confidence: %.2f, Count: %d}",
		p.Counterparty, p.Frequency, p.Amount.String(), p.Currency, p.Confidence, p.TransactionCount)
}

// MarshalJSON implements custom JSON marshaling for RecurringPattern
func (p *RecurringPattern) MarshalJSON() ([]byte, error) {
	type Alias RecurringPattern
	return json.Marshal(&struct {
		Amount           string `json:"amount"`
		AmountMAD        string `json:"amountMAD"`
		AverageAmount    string `json:"averageAmount"`
		NextExpectedDate string `json:"nextExpectedDate"`
		LastSeenDate     string `json:"lastSeenDate"`
		*Alias
	}{
		Amount:           p.Amount.String(),
		AmountMAD:        p.AmountMAD.String(),
		AverageAmount:    p.AverageAmount.String(),
		NextExpectedDate: p.NextExpectedDate.Format("2006-01-02"),
		LastSeenDate:     p.LastSeenDate.Format("2006-01-02"),
		Alias:            (*Alias)(p),
	})
}

// Validate performs basic validation on the RecurringPattern
func (p *RecurringPattern) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("pattern ID cannot be empty")
	}

	if !p.Frequency.IsValid() {
		return fmt.Errorf("invalid frequency: %s", p.Frequency)
	}

	if p.Confidence < 0.0 || p.Confidence > 1.0 {
		return fmt.Errorf("confidence must be between 0.0 and 1.0: %f", p.Confidence)
	}

	if p.Coverage < 0.0 || p.Coverage > 1.0 {
		return fmt.Errorf("coverage must be between 0.0 and 1.0: %f", p.Coverage)
	}

	if p.TransactionCount < 2 {
		return fmt.Errorf("pattern must cover at least 2 transactions, got %d", p.TransactionCount)
	}

	return nil
}

// Utility functions for type conversion and validation

// ParseDecimalFromString parses a decimal value from string with validation
func ParseDecimalFromString(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	// Remove common currency symbols and thousand separators
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal format '%s': %w", s, err)
	}

	return d, nil
}

// ParseDateWithFormats attempts to parse a date from string using multiple common formats
func ParseDateWithFormats(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date string cannot be empty")
	}

	// Common date formats used in bank exports
	formats := []string{
		"2006-01-02",
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"01/02/2006",
		"02-01-2006",
		"2006/01/02",
		"Jan 2, 2006",
	}

	var lastErr error
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date '%s': %w", s, lastErr)
}

// ParseBoolFlag parses a permissive boolean flag value from CSV data
func ParseBoolFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y", "1":
		return true
	default:
		return false
	}
}

// CreateTransactionFromCSV creates a Transaction from CSV field values
func CreateTransactionFromCSV(id, counterparty, description, amountStr, currency, dateStr, category, notRecurringStr string) (*Transaction, error) {
	amount, err := ParseDecimalFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("invalid amount in CSV: %w", err)
	}

	date, err := ParseDateWithFormats(dateStr)
	if err != nil {
		return nil, fmt.Errorf("invalid date in CSV: %w", err)
	}

	transaction := &Transaction{
		ID:             strings.TrimSpace(id),
		Counterparty:   strings.TrimSpace(counterparty),
		Description:    strings.TrimSpace(description),
		Amount:         amount,
		Currency:       strings.TrimSpace(currency),
		Date:           date,
		Category:       strings.TrimSpace(category),
		IsNotRecurring: ParseBoolFlag(notRecurringStr),
	}

	if err := transaction.Validate(); err != nil {
		return nil, fmt.Errorf("invalid transaction data: %w", err)
	}

	return transaction, nil
}
