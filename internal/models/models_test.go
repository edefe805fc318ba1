package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFrequency_IsValid(t *testing.T) {
	tests := []struct {
		frequency Frequency
		valid     bool
	}{
		{FrequencyDaily, true},
		{FrequencyWeekly, true},
		{FrequencyBiWeekly, true},
		{FrequencyMonthly, true},
		{FrequencyQuarterly, true},
		{FrequencyYearly, true},
		{FrequencyCustom, true},
		{"fortnightly", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.frequency), func(t *testing.T) {
			if got := tt.frequency.IsValid(); got != tt.valid {
				t.Errorf("Frequency.IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestFrequency_IsCalendarBased(t *testing.T) {
	tests := []struct {
		frequency Frequency
		calendar  bool
	}{
		{FrequencyMonthly, true},
		{FrequencyQuarterly, true},
		{FrequencyYearly, true},
		{FrequencyDaily, false},
		{FrequencyWeekly, false},
		{FrequencyBiWeekly, false},
		{FrequencyCustom, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.frequency), func(t *testing.T) {
			if got := tt.frequency.IsCalendarBased(); got != tt.calendar {
				t.Errorf("Frequency.IsCalendarBased() = %v, want %v", got, tt.calendar)
			}
		})
	}
}

func TestTransaction_Validate(t *testing.T) {
	validDate := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		transaction Transaction
		wantError   bool
	}{
		{
			name: "Valid transaction with counterparty",
			transaction: Transaction{
				ID:           "TX001",
				Counterparty: "NETFLIX.COM",
				Amount:       decimal.NewFromFloat(-13.99),
				Date:         validDate,
			},
			wantError: false,
		},
		{
			name: "Valid transaction with description only",
			transaction: Transaction{
				ID:          "TX002",
				Description: "Monthly subscription",
				Amount:      decimal.NewFromFloat(-13.99),
				Date:        validDate,
			},
			wantError: false,
		},
		{
			name: "Missing ID",
			transaction: Transaction{
				Counterparty: "NETFLIX.COM",
				Amount:       decimal.NewFromFloat(-13.99),
				Date:         validDate,
			},
			wantError: true,
		},
		{
			name: "Zero date",
			transaction: Transaction{
				ID:           "TX003",
				Counterparty: "NETFLIX.COM",
				Amount:       decimal.NewFromFloat(-13.99),
			},
			wantError: true,
		},
		{
			name: "No counterparty and no description",
			transaction: Transaction{
				ID:     "TX004",
				Amount: decimal.NewFromFloat(-13.99),
				Date:   validDate,
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.transaction.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Transaction.Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestTransaction_Payee(t *testing.T) {
	tests := []struct {
		name        string
		transaction Transaction
		expected    string
	}{
		{
			name:        "Counterparty preferred",
			transaction: Transaction{Counterparty: "Spotify AB", Description: "Music subscription"},
			expected:    "Spotify AB",
		},
		{
			name:        "Description fallback",
			transaction: Transaction{Description: "Music subscription"},
			expected:    "Music subscription",
		},
		{
			name:        "Whitespace counterparty falls back",
			transaction: Transaction{Counterparty: "   ", Description: "Music subscription"},
			expected:    "Music subscription",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.transaction.Payee(); got != tt.expected {
				t.Errorf("Transaction.Payee() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestTransaction_IsExpense(t *testing.T) {
	tests := []struct {
		name    string
		amount  decimal.Decimal
		expense bool
	}{
		{"Negative amount", decimal.NewFromFloat(-13.99), true},
		{"Positive amount", decimal.NewFromFloat(2500.00), false},
		{"Zero amount", decimal.Zero, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := Transaction{Amount: tt.amount}
			if got := tx.IsExpense(); got != tt.expense {
				t.Errorf("Transaction.IsExpense() = %v, want %v", got, tt.expense)
			}
		})
	}
}

func TestTransaction_JSONRoundTrip(t *testing.T) {
	original := &Transaction{
		ID:           "TX001",
		Counterparty: "NETFLIX.COM",
		Amount:       decimal.NewFromFloat(-13.99),
		Currency:     "EUR",
		Date:         time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		Category:     "Entertainment",
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	if !strings.Contains(string(data), `"amount":"-13.99"`) {
		t.Errorf("Expected amount serialized as string, got %s", string(data))
	}
	if !strings.Contains(string(data), `"date":"2026-03-15"`) {
		t.Errorf("Expected date serialized as 2026-03-15, got %s", string(data))
	}

	var decoded Transaction
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if decoded.ID != original.ID {
		t.Errorf("Expected ID %s, got %s", original.ID, decoded.ID)
	}
	if !decoded.Amount.Equal(original.Amount) {
		t.Errorf("Expected amount %s, got %s", original.Amount, decoded.Amount)
	}
	if !decoded.Date.Equal(original.Date) {
		t.Errorf("Expected date %s, got %s", original.Date, decoded.Date)
	}
}

func TestRecurringPattern_Validate(t *testing.T) {
	valid := func() RecurringPattern {
		return RecurringPattern{
			ID:               "TX001-monthly",
			Frequency:        FrequencyMonthly,
			Confidence:       0.85,
			Coverage:         1.0,
			TransactionCount: 6,
		}
	}

	tests := []struct {
		name      string
		mutate    func(*RecurringPattern)
		wantError bool
	}{
		{"Valid pattern", func(p *RecurringPattern) {}, false},
		{"Missing ID", func(p *RecurringPattern) { p.ID = "" }, true},
		{"Invalid frequency", func(p *RecurringPattern) { p.Frequency = "sometimes" }, true},
		{"Confidence above one", func(p *RecurringPattern) { p.Confidence = 1.2 }, true},
		{"Negative coverage", func(p *RecurringPattern) { p.Coverage = -0.1 }, true},
		{"Single transaction", func(p *RecurringPattern) { p.TransactionCount = 1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pattern := valid()
			tt.mutate(&pattern)
			err := pattern.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("RecurringPattern.Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestParseDecimalFromString(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expected  string
		wantError bool
	}{
		{"Plain decimal", "-13.99", "-13.99", false},
		{"Dollar symbol", "$1,234.56", "1234.56", false},
		{"Euro symbol", "€9.99", "9.99", false},
		{"Whitespace", "  42.00  ", "42", false},
		{"Empty string", "", "", true},
		{"Garbage", "abc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecimalFromString(tt.input)
			if (err != nil) != tt.wantError {
				t.Fatalf("ParseDecimalFromString(%q) error = %v, wantError %v", tt.input, err, tt.wantError)
			}
			if !tt.wantError && got.String() != tt.expected {
				t.Errorf("ParseDecimalFromString(%q) = %s, want %s", tt.input, got.String(), tt.expected)
			}
		})
	}
}

func TestParseDateWithFormats(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expected  time.Time
		wantError bool
	}{
		{"ISO date", "2026-03-15", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), false},
		{"Slash format", "2026/03/15", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), false},
		{"US format", "03/15/2026", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), false},
		{"Datetime", "2026-03-15 10:30:00", time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC), false},
		{"Empty", "", time.Time{}, true},
		{"Unparseable", "the ides of march", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDateWithFormats(tt.input)
			if (err != nil) != tt.wantError {
				t.Fatalf("ParseDateWithFormats(%q) error = %v, wantError %v", tt.input, err, tt.wantError)
			}
			if !tt.wantError && !got.Equal(tt.expected) {
				t.Errorf("ParseDateWithFormats(%q) = %s, want %s", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseBoolFlag(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"true", true},
		{"TRUE", true},
		{"Yes", true},
		{"y", true},
		{"1", true},
		{"false", false},
		{"0", false},
		{"", false},
		{"maybe", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseBoolFlag(tt.input); got != tt.expected {
				t.Errorf("ParseBoolFlag(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCreateTransactionFromCSV(t *testing.T) {
	tests := []struct {
		name      string
		id        string
		payee     string
		amount    string
		date      string
		wantError bool
	}{
		{"Valid record", "TX001", "NETFLIX.COM", "-13.99", "2026-03-15", false},
		{"Invalid amount", "TX002", "NETFLIX.COM", "thirteen", "2026-03-15", true},
		{"Invalid date", "TX003", "NETFLIX.COM", "-13.99", "someday", true},
		{"Empty ID", "", "NETFLIX.COM", "-13.99", "2026-03-15", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := CreateTransactionFromCSV(tt.id, tt.payee, "", tt.amount, "EUR", tt.date, "", "false")
			if (err != nil) != tt.wantError {
				t.Fatalf("CreateTransactionFromCSV() error = %v, wantError %v", err, tt.wantError)
			}
			if !tt.wantError && tx.ID != tt.id {
				t.Errorf("Expected ID %s, got %s", tt.id, tx.ID)
			}
		})
	}

	t.Run("Dismiss flag parsed", func(t *testing.T) {
		tx, err := CreateTransactionFromCSV("TX005", "ALDI", "", "-54.12", "EUR", "2026-03-15", "Groceries", "yes")
		if err != nil {
			t.Fatalf("CreateTransactionFromCSV() error = %v", err)
		}
		if !tx.IsNotRecurring {
			t.Error("Expected IsNotRecurring to be true")
		}
	})
}
