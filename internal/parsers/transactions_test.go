package parsers

import (
	"strings"
	"testing"

	"golang-recurring-detection-service/pkg/errors"

	"github.com/shopspring/decimal"
)

func newTestParser(t *testing.T, config *TransactionParserConfig) *TransactionParser {
	t.Helper()
	parser, err := NewTransactionParser(config)
	if err != nil {
		t.Fatalf("NewTransactionParser failed: %v", err)
	}
	return parser
}

func TestTransactionParser_Parse(t *testing.T) {
	csvData := `id,counterparty,description,amount,currency,date,category,is_not_recurring
TX001,NETFLIX.COM,,-13.99,EUR,2026-01-05,Entertainment,false
TX002,Spotify AB,Music subscription,-9.99,EUR,2026-01-12,,false
TX003,ALDI,,-82.45,EUR,2026-01-14,Groceries,true
`

	parser := newTestParser(t, nil)
	transactions, stats, err := parser.Parse(strings.NewReader(csvData), "test.csv")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(transactions) != 3 {
		t.Fatalf("Expected 3 transactions, got %d", len(transactions))
	}
	if stats.RecordsParsed != 3 || stats.RecordsValid != 3 {
		t.Errorf("Expected 3 parsed and valid, got %d/%d", stats.RecordsParsed, stats.RecordsValid)
	}
	if stats.HasErrors() {
		t.Errorf("Expected no row errors, got %d", len(stats.RowErrors))
	}

	first := transactions[0]
	if first.ID != "TX001" {
		t.Errorf("Expected ID TX001, got %s", first.ID)
	}
	if !first.Amount.Equal(decimal.NewFromFloat(-13.99)) {
		t.Errorf("Expected amount -13.99, got %s", first.Amount)
	}
	if first.Date.Format("2006-01-02") != "2026-01-05" {
		t.Errorf("Expected date 2026-01-05, got %s", first.Date)
	}
	if !transactions[2].IsNotRecurring {
		t.Error("Expected TX003 marked not recurring")
	}
}

func TestTransactionParser_ColumnAliases(t *testing.T) {
	csvData := `trx_id,merchant,value,booking_date
TX001,NETFLIX.COM,-13.99,2026-01-05
`

	parser := newTestParser(t, nil)
	transactions, _, err := parser.Parse(strings.NewReader(csvData), "aliased.csv")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(transactions) != 1 {
		t.Fatalf("Expected 1 transaction, got %d", len(transactions))
	}
	if transactions[0].Counterparty != "NETFLIX.COM" {
		t.Errorf("Expected merchant mapped to counterparty, got %q", transactions[0].Counterparty)
	}
	if !transactions[0].Amount.Equal(decimal.NewFromFloat(-13.99)) {
		t.Errorf("Expected value mapped to amount, got %s", transactions[0].Amount)
	}
}

func TestTransactionParser_HeaderCaseAndSpaces(t *testing.T) {
	csvData := `ID,Counterparty,Amount,Booking Date
TX001,NETFLIX.COM,-13.99,2026-01-05
`

	parser := newTestParser(t, nil)
	transactions, _, err := parser.Parse(strings.NewReader(csvData), "mixed.csv")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(transactions) != 1 {
		t.Errorf("Expected 1 transaction, got %d", len(transactions))
	}
}

func TestTransactionParser_MissingRequiredColumn(t *testing.T) {
	csvData := `id,counterparty,amount
TX001,NETFLIX.COM,-13.99
`

	parser := newTestParser(t, nil)
	_, _, err := parser.Parse(strings.NewReader(csvData), "incomplete.csv")
	if err == nil {
		t.Fatal("Expected error for missing date column")
	}

	detectorErr, ok := errors.AsDetectorError(err)
	if !ok {
		t.Fatalf("Expected DetectorError, got %T", err)
	}
	if detectorErr.Code != errors.CodeMissingColumn {
		t.Errorf("Expected code %s, got %s", errors.CodeMissingColumn, detectorErr.Code)
	}
}

func TestTransactionParser_BadRowsCollected(t *testing.T) {
	csvData := `id,counterparty,amount,currency,date
TX001,NETFLIX.COM,-13.99,EUR,2026-01-05
TX002,Spotify AB,not-a-number,EUR,2026-01-12
TX003,ACME Insurance,-54.20,EUR,not-a-date
TX004,FitLife Gym,-29.00,EUR,2026-01-16
`

	parser := newTestParser(t, nil)
	transactions, stats, err := parser.Parse(strings.NewReader(csvData), "dirty.csv")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(transactions) != 2 {
		t.Errorf("Expected 2 valid transactions, got %d", len(transactions))
	}
	if len(stats.RowErrors) != 2 {
		t.Fatalf("Expected 2 row errors, got %d", len(stats.RowErrors))
	}
	if stats.RowErrors[0].Line != 3 {
		t.Errorf("Expected first row error on line 3, got %d", stats.RowErrors[0].Line)
	}
	if stats.RecordsParsed != 4 || stats.RecordsValid != 2 {
		t.Errorf("Expected 4 parsed and 2 valid, got %d/%d", stats.RecordsParsed, stats.RecordsValid)
	}
}

func TestTransactionParser_EmptyRowsSkipped(t *testing.T) {
	csvData := `id,counterparty,amount,currency,date
TX001,NETFLIX.COM,-13.99,EUR,2026-01-05

,,,,
TX002,Spotify AB,-9.99,EUR,2026-01-12
`

	parser := newTestParser(t, nil)
	transactions, stats, err := parser.Parse(strings.NewReader(csvData), "gaps.csv")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(transactions) != 2 {
		t.Errorf("Expected 2 transactions, got %d", len(transactions))
	}
	if stats.HasErrors() {
		t.Errorf("Expected blank rows skipped silently, got %d errors", len(stats.RowErrors))
	}
}

func TestTransactionParser_NoHeader(t *testing.T) {
	csvData := `TX001,NETFLIX.COM,,-13.99,EUR,2026-01-05,Entertainment,false
TX002,Spotify AB,,-9.99,EUR,2026-01-12,,false
`

	config := DefaultTransactionParserConfig()
	config.HasHeader = false

	parser := newTestParser(t, config)
	transactions, _, err := parser.Parse(strings.NewReader(csvData), "raw.csv")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(transactions) != 2 {
		t.Errorf("Expected 2 transactions, got %d", len(transactions))
	}
	if transactions[0].Category != "Entertainment" {
		t.Errorf("Expected positional category, got %q", transactions[0].Category)
	}
}

func TestTransactionParser_SemicolonDelimiter(t *testing.T) {
	csvData := `id;counterparty;amount;currency;date
TX001;NETFLIX.COM;-13.99;EUR;2026-01-05
`

	config := DefaultTransactionParserConfig()
	config.Delimiter = ';'

	parser := newTestParser(t, config)
	transactions, _, err := parser.Parse(strings.NewReader(csvData), "semicolon.csv")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(transactions) != 1 {
		t.Errorf("Expected 1 transaction, got %d", len(transactions))
	}
}

func TestTransactionParser_ParseFileNotFound(t *testing.T) {
	parser := newTestParser(t, nil)

	_, _, err := parser.ParseFile("/nonexistent/transactions.csv")
	if err == nil {
		t.Fatal("Expected error for missing file")
	}

	detectorErr, ok := errors.AsDetectorError(err)
	if !ok {
		t.Fatalf("Expected DetectorError, got %T", err)
	}
	if detectorErr.Code != errors.CodeFileNotFound {
		t.Errorf("Expected code %s, got %s", errors.CodeFileNotFound, detectorErr.Code)
	}
}

func TestTransactionParserConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*TransactionParserConfig)
		wantError bool
	}{
		{"Default valid", func(c *TransactionParserConfig) {}, false},
		{"Empty ID column", func(c *TransactionParserConfig) { c.IDColumn = "" }, true},
		{"Empty amount column", func(c *TransactionParserConfig) { c.AmountColumn = " " }, true},
		{"Empty date column", func(c *TransactionParserConfig) { c.DateColumn = "" }, true},
		{"Zero delimiter", func(c *TransactionParserConfig) { c.Delimiter = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultTransactionParserConfig()
			tt.mutate(config)
			err := config.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}
