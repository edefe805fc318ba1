// Package parsers handles ingestion of transaction CSV exports. Column
// names are resolved through a configurable alias table so exports from
// different providers parse without manual renaming. Rows that fail to
// parse or validate are collected as row errors and skipped; a bad row
// never aborts the whole file.
package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"golang-recurring-detection-service/internal/models"
	"golang-recurring-detection-service/pkg/errors"
	"golang-recurring-detection-service/pkg/logger"
)

// TransactionParserConfig configures CSV parsing of transaction exports
type TransactionParserConfig struct {
	IDColumn           string `json:"id_column"`
	CounterpartyColumn string `json:"counterparty_column"`
	DescriptionColumn  string `json:"description_column"`
	AmountColumn       string `json:"amount_column"`
	CurrencyColumn     string `json:"currency_column"`
	DateColumn         string `json:"date_column"`
	CategoryColumn     string `json:"category_column"`
	NotRecurringColumn string `json:"not_recurring_column"`

	HasHeader bool `json:"has_header"`
	Delimiter rune `json:"delimiter"`

	// ColumnAliases maps alternative header names onto canonical columns
	ColumnAliases map[string]string `json:"column_aliases"`
}

// DefaultTransactionParserConfig returns a configuration matching common
// bank export layouts
func DefaultTransactionParserConfig() *TransactionParserConfig {
	return &TransactionParserConfig{
		IDColumn:           "id",
		CounterpartyColumn: "counterparty",
		DescriptionColumn:  "description",
		AmountColumn:       "amount",
		CurrencyColumn:     "currency",
		DateColumn:         "date",
		CategoryColumn:     "category",
		NotRecurringColumn: "is_not_recurring",
		HasHeader:          true,
		Delimiter:          ',',
		ColumnAliases: map[string]string{
			"transaction_id": "id",
			"trx_id":         "id",
			"tx_id":          "id",
			"payee":          "counterparty",
			"merchant":       "counterparty",
			"creditor_name":  "counterparty",
			"remittance":     "description",
			"memo":           "description",
			"text":           "description",
			"amt":            "amount",
			"value":          "amount",
			"ccy":            "currency",
			"booking_date":   "date",
			"value_date":     "date",
			"transaction_date": "date",
			"category_name":  "category",
			"excluded":       "is_not_recurring",
			"dismissed":      "is_not_recurring",
		},
	}
}

// Validate checks if the parser configuration is valid
func (c *TransactionParserConfig) Validate() error {
	if strings.TrimSpace(c.IDColumn) == "" {
		return fmt.Errorf("ID column name cannot be empty")
	}
	if strings.TrimSpace(c.AmountColumn) == "" {
		return fmt.Errorf("amount column name cannot be empty")
	}
	if strings.TrimSpace(c.DateColumn) == "" {
		return fmt.Errorf("date column name cannot be empty")
	}
	if c.Delimiter == 0 {
		return fmt.Errorf("delimiter cannot be empty")
	}
	return nil
}

// RowError records a single bad row that was skipped
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (re *RowError) Error() string {
	return fmt.Sprintf("line %d: %s", re.Line, re.Message)
}

// ParseStats summarizes one parsing run
type ParseStats struct {
	RecordsParsed int         `json:"records_parsed"`
	RecordsValid  int         `json:"records_valid"`
	RowErrors     []*RowError `json:"row_errors,omitempty"`
}

// AddError records a skipped row
func (ps *ParseStats) AddError(err *RowError) {
	ps.RowErrors = append(ps.RowErrors, err)
}

// HasErrors reports whether any rows were skipped
func (ps *ParseStats) HasErrors() bool {
	return len(ps.RowErrors) > 0
}

// TransactionParser parses transaction CSV files
type TransactionParser struct {
	config *TransactionParserConfig
	logger logger.Logger
}

// NewTransactionParser creates a new TransactionParser with the given
// configuration
func NewTransactionParser(config *TransactionParserConfig) (*TransactionParser, error) {
	if config == nil {
		config = DefaultTransactionParserConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"transaction_parser_config",
			config,
			err,
		)
	}

	return &TransactionParser{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("transaction_parser"),
	}, nil
}

// ParseFile parses a CSV file containing transactions
func (tp *TransactionParser) ParseFile(filePath string) ([]*models.Transaction, *ParseStats, error) {
	tp.logger.WithField("file_path", filePath).Info("Parsing transaction file")

	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errors.FileError(errors.CodeFileNotFound, filePath, err)
		}
		if os.IsPermission(err) {
			return nil, nil, errors.FileError(errors.CodeFilePermission, filePath, err)
		}
		return nil, nil, errors.FileError(errors.CodeDirectoryError, filePath, err)
	}
	defer file.Close()

	transactions, stats, err := tp.Parse(file, filePath)
	if err != nil {
		return nil, stats, err
	}

	tp.logger.WithFields(logger.Fields{
		"file_path":      filePath,
		"records_parsed": stats.RecordsParsed,
		"records_valid":  stats.RecordsValid,
		"rows_skipped":   len(stats.RowErrors),
	}).Info("Transaction file parsed")

	return transactions, stats, nil
}

// Parse parses transactions from a reader. The name is used for error
// reporting only.
func (tp *TransactionParser) Parse(r io.Reader, name string) ([]*models.Transaction, *ParseStats, error) {
	reader := csv.NewReader(r)
	reader.Comma = tp.config.Delimiter
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	stats := &ParseStats{}
	line := 0

	columns, err := tp.resolveColumns(reader, name, &line)
	if err != nil {
		return nil, stats, err
	}

	var transactions []*models.Transaction
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			stats.AddError(&RowError{
				Line:    line,
				Message: fmt.Sprintf("malformed CSV record: %v", err),
				Err:     err,
			})
			continue
		}

		if isEmptyRecord(record) {
			continue
		}
		stats.RecordsParsed++

		transaction, rowErr := tp.parseRecord(record, columns, line)
		if rowErr != nil {
			tp.logger.WithField("line", rowErr.Line).Warn(rowErr.Message)
			stats.AddError(rowErr)
			continue
		}

		stats.RecordsValid++
		transactions = append(transactions, transaction)
	}

	return transactions, stats, nil
}

// columnIndexes maps canonical column names to record positions; -1 marks
// an absent optional column
type columnIndexes struct {
	id           int
	counterparty int
	description  int
	amount       int
	currency     int
	date         int
	category     int
	notRecurring int
}

// resolveColumns reads the header row and maps canonical columns to field
// positions through the alias table. Without a header, the default column
// order is assumed.
func (tp *TransactionParser) resolveColumns(reader *csv.Reader, name string, line *int) (*columnIndexes, error) {
	columns := &columnIndexes{
		id: -1, counterparty: -1, description: -1, amount: -1,
		currency: -1, date: -1, category: -1, notRecurring: -1,
	}

	if !tp.config.HasHeader {
		columns.id = 0
		columns.counterparty = 1
		columns.description = 2
		columns.amount = 3
		columns.currency = 4
		columns.date = 5
		columns.category = 6
		columns.notRecurring = 7
		return columns, nil
	}

	header, err := reader.Read()
	if err != nil {
		return nil, errors.ParseError(errors.CodeInvalidFormat, name, 1, "headers", "", err)
	}
	*line = 1

	for i, raw := range header {
		canonical := tp.canonicalColumn(raw)
		switch canonical {
		case tp.config.IDColumn:
			columns.id = i
		case tp.config.CounterpartyColumn:
			columns.counterparty = i
		case tp.config.DescriptionColumn:
			columns.description = i
		case tp.config.AmountColumn:
			columns.amount = i
		case tp.config.CurrencyColumn:
			columns.currency = i
		case tp.config.DateColumn:
			columns.date = i
		case tp.config.CategoryColumn:
			columns.category = i
		case tp.config.NotRecurringColumn:
			columns.notRecurring = i
		}
	}

	for _, required := range []struct {
		index  int
		column string
	}{
		{columns.id, tp.config.IDColumn},
		{columns.amount, tp.config.AmountColumn},
		{columns.date, tp.config.DateColumn},
	} {
		if required.index < 0 {
			return nil, errors.ParseError(errors.CodeMissingColumn, name, 1, required.column, "", nil)
		}
	}

	return columns, nil
}

// canonicalColumn normalizes a raw header name and resolves aliases
func (tp *TransactionParser) canonicalColumn(raw string) string {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, " ", "_")

	if canonical, ok := tp.config.ColumnAliases[normalized]; ok {
		return canonical
	}
	return normalized
}

// parseRecord builds a Transaction from one CSV record
func (tp *TransactionParser) parseRecord(record []string, columns *columnIndexes, line int) (*models.Transaction, *RowError) {
	field := func(index int) string {
		if index < 0 || index >= len(record) {
			return ""
		}
		return record[index]
	}

	transaction, err := models.CreateTransactionFromCSV(
		field(columns.id),
		field(columns.counterparty),
		field(columns.description),
		field(columns.amount),
		field(columns.currency),
		field(columns.date),
		field(columns.category),
		field(columns.notRecurring),
	)
	if err != nil {
		return nil, &RowError{
			Line:    line,
			Message: err.Error(),
			Err:     err,
		}
	}

	return transaction, nil
}

func isEmptyRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
