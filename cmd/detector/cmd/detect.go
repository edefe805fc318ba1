package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang-recurring-detection-service/cmd/detector/config"
	"golang-recurring-detection-service/internal/detector"
	"golang-recurring-detection-service/internal/models"
	"golang-recurring-detection-service/internal/parsers"
	"golang-recurring-detection-service/internal/reporter"
	"golang-recurring-detection-service/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the detect command
var (
	transactionsFile string
	outputFormat     string
	outputFile       string
	lookbackDays     int

	minOccurrences      int
	confidenceThreshold float64
	minCoverage         float64
	amountStability     float64
	excludeCategories   []string
	transferKeywords    []string
	includeNonExpenses  bool
	includeOccurrences  bool
)

// detectCmd represents the detect command
var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect recurring patterns in a transaction export",
	Long: `Detect reads a CSV transaction export, runs the recurring pattern
detection pipeline, and writes a report of detected subscriptions and
other periodic charges.

Examples:
  # Basic detection
  detector detect --transactions-file transactions.csv

  # JSON output to a file, stricter evidence gates
  detector detect --transactions-file tx.csv \
    --output-format json --output-file patterns.json \
    --min-occurrences 4 --confidence-threshold 0.75

  # Exclude grocery runs and internal transfers
  detector detect --transactions-file tx.csv \
    --exclude-categories Groceries --transfer-keywords "own account,savings"`,

	PreRunE: validateDetectFlags,
	RunE:    runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)

	// Required flags
	detectCmd.Flags().StringVarP(&transactionsFile, "transactions-file", "t", "", "path to transaction CSV file (required)")

	// Output flags
	detectCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv")
	detectCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")
	detectCmd.Flags().BoolVar(&includeOccurrences, "include-occurrences", false, "list matched transactions under each pattern")

	// Input filtering flags
	detectCmd.Flags().IntVar(&lookbackDays, "lookback-days", 365, "only analyze transactions within this many days of the newest one (0 = no limit)")

	// Detection tuning flags
	detectCmd.Flags().IntVar(&minOccurrences, "min-occurrences", 3, "minimum transactions required per pattern")
	detectCmd.Flags().Float64Var(&confidenceThreshold, "confidence-threshold", 0.6, "minimum confidence score for emitted patterns (0.0-1.0)")
	detectCmd.Flags().Float64Var(&minCoverage, "min-coverage", 0.6, "minimum observed/expected occurrence ratio (0.0-1.0)")
	detectCmd.Flags().Float64Var(&amountStability, "amount-stability", 0.05, "maximum MAD/median ratio for stable amounts (0.0-1.0)")
	detectCmd.Flags().StringSliceVar(&excludeCategories, "exclude-categories", nil, "comma-separated categories to skip")
	detectCmd.Flags().StringSliceVar(&transferKeywords, "transfer-keywords", nil, "comma-separated payee substrings marking internal transfers")
	detectCmd.Flags().BoolVar(&includeNonExpenses, "include-non-expenses", false, "also consider income and zero-amount transactions")

	detectCmd.MarkFlagRequired("transactions-file")

	// Bind flags to viper
	viper.BindPFlag("transactions-file", detectCmd.Flags().Lookup("transactions-file"))
	viper.BindPFlag("output-format", detectCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", detectCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("include-occurrences", detectCmd.Flags().Lookup("include-occurrences"))
	viper.BindPFlag("lookback-days", detectCmd.Flags().Lookup("lookback-days"))
	viper.BindPFlag("min-occurrences", detectCmd.Flags().Lookup("min-occurrences"))
	viper.BindPFlag("confidence-threshold", detectCmd.Flags().Lookup("confidence-threshold"))
	viper.BindPFlag("min-coverage", detectCmd.Flags().Lookup("min-coverage"))
	viper.BindPFlag("amount-stability", detectCmd.Flags().Lookup("amount-stability"))
	viper.BindPFlag("exclude-categories", detectCmd.Flags().Lookup("exclude-categories"))
	viper.BindPFlag("transfer-keywords", detectCmd.Flags().Lookup("transfer-keywords"))
	viper.BindPFlag("include-non-expenses", detectCmd.Flags().Lookup("include-non-expenses"))
}

func validateDetectFlags(cmd *cobra.Command, args []string) error {
	// Get values from viper (allows override from config file)
	transactionsFile = viper.GetString("transactions-file")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	includeOccurrences = viper.GetBool("include-occurrences")
	lookbackDays = viper.GetInt("lookback-days")
	minOccurrences = viper.GetInt("min-occurrences")
	confidenceThreshold = viper.GetFloat64("confidence-threshold")
	minCoverage = viper.GetFloat64("min-coverage")
	amountStability = viper.GetFloat64("amount-stability")
	excludeCategories = viper.GetStringSlice("exclude-categories")
	transferKeywords = viper.GetStringSlice("transfer-keywords")
	includeNonExpenses = viper.GetBool("include-non-expenses")

	if transactionsFile == "" {
		return fmt.Errorf("transactions-file is required")
	}

	if err := validateFileExists(transactionsFile, "transaction file"); err != nil {
		return err
	}

	if !reporter.OutputFormat(outputFormat).IsValid() {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json, csv", outputFormat)
	}

	if lookbackDays < 0 {
		return fmt.Errorf("lookback days cannot be negative")
	}

	detectionConfig := config.CreateDetectionConfig(
		minOccurrences, confidenceThreshold, minCoverage, amountStability,
		excludeCategories, transferKeywords, includeNonExpenses,
	)
	if err := detectionConfig.Validate(); err != nil {
		return err
	}

	if outputFile != "" {
		dir := filepath.Dir(outputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	return nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	return nil
}

func runDetect(cmd *cobra.Command, args []string) error {
	errorHandler := NewCLIErrorHandler()
	log := logger.GetGlobalLogger().WithComponent("detect_command")

	parserConfig := config.CreateTransactionParserConfig()
	parser, err := parsers.NewTransactionParser(parserConfig)
	if err != nil {
		return err
	}

	transactions, stats, err := parser.ParseFile(transactionsFile)
	if err != nil {
		os.Exit(errorHandler.HandleError(err))
	}

	if stats.HasErrors() {
		fmt.Fprintf(os.Stderr, "Warning: skipped %d unusable rows\n", len(stats.RowErrors))
		if verbose {
			for _, rowErr := range stats.RowErrors {
				fmt.Fprintf(os.Stderr, "  %s\n", rowErr.Error())
			}
		}
	}

	now := time.Now()
	transactions = applyLookback(transactions, lookbackDays)

	detectionConfig := config.CreateDetectionConfig(
		minOccurrences, confidenceThreshold, minCoverage, amountStability,
		excludeCategories, transferKeywords, includeNonExpenses,
	)

	patterns := detectPatterns(detector.NewEngine(detectionConfig), transactions, now, log)

	reportConfig := config.CreateReportConfig(outputFormat, includeOccurrences)
	patternReporter, err := reporter.NewPatternReporter(reportConfig)
	if err != nil {
		return err
	}

	report := patternReporter.BuildReport(patterns, len(transactions), now)

	var out io.Writer = os.Stdout
	if outputFile != "" {
		file, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()
		out = file
	}

	if err := patternReporter.WriteReport(out, report); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if outputFile != "" && verbose {
		fmt.Fprintf(os.Stderr, "Report written to %s\n", outputFile)
	}

	return nil
}

// detectPatterns runs the engine, converting an unexpected panic into an
// empty result. A detection failure for one input must never surface as a
// user-facing crash.
func detectPatterns(engine *detector.Engine, transactions []*models.Transaction, now time.Time, log logger.Logger) (patterns []*models.RecurringPattern) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("Detection failed, returning no patterns")
			patterns = []*models.RecurringPattern{}
		}
	}()

	return engine.DetectAt(transactions, now)
}

// applyLookback drops transactions older than the window, measured from
// the newest transaction in the export
func applyLookback(transactions []*models.Transaction, days int) []*models.Transaction {
	if days <= 0 || len(transactions) == 0 {
		return transactions
	}

	newest := transactions[0].Date
	for _, tx := range transactions[1:] {
		if tx.Date.After(newest) {
			newest = tx.Date
		}
	}

	cutoff := newest.AddDate(0, 0, -days)
	var filtered []*models.Transaction
	for _, tx := range transactions {
		if !tx.Date.Before(cutoff) {
			filtered = append(filtered, tx)
		}
	}

	return filtered
}
