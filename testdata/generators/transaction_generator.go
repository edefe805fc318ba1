// Command transaction_generator produces deterministic transaction CSV
// fixtures containing recurring patterns mixed with one-off noise, for
// tests and manual detector runs.
//
// Usage:
//
//	go run ./testdata/generators -output testdata/sample_transactions.csv \
//	  -months 12 -noise 40 -seed 42
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/shopspring/decimal"
)

// RecurringSpec describes one recurring charge to synthesize
type RecurringSpec struct {
	Payee        string
	Amount       decimal.Decimal
	Currency     string
	Category     string
	IntervalDays int  // 0 means monthly on DayOfMonth
	DayOfMonth   int  // used when IntervalDays == 0
	Jitter       int  // max +/- days of schedule drift
}

var recurringSpecs = []RecurringSpec{
	{Payee: "NETFLIX.COM", Amount: decimal.NewFromFloat(13.99), Currency: "EUR", Category: "Entertainment", DayOfMonth: 5},
	{Payee: "Spotify AB", Amount: decimal.NewFromFloat(9.99), Currency: "EUR", Category: "Entertainment", DayOfMonth: 12, Jitter: 1},
	{Payee: "ACME Insurance Co", Amount: decimal.NewFromFloat(54.20), Currency: "EUR", Category: "Insurance", DayOfMonth: 1},
	{Payee: "FitLife Gym", Amount: decimal.NewFromFloat(29.00), Currency: "EUR", Category: "Health", IntervalDays: 7, Jitter: 1},
	{Payee: "CloudHost BV", Amount: decimal.NewFromFloat(4.50), Currency: "EUR", Category: "Software", DayOfMonth: 28},
}

var noisePayees = []string{
	"AH to go 5734 AMS",
	"Shell Station 0291",
	"Coffee Corner",
	"AMZN MKTP NL 2S59X",
	"Bakkerij Jansen",
	"TST * FOOD TRUCK",
}

func main() {
	var (
		output = flag.String("output", "testdata/sample_transactions.csv", "Output CSV file path")
		months = flag.Int("months", 12, "Number of months of history to generate")
		noise  = flag.Int("noise", 40, "Number of one-off noise transactions")
		seed   = flag.Int64("seed", 42, "Random seed for reproducible generation")
	)
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))
	end := time.Now().UTC().Truncate(24 * time.Hour)
	start := end.AddDate(0, -*months, 0)

	type row struct {
		id     string
		payee  string
		amount decimal.Decimal
		ccy    string
		date   time.Time
		cat    string
	}

	var rows []row
	next := 1
	newID := func() string {
		id := fmt.Sprintf("TX%05d", next)
		next++
		return id
	}

	for _, spec := range recurringSpecs {
		date := firstOccurrence(start, spec)
		for !date.After(end) {
			charged := date
			if spec.Jitter > 0 {
				charged = charged.AddDate(0, 0, rng.Intn(2*spec.Jitter+1)-spec.Jitter)
			}
			rows = append(rows, row{newID(), spec.Payee, spec.Amount.Neg(), spec.Currency, charged, spec.Category})
			date = advance(date, spec)
		}
	}

	span := int(end.Sub(start).Hours() / 24)
	for i := 0; i < *noise; i++ {
		amount := decimal.NewFromFloat(float64(rng.Intn(9000)+100) / 100).Neg()
		date := start.AddDate(0, 0, rng.Intn(span))
		payee := noisePayees[rng.Intn(len(noisePayees))]
		rows = append(rows, row{newID(), payee, amount, "EUR", date, ""})
	}

	file, err := os.Create(*output)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	writer.Write([]string{"id", "counterparty", "description", "amount", "currency", "date", "category", "is_not_recurring"})
	for _, r := range rows {
		writer.Write([]string{
			r.id, r.payee, "", r.amount.StringFixed(2), r.ccy,
			r.date.Format("2006-01-02"), r.cat, "false",
		})
	}

	fmt.Printf("Generated %d transactions (%d recurring specs, %d noise) in %s\n",
		len(rows), len(recurringSpecs), *noise, *output)
}

func firstOccurrence(start time.Time, spec RecurringSpec) time.Time {
	if spec.IntervalDays > 0 {
		return start
	}

	date := time.Date(start.Year(), start.Month(), spec.DayOfMonth, 0, 0, 0, 0, time.UTC)
	if date.Before(start) {
		date = date.AddDate(0, 1, 0)
	}
	return date
}

func advance(date time.Time, spec RecurringSpec) time.Time {
	if spec.IntervalDays > 0 {
		return date.AddDate(0, 0, spec.IntervalDays)
	}
	return date.AddDate(0, 1, 0)
}
