package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/iwvelando/finance-montecarlo/pkg/cashflow"
	"github.com/shopspring/decimal"
)

// csvFixedColumns precede one balance column per asset.
var csvFixedColumns = []string{"Month", "Date", "Income", "Expenses", "Shortfall"}

// money renders an amount with exactly two decimals.
func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// CsvFormat writes the ledger as CSV: one row per month with the gross
// shortfall and every asset's post-interest balance. The Shortfall column is
// LedgerEntry.Need (JSON grossShortfall), not the unmet residual; the pretty
// ledger shows both.
func CsvFormat(w io.Writer, result *cashflow.Result) error {
	cw := csv.NewWriter(w)
	header := append(append([]string(nil), csvFixedColumns...), result.AssetOrder...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for m, entry := range result.Ledger {
		row := []string{
			strconv.Itoa(entry.Month),
			entry.Date,
			money(entry.Income),
			money(entry.Expenses),
			money(entry.Need),
		}
		for _, asset := range result.AssetOrder {
			row = append(row, money(result.BalanceHistory[asset][m]))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row for month %d: %w", entry.Month, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// CsvString returns the CSV rendering of result.
func CsvString(result *cashflow.Result) string {
	var b strings.Builder
	if err := CsvFormat(&b, result); err != nil {
		return ""
	}
	return b.String()
}

// CSVRow is one parsed ledger row.
type CSVRow struct {
	Month     int
	Date      string
	Income    float64
	Expenses  float64
	Shortfall float64
	Balances  []float64
}

// Total sums the row's asset balances.
func (r CSVRow) Total() float64 {
	total := decimal.Zero
	for _, b := range r.Balances {
		total = total.Add(decimal.NewFromFloat(b))
	}
	return total.InexactFloat64()
}

// ParsedCSV is a ledger read back from CsvFormat output.
type ParsedCSV struct {
	Assets []string
	Rows   []CSVRow
}

// ParseCSV reads CSV produced by CsvFormat.
func ParseCSV(r io.Reader) (*ParsedCSV, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("CSV is empty")
	}
	header := records[0]
	if len(header) < len(csvFixedColumns) {
		return nil, fmt.Errorf("CSV header has %d columns, expected at least %d", len(header), len(csvFixedColumns))
	}
	for i, name := range csvFixedColumns {
		if strings.TrimSpace(header[i]) != name {
			return nil, fmt.Errorf("CSV column %d is %q, expected %q", i+1, header[i], name)
		}
	}

	parsed := &ParsedCSV{Assets: append([]string(nil), header[len(csvFixedColumns):]...)}
	for line, record := range records[1:] {
		if len(record) != len(header) {
			return nil, fmt.Errorf("CSV row %d has %d columns, expected %d", line+2, len(record), len(header))
		}
		row := CSVRow{Date: record[1]}
		if row.Month, err = strconv.Atoi(strings.TrimSpace(record[0])); err != nil {
			return nil, fmt.Errorf("CSV row %d: invalid month %q: %w", line+2, record[0], err)
		}
		amounts := make([]float64, len(record)-2)
		for i, field := range record[2:] {
			d, err := decimal.NewFromString(strings.TrimSpace(field))
			if err != nil {
				return nil, fmt.Errorf("CSV row %d column %q: %w", line+2, header[i+2], err)
			}
			amounts[i] = d.InexactFloat64()
		}
		row.Income, row.Expenses, row.Shortfall = amounts[0], amounts[1], amounts[2]
		row.Balances = amounts[3:]
		parsed.Rows = append(parsed.Rows, row)
	}
	return parsed, nil
}
