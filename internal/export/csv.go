// Package export serializes a transaction snapshot to its file forms.
// Exporters take the snapshot as-is; ordering is the caller's listing
// order.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"fintrack/internal/core"
)

// CSVFilename is the download name for CSV exports.
const CSVFilename = "transactions.csv"

var csvHeader = []string{"Date", "Category", "Amount", "Type"}

// WriteCSV writes the snapshot as UTF-8 comma-delimited rows with a
// header line. Field quoting is delegated to encoding/csv.
func WriteCSV(w io.Writer, snapshot []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, tx := range snapshot {
		record := []string{
			tx.Date.String(),
			tx.Category,
			tx.Amount.Decimal(),
			string(tx.Kind),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
