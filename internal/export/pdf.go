package export

import (
	"fmt"
	"io"

	"github.com/phpdave11/gofpdf"

	"fintrack/internal/core"
)

// PDFFilename is the download name for PDF exports.
const PDFFilename = "transactions.pdf"

// PDFTitle is the report heading.
const PDFTitle = "Transaction Report"

// CurrencySymbol prefixes every amount in the PDF body.
const CurrencySymbol = "₹"

// BodyLine renders one transaction as the report's text line. The exact
// shape is part of the export contract:
//
//	Date: 2024-01-05, Category: Groceries, Amount: ₹50.00, Type: Expense
func BodyLine(tx core.Transaction) string {
	return fmt.Sprintf("Date: %s, Category: %s, Amount: %s%s, Type: %s",
		tx.Date.String(), tx.Category, CurrencySymbol, tx.Amount.Decimal(), tx.Kind)
}

// WritePDF writes the snapshot as a single-column text report: a title
// line followed by one BodyLine per transaction. Pagination and fonts
// are gofpdf's concern.
func WritePDF(w io.Writer, snapshot []core.Transaction) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(14, 14, 14)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, PDFTitle)
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	for _, tx := range snapshot {
		pdf.Cell(0, 8, tr(BodyLine(tx)))
		pdf.Ln(8)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("build pdf: %w", err)
	}
	return nil
}
