package export

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// ReportTitle heads the first page of the PDF export.
const ReportTitle = "CHS Acquittals Report"

// WritePDF renders a summary page with the per-table and grand totals, then one
// itemized page per non-empty table with a line per record.
func WritePDF(w io.Writer, d Dataset) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(ReportTitle, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 12, ReportTitle, "", 1, "C", false, 0, "")
	pdf.Ln(6)

	totals := d.Totals()
	pdf.SetFont("Helvetica", "BU", 14)
	pdf.Cell(0, 8, "Summary")
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 12)
	for _, line := range []struct {
		label string
		total decimal.Decimal
	}{
		{"Goods and Services Total", totals.Goods},
		{"Salaries Form 1 Total", totals.Form1},
		{"Salary Entry Form 2 Total", totals.Form2},
		{"Grand Total", totals.Grand()},
	} {
		pdf.Cell(0, 7, fmt.Sprintf("%s: $%s", line.label, line.total.StringFixed(2)))
		pdf.Ln(7)
	}

	if len(d.Goods) > 0 {
		lines := make([]string, 0, len(d.Goods))
		for i, r := range d.Goods {
			lines = append(lines, fmt.Sprintf("%d. %s - %s - $%s", i+1, r.FacilityName, r.ItemDescription, r.TotalCost.StringFixed(2)))
		}
		detailPage(pdf, tr, "Goods and Services Details", lines)
	}
	if len(d.Form1) > 0 {
		lines := make([]string, 0, len(d.Form1))
		for i, r := range d.Form1 {
			lines = append(lines, fmt.Sprintf("%d. %s - %s - $%s", i+1, r.FacilityName, r.EmployeeName, r.SalaryAmount.StringFixed(2)))
		}
		detailPage(pdf, tr, "Salaries Form 1 Details", lines)
	}
	if len(d.Form2) > 0 {
		lines := make([]string, 0, len(d.Form2))
		for i, r := range d.Form2 {
			lines = append(lines, fmt.Sprintf("%d. %s - %s - $%s", i+1, r.FacilityName, r.EmployeeName, r.NetSalary.StringFixed(2)))
		}
		detailPage(pdf, tr, "Salary Entry Form 2 Details", lines)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

// detailPage starts a new page; long tables flow onto further pages automatically.
func detailPage(pdf *fpdf.Fpdf, tr func(string) string, title string, lines []string) {
	pdf.AddPage()
	pdf.SetFont("Helvetica", "BU", 16)
	pdf.Cell(0, 10, title)
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 10)
	for _, l := range lines {
		pdf.MultiCell(0, 5, tr(l), "", "L", false)
	}
}
