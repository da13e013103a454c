package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

// Sheet names of the exported workbook, in order.
const (
	SheetGoods = "Goods and Services"
	SheetForm1 = "Salaries Form 1"
	SheetForm2 = "Salary Entry Form 2"
)

// Headers match the ingestion layouts so an exported sheet can be uploaded again.
var (
	goodsHeaders = []any{"ID", "Facility Name", "Reporting Period", "Item Description", "Quantity", "Unit Cost", "Total Cost", "Supplier", "Date Purchased", "Notes", "File Name", "Uploaded At"}
	form1Headers = []any{"ID", "Facility Name", "Employee Name", "Position", "Salary Amount", "Payment Date", "Payment Method", "Notes", "File Name", "Uploaded At"}
	form2Headers = []any{"ID", "Facility Name", "Employee ID", "Employee Name", "Position", "Basic Salary", "Allowances", "Deductions", "Net Salary", "Payment Date", "Payment Status", "File Name", "Uploaded At"}
)

// WriteSpreadsheet writes an xlsx workbook with one sheet per record table:
// a header row then one row per record. Empty tables still get their header row.
func WriteSpreadsheet(w io.Writer, d Dataset) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetGoods); err != nil {
		return err
	}
	for _, name := range []string{SheetForm1, SheetForm2} {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}

	goods := make([][]any, 0, len(d.Goods))
	for _, r := range d.Goods {
		goods = append(goods, []any{r.ID, r.FacilityName, r.ReportingPeriod, r.ItemDescription, r.Quantity,
			r.UnitCost.InexactFloat64(), r.TotalCost.InexactFloat64(), r.Supplier, dateCell(r.DatePurchased), r.Notes, r.FileName, r.UploadedAt.UTC()})
	}
	form1 := make([][]any, 0, len(d.Form1))
	for _, r := range d.Form1 {
		form1 = append(form1, []any{r.ID, r.FacilityName, r.EmployeeName, r.Position, r.SalaryAmount.InexactFloat64(),
			dateCell(r.PaymentDate), r.PaymentMethod, r.Notes, r.FileName, r.UploadedAt.UTC()})
	}
	form2 := make([][]any, 0, len(d.Form2))
	for _, r := range d.Form2 {
		form2 = append(form2, []any{r.ID, r.FacilityName, r.EmployeeID, r.EmployeeName, r.Position,
			r.BasicSalary.InexactFloat64(), r.Allowances.InexactFloat64(), r.Deductions.InexactFloat64(), r.NetSalary.InexactFloat64(),
			dateCell(r.PaymentDate), r.PaymentStatus, r.FileName, r.UploadedAt.UTC()})
	}

	if err := writeSheet(f, SheetGoods, goodsHeaders, goods); err != nil {
		return err
	}
	if err := writeSheet(f, SheetForm1, form1Headers, form1); err != nil {
		return err
	}
	if err := writeSheet(f, SheetForm2, form2Headers, form2); err != nil {
		return err
	}
	f.SetActiveSheet(0)
	return f.Write(w)
}

func writeSheet(f *excelize.File, sheet string, header []any, rows [][]any) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

// dateCell renders optional dates as YYYY-MM-DD text, blank when null.
func dateCell(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}
