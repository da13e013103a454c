package ingest

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"acquittals/models"
	"acquittals/pkg/database/databasetest"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// workbook builds an in-memory xlsx with rows written to the first sheet.
func workbook(t *testing.T, rows ...[]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		row := r
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf
}

var goodsHeader = []any{"Facility Name", "Reporting Period", "Item Description", "Quantity", "Unit Cost", "Total Cost", "Supplier", "Date Purchased", "Notes"}

func TestIngestGoodsWorkbook(t *testing.T) {
	db := databasetest.Open(t)
	buf := workbook(t,
		goodsHeader,
		[]any{"Clinic A", "2024-Q1", "Gloves", 10, 2.5, 25, "MedCo", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), "box"},
		[]any{"Clinic B", "2024-Q1", "Masks", "4", "$1,000.00", "$4,000.00", "", "2024-02-01", ""},
		[]any{"", "", "", "", "", "", "", "", ""},
		[]any{"Clinic A", "2024-Q1", "Syringes", 3, "x", "not a number", "MedCo", "someday", ""},
	)
	res, err := Ingest(context.Background(), db, Batch{Form: GoodsServices, FileName: "goods.xlsx"}, buf)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.Records != 3 || res.UploadID == 0 {
		t.Fatalf("unexpected result %+v", res)
	}

	var recs []models.GoodsServicesRecord
	db.Order("id").Find(&recs)
	if len(recs) != 3 {
		t.Fatalf("expected 3 stored rows got %d", len(recs))
	}
	if recs[0].Quantity != 10 || !recs[0].TotalCost.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("unexpected first record %+v", recs[0])
	}
	if recs[0].DatePurchased == nil || recs[0].DatePurchased.Format("2006-01-02") != "2024-01-15" {
		t.Fatalf("expected purchase date 2024-01-15 got %v", recs[0].DatePurchased)
	}
	if !recs[1].UnitCost.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("expected unit cost 1000 got %s", recs[1].UnitCost)
	}
	if !recs[2].TotalCost.IsZero() || !recs[2].UnitCost.IsZero() {
		t.Fatalf("non-numeric cost should be stored as 0, got %s/%s", recs[2].UnitCost, recs[2].TotalCost)
	}
	if recs[2].DatePurchased != nil {
		t.Fatalf("unparseable date should be null, got %v", recs[2].DatePurchased)
	}
	if recs[0].FileName != "goods.xlsx" || recs[0].UploadID == nil || *recs[0].UploadID != res.UploadID {
		t.Fatalf("record not linked to upload: %+v", recs[0])
	}

	var up models.Upload
	db.First(&up, res.UploadID)
	if up.RecordsProcessed != 3 || up.FormType != string(GoodsServices) || up.Source != models.SourceUpload {
		t.Fatalf("unexpected upload row %+v", up)
	}
}

func TestIngestHeaderOnlySheet(t *testing.T) {
	db := databasetest.Open(t)
	res, err := Ingest(context.Background(), db, Batch{Form: SalariesForm1, FileName: "empty.xlsx"}, workbook(t, []any{"Facility Name", "Employee Name"}))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.Records != 0 {
		t.Fatalf("expected 0 records got %d", res.Records)
	}
	var n int64
	db.Model(&models.SalariesForm1Record{}).Count(&n)
	if n != 0 {
		t.Fatalf("expected empty table got %d", n)
	}
}

func TestIngestMissingColumnsDefault(t *testing.T) {
	db := databasetest.Open(t)
	buf := workbook(t,
		[]any{"Employee Name", "Net Salary", "Unrelated"},
		[]any{"Jane", "1200.50", "ignored"},
	)
	res, err := Ingest(context.Background(), db, Batch{Form: SalaryEntryForm2, FileName: "f2.xlsx"}, buf)
	if err != nil || res.Records != 1 {
		t.Fatalf("ingest: %+v %v", res, err)
	}
	var rec models.SalaryEntryForm2Record
	db.First(&rec)
	if rec.EmployeeName != "Jane" || rec.FacilityName != "" || !rec.BasicSalary.IsZero() || rec.PaymentDate != nil {
		t.Fatalf("unexpected defaults %+v", rec)
	}
	if !rec.NetSalary.Equal(decimal.RequireFromString("1200.5")) {
		t.Fatalf("expected net salary 1200.5 got %s", rec.NetSalary)
	}
}

func TestIngestCSV(t *testing.T) {
	db := databasetest.Open(t)
	csv := "\ufeffFacility Name,Employee Name,Position,Salary Amount,Payment Date,Payment Method\n" +
		"Clinic A,John,Nurse,\"1,500.00\",2024-03-01,Bank\n" +
		",,,,,\n" +
		"Clinic B,Mary,Doctor,3000,,Cash\n"
	res, err := Ingest(context.Background(), db, Batch{Form: SalariesForm1, FileName: "salaries.csv"}, strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.Records != 2 {
		t.Fatalf("expected 2 records got %d", res.Records)
	}
	var recs []models.SalariesForm1Record
	db.Order("id").Find(&recs)
	if recs[0].FacilityName != "Clinic A" || !recs[0].SalaryAmount.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("unexpected record %+v", recs[0])
	}
}

func TestIngestRejectsUnsupportedFile(t *testing.T) {
	db := databasetest.Open(t)
	_, err := Ingest(context.Background(), db, Batch{Form: GoodsServices, FileName: "data.xls"}, strings.NewReader("x"))
	if !errors.Is(err, ErrUnsupportedFile) {
		t.Fatalf("expected ErrUnsupportedFile got %v", err)
	}
	_, err = Ingest(context.Background(), db, Batch{Form: "other", FileName: "data.xlsx"}, strings.NewReader("x"))
	if !errors.Is(err, ErrUnknownForm) {
		t.Fatalf("expected ErrUnknownForm got %v", err)
	}
}

func TestIngestManual(t *testing.T) {
	db := databasetest.Open(t)
	ctx := context.Background()

	_, err := IngestManual(ctx, db, SalaryEntryForm2, map[string]any{
		"facility_name": "Clinic A",
		"employee_name": "Jane",
	}, nil)
	var mf *MissingFieldsError
	if !errors.As(err, &mf) || !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected MissingFieldsError got %v", err)
	}
	if strings.Join(mf.Fields, ",") != "employee_id,position,basic_salary,net_salary" {
		t.Fatalf("unexpected missing fields %v", mf.Fields)
	}

	owner := models.User{Email: "clerk@example.com", Name: "Clerk", HashedPassword: []byte("x")}
	if err := db.Create(&owner).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	res, err := IngestManual(ctx, db, GoodsServices, map[string]any{
		"facility_name":    "Clinic A",
		"reporting_period": "2024-Q2",
		"item_description": "Bandages",
		"quantity":         float64(5),
		"unit_cost":        "2.00",
		"total_cost":       float64(10),
		"date_purchased":   "2024-04-02",
	}, &owner.ID)
	if err != nil || res.Records != 1 {
		t.Fatalf("manual entry: %+v %v", res, err)
	}
	var rec models.GoodsServicesRecord
	db.First(&rec)
	if rec.FileName != models.ManualEntryFileName || rec.Quantity != 5 || !rec.TotalCost.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("unexpected manual record %+v", rec)
	}
	var up models.Upload
	db.First(&up, res.UploadID)
	if up.Source != models.SourceManual || up.UserID == nil || *up.UserID != owner.ID {
		t.Fatalf("unexpected upload %+v", up)
	}
}
