package ingest

import (
	"context"
	"fmt"
	"io"
	"time"

	"acquittals/models"

	"gorm.io/gorm"
)

// batchSize keeps multi-row INSERTs under the SQL Server parameter limit.
const batchSize = 100

// Batch describes where a set of rows came from.
type Batch struct {
	Form      FormType
	Source    string // models.SourceUpload, SourceManual or SourceInbox
	FileName  string
	StorePath string
	UserID    *uint
}

// Result reports the stored batch.
type Result struct {
	UploadID uint
	Records  int
}

// Ingest reads a spreadsheet and stores every data row as a record of b.Form.
// An empty sheet stores nothing and succeeds with zero records.
func Ingest(ctx context.Context, db *gorm.DB, b Batch, r io.Reader) (Result, error) {
	if _, err := ParseFormType(string(b.Form)); err != nil {
		return Result{}, err
	}
	rows, err := ReadFile(b.Form, r, b.FileName)
	if err != nil {
		return Result{}, err
	}
	return Store(ctx, db, b, rows)
}

// IngestManual validates a hand-entered record and stores it with the
// source file name "Manual Entry".
func IngestManual(ctx context.Context, db *gorm.DB, form FormType, fields map[string]any, userID *uint) (Result, error) {
	if _, err := ParseFormType(string(form)); err != nil {
		return Result{}, err
	}
	row := Row{}
	for k, v := range fields {
		row[k] = stringify(v)
	}
	var missing []string
	for _, key := range form.Required() {
		if row[key] == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return Result{}, &MissingFieldsError{Fields: missing}
	}
	return Store(ctx, db, Batch{
		Form:     form,
		Source:   models.SourceManual,
		FileName: models.ManualEntryFileName,
		UserID:   userID,
	}, []Row{row})
}

// Store writes the upload row and all records in a single transaction, so a
// failed batch leaves no partial data behind.
func Store(ctx context.Context, db *gorm.DB, b Batch, rows []Row) (Result, error) {
	if b.Source == "" {
		b.Source = models.SourceUpload
	}
	now := time.Now().UTC()
	var res Result
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		up := models.Upload{
			FormType:         string(b.Form),
			Source:           b.Source,
			FileName:         b.FileName,
			StorePath:        b.StorePath,
			RecordsProcessed: len(rows),
			UserID:           b.UserID,
		}
		if err := tx.Create(&up).Error; err != nil {
			return fmt.Errorf("create upload: %w", err)
		}
		res.UploadID = up.ID
		if len(rows) == 0 {
			return nil
		}
		uid := &up.ID
		var err error
		switch b.Form {
		case GoodsServices:
			recs := make([]models.GoodsServicesRecord, 0, len(rows))
			for _, r := range rows {
				recs = append(recs, goodsRecord(r, b.FileName, uid, now))
			}
			err = tx.CreateInBatches(&recs, batchSize).Error
		case SalariesForm1:
			recs := make([]models.SalariesForm1Record, 0, len(rows))
			for _, r := range rows {
				recs = append(recs, form1Record(r, b.FileName, uid, now))
			}
			err = tx.CreateInBatches(&recs, batchSize).Error
		case SalaryEntryForm2:
			recs := make([]models.SalaryEntryForm2Record, 0, len(rows))
			for _, r := range rows {
				recs = append(recs, form2Record(r, b.FileName, uid, now))
			}
			err = tx.CreateInBatches(&recs, batchSize).Error
		default:
			err = ErrUnknownForm
		}
		if err != nil {
			return fmt.Errorf("insert %s: %w", b.Form.Table(), err)
		}
		res.Records = len(rows)
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

func goodsRecord(r Row, fileName string, uploadID *uint, now time.Time) models.GoodsServicesRecord {
	return models.GoodsServicesRecord{
		FacilityName:    r["facility_name"],
		ReportingPeriod: r["reporting_period"],
		ItemDescription: r["item_description"],
		Quantity:        Integer(r["quantity"]),
		UnitCost:        Decimal(r["unit_cost"]),
		TotalCost:       Decimal(r["total_cost"]),
		Supplier:        r["supplier"],
		DatePurchased:   Date(r["date_purchased"]),
		Notes:           r["notes"],
		FileName:        fileName,
		UploadID:        uploadID,
		UploadedAt:      now,
	}
}

func form1Record(r Row, fileName string, uploadID *uint, now time.Time) models.SalariesForm1Record {
	return models.SalariesForm1Record{
		FacilityName:  r["facility_name"],
		EmployeeName:  r["employee_name"],
		Position:      r["position"],
		SalaryAmount:  Decimal(r["salary_amount"]),
		PaymentDate:   Date(r["payment_date"]),
		PaymentMethod: r["payment_method"],
		Notes:         r["notes"],
		FileName:      fileName,
		UploadID:      uploadID,
		UploadedAt:    now,
	}
}

func form2Record(r Row, fileName string, uploadID *uint, now time.Time) models.SalaryEntryForm2Record {
	return models.SalaryEntryForm2Record{
		FacilityName:  r["facility_name"],
		EmployeeID:    r["employee_id"],
		EmployeeName:  r["employee_name"],
		Position:      r["position"],
		BasicSalary:   Decimal(r["basic_salary"]),
		Allowances:    Decimal(r["allowances"]),
		Deductions:    Decimal(r["deductions"]),
		NetSalary:     Decimal(r["net_salary"]),
		PaymentDate:   Date(r["payment_date"]),
		PaymentStatus: r["payment_status"],
		FileName:      fileName,
		UploadID:      uploadID,
		UploadedAt:    now,
	}
}
