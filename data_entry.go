package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"acquittals/models"
	"acquittals/pkg/ingest"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// uploadHandler stores the multipart "file" under UPLOAD_BASE/<form>/ with a
// generated name and ingests every data row as one batch.
func uploadHandler(form ingest.FormType) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := currentUser(c)
		ctx := c.Request.Context()
		file, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
			return
		}
		sys, err := loadSystemSettings(ctx)
		if err != nil {
			serverError(c, "Failed to process file", err)
			return
		}
		limit := sys.MaxFileSize
		if cfg.MaxUploadBytes > 0 && cfg.MaxUploadBytes < limit {
			limit = cfg.MaxUploadBytes
		}
		if file.Size > limit {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("File too large (max %d bytes)", limit)})
			return
		}
		ext := strings.ToLower(filepath.Ext(file.Filename))
		if !ingest.SupportedExt(file.Filename) || !allowedExt(sys.AllowedFileTypes, ext) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Only Excel (.xlsx) and CSV files are allowed"})
			return
		}

		dir := filepath.Join(uploadBaseDir(), string(form))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			serverError(c, "Failed to process file", err)
			return
		}
		storePath := filepath.Join(dir, uuid.NewString()+ext)
		if err := c.SaveUploadedFile(file, storePath); err != nil {
			serverError(c, "Failed to process file", err)
			return
		}

		f, err := os.Open(storePath)
		if err != nil {
			discardUpload(storePath)
			serverError(c, "Failed to process file", err)
			return
		}
		rows, err := ingest.ReadFile(form, f, file.Filename)
		f.Close()
		if err != nil {
			discardUpload(storePath)
			slog.Warn("unreadable upload", "file", file.Filename, "form", form, "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read spreadsheet", "details": err.Error()})
			return
		}
		res, err := ingest.Store(ctx, db, ingest.Batch{
			Form:      form,
			Source:    models.SourceUpload,
			FileName:  file.Filename,
			StorePath: storePath,
			UserID:    &u.ID,
		}, rows)
		if err != nil {
			discardUpload(storePath)
			serverError(c, "Failed to process file", err)
			return
		}
		recordsIngested.WithLabelValues(string(form), models.SourceUpload).Add(float64(res.Records))
		slog.Info("file processed", "form", form, "file", file.Filename, "records", res.Records, "user", u.Email)
		audit(c, u, "UPLOAD", fmt.Sprintf("Uploaded %s (%d %s records)", file.Filename, res.Records, form.Label()))
		c.JSON(http.StatusOK, gin.H{"message": "Data uploaded successfully", "records_processed": res.Records})
	}
}

// discardUpload removes the stored copy of an upload that was not ingested.
func discardUpload(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to remove rejected upload", "path", path, "error", err)
	}
}

func allowedExt(allowed []string, ext string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if strings.EqualFold(a, ext) {
			return true
		}
	}
	return false
}

// amount is a numeric request field. It accepts a JSON number, a numeric
// string (thousand separators and "$" allowed), "" or null.
type amount string

var amountCleaner = strings.NewReplacer(",", "", "$", "", " ", "")

func (a *amount) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		*a = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*a = ""
			return nil
		}
	}
	if _, err := decimal.NewFromString(amountCleaner.Replace(s)); err != nil {
		return fmt.Errorf("not a number: %q", s)
	}
	*a = amount(s)
	return nil
}

// text is a free-text request field; numbers are kept as their literal.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	s := string(b)
	switch {
	case s == "null":
		*t = ""
	case strings.HasPrefix(s, `"`):
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = text(strings.TrimSpace(s))
	case len(s) > 0 && (s[0] == '-' || (s[0] >= '0' && s[0] <= '9')):
		*t = text(s)
	default:
		return fmt.Errorf("expected a string, got %s", s)
	}
	return nil
}

type manualEntry interface {
	fields() map[string]any
}

type goodsEntryRequest struct {
	FacilityName    text   `json:"facility_name" binding:"required"`
	ReportingPeriod text   `json:"reporting_period" binding:"required"`
	ItemDescription text   `json:"item_description" binding:"required"`
	Quantity        amount `json:"quantity" binding:"required"`
	UnitCost        amount `json:"unit_cost" binding:"required"`
	TotalCost       amount `json:"total_cost" binding:"required"`
	Supplier        text   `json:"supplier"`
	DatePurchased   text   `json:"date_purchased"`
	Notes           text   `json:"notes"`
}

func (r *goodsEntryRequest) fields() map[string]any {
	return map[string]any{
		"facility_name":    string(r.FacilityName),
		"reporting_period": string(r.ReportingPeriod),
		"item_description": string(r.ItemDescription),
		"quantity":         string(r.Quantity),
		"unit_cost":        string(r.UnitCost),
		"total_cost":       string(r.TotalCost),
		"supplier":         string(r.Supplier),
		"date_purchased":   string(r.DatePurchased),
		"notes":            string(r.Notes),
	}
}

type salariesForm1Request struct {
	FacilityName  text   `json:"facility_name" binding:"required"`
	EmployeeName  text   `json:"employee_name" binding:"required"`
	Position      text   `json:"position" binding:"required"`
	SalaryAmount  amount `json:"salary_amount" binding:"required"`
	PaymentDate   text   `json:"payment_date"`
	PaymentMethod text   `json:"payment_method"`
	Notes         text   `json:"notes"`
}

func (r *salariesForm1Request) fields() map[string]any {
	return map[string]any{
		"facility_name":  string(r.FacilityName),
		"employee_name":  string(r.EmployeeName),
		"position":       string(r.Position),
		"salary_amount":  string(r.SalaryAmount),
		"payment_date":   string(r.PaymentDate),
		"payment_method": string(r.PaymentMethod),
		"notes":          string(r.Notes),
	}
}

type salaryEntryForm2Request struct {
	FacilityName  text   `json:"facility_name" binding:"required"`
	EmployeeID    text   `json:"employee_id" binding:"required"`
	EmployeeName  text   `json:"employee_name" binding:"required"`
	Position      text   `json:"position" binding:"required"`
	BasicSalary   amount `json:"basic_salary" binding:"required"`
	Allowances    amount `json:"allowances"`
	Deductions    amount `json:"deductions"`
	NetSalary     amount `json:"net_salary" binding:"required"`
	PaymentDate   text   `json:"payment_date"`
	PaymentStatus text   `json:"payment_status"`
}

func (r *salaryEntryForm2Request) fields() map[string]any {
	return map[string]any{
		"facility_name":  string(r.FacilityName),
		"employee_id":    string(r.EmployeeID),
		"employee_name":  string(r.EmployeeName),
		"position":       string(r.Position),
		"basic_salary":   string(r.BasicSalary),
		"allowances":     string(r.Allowances),
		"deductions":     string(r.Deductions),
		"net_salary":     string(r.NetSalary),
		"payment_date":   string(r.PaymentDate),
		"payment_status": string(r.PaymentStatus),
	}
}

func newManualEntry(form ingest.FormType) manualEntry {
	switch form {
	case ingest.SalariesForm1:
		return &salariesForm1Request{}
	case ingest.SalaryEntryForm2:
		return &salaryEntryForm2Request{}
	default:
		return &goodsEntryRequest{}
	}
}

// manualEntryHandler stores one hand-entered record keyed by column key
// (facility_name, total_cost, ...).
func manualEntryHandler(form ingest.FormType) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := newManualEntry(form)
		if err := c.ShouldBindJSON(req); err != nil {
			var ve validator.ValidationErrors
			if errors.As(err, &ve) {
				missing := make([]string, 0, len(ve))
				for _, fe := range ve {
					missing = append(missing, fe.Field())
				}
				c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields", "missing": missing})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}
		u := currentUser(c)
		res, err := ingest.IngestManual(c.Request.Context(), db, form, req.fields(), &u.ID)
		if err != nil {
			var mf *ingest.MissingFieldsError
			if errors.As(err, &mf) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields", "missing": mf.Fields})
				return
			}
			serverError(c, "Failed to save record", err)
			return
		}
		recordsIngested.WithLabelValues(string(form), models.SourceManual).Add(float64(res.Records))
		audit(c, u, "MANUAL_ENTRY", "Added "+form.Label()+" record")
		c.JSON(http.StatusOK, gin.H{"message": "Record saved successfully", "success": true})
	}
}

// listDataHandler returns every stored record of the three tables, newest first.
func listDataHandler(c *gin.Context) {
	ctx := c.Request.Context()
	goods := []models.GoodsServicesRecord{}
	form1 := []models.SalariesForm1Record{}
	form2 := []models.SalaryEntryForm2Record{}
	for _, dst := range []any{&goods, &form1, &form2} {
		if err := db.WithContext(ctx).Order("uploaded_at DESC, id DESC").Find(dst).Error; err != nil {
			serverError(c, "Failed to retrieve data", err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"goods_services":     goods,
		"salaries_form1":     form1,
		"salary_entry_form2": form2,
	})
}
