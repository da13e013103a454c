package sanitize

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"acquittals/models"
	"acquittals/pkg/database/databasetest"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func seedAged(t *testing.T, db *gorm.DB, now time.Time, file string) {
	t.Helper()
	old := now.AddDate(0, 0, -400)
	recent := now.AddDate(0, 0, -10)
	up := models.Upload{CreatedAt: old, FormType: "goods-services", FileName: "old.xlsx", StorePath: file, RecordsProcessed: 1}
	if err := db.Create(&up).Error; err != nil {
		t.Fatalf("create upload: %v", err)
	}
	rows := []any{
		&models.Upload{CreatedAt: recent, FormType: "goods-services", FileName: "new.xlsx", RecordsProcessed: 1},
		&models.GoodsServicesRecord{FacilityName: "Clinic A", TotalCost: decimal.NewFromInt(5), UploadID: &up.ID, UploadedAt: old},
		&models.GoodsServicesRecord{FacilityName: "Clinic A", TotalCost: decimal.NewFromInt(7), UploadedAt: recent},
		&models.SalariesForm1Record{FacilityName: "Clinic A", EmployeeName: "John", SalaryAmount: decimal.NewFromInt(100), UploadedAt: old},
		&models.AuditLog{CreatedAt: old, Action: "LOGIN"},
		&models.AuditLog{CreatedAt: recent, Action: "LOGIN"},
	}
	for _, r := range rows {
		if err := db.Create(r).Error; err != nil {
			t.Fatalf("create %T: %v", r, err)
		}
	}
}

func TestRetentionDays(t *testing.T) {
	db := databasetest.Open(t)
	ctx := context.Background()
	if d, err := RetentionDays(ctx, db); err != nil || d != DefaultRetentionDays {
		t.Fatalf("default = %d, %v", d, err)
	}
	s := models.Setting{Scope: models.ScopeAdmin, Value: datatypes.JSON(`{"dataRetentionDays":90,"maxUsers":10}`)}
	if err := db.Create(&s).Error; err != nil {
		t.Fatalf("create setting: %v", err)
	}
	if d, err := RetentionDays(ctx, db); err != nil || d != 90 {
		t.Fatalf("configured = %d, %v", d, err)
	}
}

func TestInspectAndPurge(t *testing.T) {
	db := databasetest.Open(t)
	ctx := context.Background()
	now := time.Now().UTC()
	file := filepath.Join(t.TempDir(), "old.xlsx")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	seedAged(t, db, now, file)
	cutoff := Cutoff(now, 365)

	plan, err := Inspect(ctx, db, cutoff)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	want := map[string]int64{
		"goods_services_data":     1,
		"salaries_form1_data":     1,
		"salary_entry_form2_data": 0,
		"uploads":                 1,
		"audit_logs":              1,
	}
	for table, n := range want {
		if plan.Tables[table] != n {
			t.Fatalf("%s: got %d want %d (plan %+v)", table, plan.Tables[table], n, plan.Tables)
		}
	}
	if len(plan.Files) != 1 || plan.Files[0] != file {
		t.Fatalf("unexpected files %v", plan.Files)
	}

	// inspecting must not delete
	var goods int64
	db.Model(&models.GoodsServicesRecord{}).Count(&goods)
	if goods != 2 {
		t.Fatalf("inspect deleted rows: %d left", goods)
	}

	done, err := Purge(ctx, db, cutoff)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if done.Total() != 4 {
		t.Fatalf("expected 4 rows purged, got %d", done.Total())
	}
	db.Model(&models.GoodsServicesRecord{}).Count(&goods)
	var uploads, logs int64
	db.Model(&models.Upload{}).Count(&uploads)
	db.Model(&models.AuditLog{}).Count(&logs)
	if goods != 1 || uploads != 1 || logs != 1 {
		t.Fatalf("left goods=%d uploads=%d logs=%d", goods, uploads, logs)
	}

	if n := RemoveFiles(append(done.Files, filepath.Join(t.TempDir(), "missing"))); n != 1 {
		t.Fatalf("expected 1 file removed, got %d", n)
	}
	if _, err := os.Stat(file); !os.IsNotExist(err) {
		t.Fatalf("stored file still present: %v", err)
	}
}

func TestDeleteUpload(t *testing.T) {
	db := databasetest.Open(t)
	ctx := context.Background()
	now := time.Now().UTC()
	seedAged(t, db, now, "")

	var up models.Upload
	if err := db.Where("file_name = ?", "old.xlsx").First(&up).Error; err != nil {
		t.Fatalf("load upload: %v", err)
	}
	_, plan, err := UploadPlan(ctx, db, up.ID)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if plan.Tables["goods_services_data"] != 1 || plan.Total() != 2 || len(plan.Files) != 0 {
		t.Fatalf("unexpected plan %+v", plan)
	}
	if _, err := DeleteUpload(ctx, db, up.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var goods, uploads int64
	db.Model(&models.GoodsServicesRecord{}).Count(&goods)
	db.Model(&models.Upload{}).Count(&uploads)
	if goods != 1 || uploads != 1 {
		t.Fatalf("left goods=%d uploads=%d", goods, uploads)
	}
	if _, _, err := UploadPlan(ctx, db, up.ID); err == nil {
		t.Fatalf("expected error for deleted upload")
	}
}
