// Package sanitize purges data older than the configured retention period.
package sanitize

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"acquittals/models"
	"acquittals/pkg/database"

	"gorm.io/gorm"
)

// DefaultRetentionDays applies when no admin setting has been saved.
const DefaultRetentionDays = 365

// Plan counts the rows older than Cutoff, per table.
type Plan struct {
	Cutoff time.Time
	Tables map[string]int64
	// Files are the stored source files of the affected uploads.
	Files []string
}

func (p Plan) Total() int64 {
	var n int64
	for _, c := range p.Tables {
		n += c
	}
	return n
}

type target struct {
	model  any
	table  string
	column string
}

// record tables go first so uploads are never removed under their rows.
var targets = []target{
	{&models.GoodsServicesRecord{}, "goods_services_data", "uploaded_at"},
	{&models.SalariesForm1Record{}, "salaries_form1_data", "uploaded_at"},
	{&models.SalaryEntryForm2Record{}, "salary_entry_form2_data", "uploaded_at"},
	{&models.Upload{}, "uploads", "created_at"},
	{&models.AuditLog{}, "audit_logs", "created_at"},
}

// RetentionDays reads dataRetentionDays from the admin settings document.
func RetentionDays(ctx context.Context, db *gorm.DB) (int, error) {
	var s models.Setting
	err := db.WithContext(ctx).Where("scope = ?", models.ScopeAdmin).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return DefaultRetentionDays, nil
	}
	if err != nil {
		return 0, err
	}
	var v struct {
		DataRetentionDays int `json:"dataRetentionDays"`
	}
	if err := json.Unmarshal(s.Value, &v); err != nil {
		return 0, fmt.Errorf("decode admin settings: %w", err)
	}
	if v.DataRetentionDays <= 0 {
		return DefaultRetentionDays, nil
	}
	return v.DataRetentionDays, nil
}

// Cutoff is the instant before which data is expired.
func Cutoff(now time.Time, days int) time.Time {
	return now.UTC().AddDate(0, 0, -days)
}

// Inspect reports what Purge would delete. Missing tables are skipped.
func Inspect(ctx context.Context, db *gorm.DB, cutoff time.Time) (Plan, error) {
	p := Plan{Cutoff: cutoff, Tables: map[string]int64{}}
	m := db.Migrator()
	for _, t := range targets {
		if !m.HasTable(t.table) {
			log.Printf("info: table %s not found, skipping", t.table)
			continue
		}
		var n int64
		if err := db.WithContext(ctx).Model(t.model).Where(t.column+" < ?", cutoff).Count(&n).Error; err != nil {
			return p, fmt.Errorf("count %s: %w", t.table, err)
		}
		p.Tables[t.table] = n
	}
	if _, ok := p.Tables["uploads"]; ok {
		if err := db.WithContext(ctx).Model(&models.Upload{}).
			Where("created_at < ? AND store_path <> ''", cutoff).
			Pluck("store_path", &p.Files).Error; err != nil {
			return p, fmt.Errorf("list upload files: %w", err)
		}
	}
	return p, nil
}

// Purge deletes everything older than cutoff in one transaction and returns
// the deleted counts. Stored files are left to the caller.
func Purge(ctx context.Context, db *gorm.DB, cutoff time.Time) (Plan, error) {
	p, err := Inspect(ctx, db, cutoff)
	if err != nil {
		return p, err
	}
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, t := range targets {
			if _, ok := p.Tables[t.table]; !ok {
				continue
			}
			res := tx.Where(t.column+" < ?", cutoff).Delete(t.model)
			if res.Error != nil {
				return fmt.Errorf("delete %s: %w", t.table, res.Error)
			}
			p.Tables[t.table] = res.RowsAffected
		}
		return nil
	})
	return p, err
}

// RemoveFiles deletes stored files, ignoring ones already gone.
func RemoveFiles(paths []string) (removed int) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				log.Printf("warning: remove %s: %v", path, err)
			}
			continue
		}
		removed++
	}
	return removed
}

// Run executes the retention CLI. Exported so a small cmd/main can call it.
func Run() {
	var (
		days   = flag.Int("days", 0, "retention period in days (default: admin dataRetentionDays setting, else 365)")
		dryRun = flag.Bool("dry-run", true, "Don't delete anything; show what would be done")
		yes    = flag.Bool("yes", false, "Confirm destructive action (required to actually delete)")
		files  = flag.Bool("files", true, "Also remove the stored source files of purged uploads")
	)
	flag.Parse()

	db := database.MustOpenFromEnv()
	defer database.Close(db)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	n := *days
	if n <= 0 {
		var err error
		if n, err = RetentionDays(ctx, db); err != nil {
			log.Fatalf("read retention setting: %v", err)
		}
	}
	cutoff := Cutoff(time.Now(), n)
	plan, err := Inspect(ctx, db, cutoff)
	if err != nil {
		log.Fatalf("inspect: %v", err)
	}
	fmt.Printf("Rows older than %s (%d days):\n", cutoff.Format(time.RFC3339), n)
	for _, t := range targets {
		if c, ok := plan.Tables[t.table]; ok {
			fmt.Printf(" - %-24s %d\n", t.table, c)
		}
	}
	if plan.Total() == 0 {
		fmt.Println("nothing to purge")
		return
	}
	if *dryRun {
		fmt.Println("dry-run enabled; no changes will be made. Use --dry-run=false --yes to execute.")
		return
	}
	if !*yes {
		fmt.Println("Destructive operation. Pass --yes to confirm execution. Aborting.")
		return
	}
	done, err := Purge(ctx, db, cutoff)
	if err != nil {
		log.Fatalf("purge failed: %v", err)
	}
	log.Printf("Purge completed: %d rows deleted.", done.Total())
	if *files {
		log.Printf("Removed %d stored files.", RemoveFiles(done.Files))
	}
}
