package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"acquittals/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TableMonth is one record table's activity inside a month.
type TableMonth struct {
	Table   string          `json:"table"`
	Records int64           `json:"records"`
	Total   decimal.Decimal `json:"total"`
}

// Monthly is a month-bounded report over records by upload time.
type Monthly struct {
	Month      string          `json:"month"`
	Facility   string          `json:"facility,omitempty"`
	Tables     []TableMonth    `json:"tables"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// MonthWindow returns the UTC [start, end) bounds of a YYYY-MM month.
func MonthWindow(month string) (time.Time, time.Time, error) {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid month format, expected YYYY-MM: %w", err)
	}
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0), nil
}

// GetMonthly counts and sums each record table for rows uploaded in month,
// optionally restricted to one facility.
func GetMonthly(ctx context.Context, db *gorm.DB, month, facility string) (Monthly, error) {
	start, end, err := MonthWindow(month)
	if err != nil {
		return Monthly{}, err
	}
	db = db.WithContext(ctx)
	m := Monthly{Month: month, Facility: facility, GrandTotal: decimal.Zero}
	for _, table := range recordTables {
		q := db.Table(table).Where("uploaded_at >= ? AND uploaded_at < ?", start, end)
		if facility != "" {
			q = q.Where("facility_name = ?", facility)
		}
		tm := TableMonth{Table: table}
		if err := q.Select("COUNT(*), " + sumExpr(amountColumn[table])).Row().Scan(&tm.Records, &tm.Total); err != nil {
			return m, fmt.Errorf("query %s: %w", table, err)
		}
		tm.Total = money(tm.Total)
		m.Tables = append(m.Tables, tm)
		m.GrandTotal = m.GrandTotal.Add(tm.Total)
	}
	return m, nil
}

// RunReport prints the monthly report for month (YYYY-MM) and optionally lists
// the matching goods and services rows.
func RunReport(ctx context.Context, db *gorm.DB, w io.Writer, month, facility string, list bool) error {
	m, err := GetMonthly(ctx, db, month, facility)
	if err != nil {
		return err
	}
	scope := "all facilities"
	if facility != "" {
		scope = "facility=" + facility
	}
	fmt.Fprintf(w, "Report for %s month=%s (UTC):\n", scope, month)
	for _, t := range m.Tables {
		fmt.Fprintf(w, "  %-24s records=%d total_amount=%s\n", t.Table, t.Records, t.Total.StringFixed(2))
	}
	fmt.Fprintf(w, "  grand_total=%s\n", m.GrandTotal.StringFixed(2))

	if list {
		start, end, _ := MonthWindow(month)
		var rows []models.GoodsServicesRecord
		q := db.WithContext(ctx).Where("uploaded_at >= ? AND uploaded_at < ?", start, end)
		if facility != "" {
			q = q.Where("facility_name = ?", facility)
		}
		if err := q.Order("id").Find(&rows).Error; err != nil {
			return fmt.Errorf("fetch rows failed: %w", err)
		}
		for _, r := range rows {
			fmt.Fprintf(w, "%d|%s|%s|%s|%s\n", r.ID, r.FacilityName, r.ItemDescription, r.TotalCost.StringFixed(2), r.UploadedAt.Format(time.RFC3339))
		}
	}
	return nil
}
