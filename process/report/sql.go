package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	goodsTable = "goods_services_data"
	form1Table = "salaries_form1_data"
	form2Table = "salary_entry_form2_data"
)

// amountColumn is the money column summed for each record table.
var amountColumn = map[string]string{
	goodsTable: "total_cost",
	form1Table: "salary_amount",
	form2Table: "net_salary",
}

var recordTables = []string{goodsTable, form1Table, form2Table}

// monthExpr buckets a timestamp column into YYYY-MM for the connected dialect.
func monthExpr(db *gorm.DB, col string) string {
	switch db.Dialector.Name() {
	case "postgres":
		return fmt.Sprintf("to_char(%s, 'YYYY-MM')", col)
	case "sqlite":
		return fmt.Sprintf("strftime('%%Y-%%m', %s)", col)
	case "sqlserver":
		return fmt.Sprintf("FORMAT(%s, 'yyyy-MM')", col)
	default:
		return fmt.Sprintf("DATE_FORMAT(%s, '%%Y-%%m')", col)
	}
}

// money rounds a scanned aggregate to the scale of the money columns. SQLite
// sums NUMERIC columns as REAL, so its totals carry float noise.
func money(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func sumExpr(col string) string {
	return fmt.Sprintf("COALESCE(SUM(%s), 0)", col)
}

// countSince counts rows of table uploaded at or after since (zero since counts all).
func countSince(db *gorm.DB, table string, since time.Time) (int64, error) {
	var n int64
	q := db.Table(table)
	if !since.IsZero() {
		q = q.Where("uploaded_at >= ?", since)
	}
	err := q.Count(&n).Error
	return n, err
}

// sumSince sums the table's money column over rows uploaded at or after since.
func sumSince(db *gorm.DB, table string, since time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	q := db.Table(table).Select(sumExpr(amountColumn[table]))
	if !since.IsZero() {
		q = q.Where("uploaded_at >= ?", since)
	}
	if err := q.Row().Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("sum %s: %w", table, err)
	}
	return money(total), nil
}

func countDistinct(db *gorm.DB, table, col string) (int64, error) {
	var n int64
	err := db.Table(table).Select(fmt.Sprintf("COUNT(DISTINCT %s)", col)).Row().Scan(&n)
	return n, err
}

// timestamp layouts returned as text by drivers that lack a native time type
var dbTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// parseDBTime reads a MAX()/MIN() timestamp scanned as text. Zero when unparseable.
func parseDBTime(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range dbTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// startOfDay is midnight UTC of t's day.
func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
