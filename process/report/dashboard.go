package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"acquittals/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Overview is the dashboard headline.
type Overview struct {
	TotalRecords    int64           `json:"totalRecords"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	TotalFacilities int64           `json:"totalFacilities"`
	TotalEmployees  int64           `json:"totalEmployees"`
	RecentUploads   int64           `json:"recentUploads"`
	PendingReports  int64           `json:"pendingReports"`
}

// GetOverview totals all record tables. Facilities are counted from goods and
// services; employees are distinct names per salary form, summed.
func GetOverview(ctx context.Context, db *gorm.DB, now time.Time) (Overview, error) {
	db = db.WithContext(ctx)
	ov := Overview{TotalAmount: decimal.Zero}
	weekAgo := now.Add(-7 * 24 * time.Hour)
	for _, table := range recordTables {
		n, err := countSince(db, table, time.Time{})
		if err != nil {
			return ov, fmt.Errorf("count %s: %w", table, err)
		}
		ov.TotalRecords += n
		sum, err := sumSince(db, table, time.Time{})
		if err != nil {
			return ov, err
		}
		ov.TotalAmount = ov.TotalAmount.Add(sum)
		recent, err := countSince(db, table, weekAgo)
		if err != nil {
			return ov, fmt.Errorf("count recent %s: %w", table, err)
		}
		ov.RecentUploads += recent
	}
	var err error
	if ov.TotalFacilities, err = countDistinct(db, goodsTable, "facility_name"); err != nil {
		return ov, fmt.Errorf("count facilities: %w", err)
	}
	for _, table := range []string{form1Table, form2Table} {
		n, err := countDistinct(db, table, "employee_name")
		if err != nil {
			return ov, fmt.Errorf("count employees %s: %w", table, err)
		}
		ov.TotalEmployees += n
	}
	return ov, nil
}

// Dataset is one chart series.
type Dataset struct {
	Label           string            `json:"label"`
	Data            []decimal.Decimal `json:"data"`
	BackgroundColor string            `json:"backgroundColor"`
	BorderColor     string            `json:"borderColor"`
}

// Chart is a labelled series ready for a chart.js style client.
type Chart struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

type ChartData struct {
	Monthly    Chart `json:"monthly"`
	Facilities Chart `json:"facilities"`
	Salaries   Chart `json:"salaries"`
}

type labelled struct {
	Label string
	Total decimal.Decimal
}

func newChart(rows []labelled, label, bg, border string) Chart {
	c := Chart{Labels: make([]string, 0, len(rows)), Datasets: []Dataset{{Label: label, Data: make([]decimal.Decimal, 0, len(rows)), BackgroundColor: bg, BorderColor: border}}}
	for _, r := range rows {
		c.Labels = append(c.Labels, r.Label)
		c.Datasets[0].Data = append(c.Datasets[0].Data, money(r.Total))
	}
	return c
}

// GetCharts returns goods and services totals per upload month for the last
// 12 months, the top 10 facilities by goods total and the top 10 employees by
// salary.
func GetCharts(ctx context.Context, db *gorm.DB, now time.Time) (ChartData, error) {
	db = db.WithContext(ctx)
	var monthly, facilities, salaries []labelled

	month := monthExpr(db, "uploaded_at")
	if err := db.Table(goodsTable).
		Select(fmt.Sprintf("%s AS label, %s AS total", month, sumExpr("total_cost"))).
		Where("uploaded_at >= ?", now.AddDate(0, -12, 0)).
		Group(month).Order("label").
		Scan(&monthly).Error; err != nil {
		return ChartData{}, fmt.Errorf("monthly chart: %w", err)
	}
	if err := db.Table(goodsTable).
		Select("facility_name AS label, " + sumExpr("total_cost") + " AS total").
		Group("facility_name").Order("total DESC").Limit(10).
		Scan(&facilities).Error; err != nil {
		return ChartData{}, fmt.Errorf("facility chart: %w", err)
	}
	if err := db.Table(form1Table).
		Select("employee_name AS label, " + sumExpr("salary_amount") + " AS total").
		Group("employee_name").Order("total DESC").Limit(10).
		Scan(&salaries).Error; err != nil {
		return ChartData{}, fmt.Errorf("salary chart: %w", err)
	}
	return ChartData{
		Monthly:    newChart(monthly, "Goods & Services Amount", "rgba(54, 162, 235, 0.2)", "rgba(54, 162, 235, 1)"),
		Facilities: newChart(facilities, "Total Amount", "rgba(255, 99, 132, 0.2)", "rgba(255, 99, 132, 1)"),
		Salaries:   newChart(salaries, "Total Salary", "rgba(75, 192, 192, 0.2)", "rgba(75, 192, 192, 1)"),
	}, nil
}

// Activity is one ingestion batch on the recent activity feed.
type Activity struct {
	ID          uint      `json:"id"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	FileName    string    `json:"fileName"`
	Records     int       `json:"records"`
	Timestamp   time.Time `json:"timestamp"`
	User        string    `json:"user"`
}

var formLabels = map[string]string{
	"goods-services":     "Goods & Services",
	"salaries-form1":     "Salaries Form 1",
	"salary-entry-form2": "Salary Entry Form 2",
}

// GetRecentActivity lists the latest ingestion batches, newest first.
func GetRecentActivity(ctx context.Context, db *gorm.DB, limit int) ([]Activity, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	var uploads []models.Upload
	if err := db.WithContext(ctx).Preload("User").Order("created_at DESC, id DESC").Limit(limit).Find(&uploads).Error; err != nil {
		return nil, fmt.Errorf("recent uploads: %w", err)
	}
	out := make([]Activity, 0, len(uploads))
	for _, u := range uploads {
		a := Activity{ID: u.ID, Type: models.SourceUpload, FileName: u.FileName, Records: u.RecordsProcessed, Timestamp: u.CreatedAt, User: "System"}
		if u.User != nil {
			a.User = u.User.Name
		}
		label := formLabels[u.FormType]
		switch u.Source {
		case models.SourceManual:
			a.Type = models.SourceManual
			a.Description = "Added " + label + " record"
		default:
			a.Description = "Uploaded " + label + " data"
		}
		out = append(out, a)
	}
	return out, nil
}

// FacilitySummary combines goods and salary totals for one facility.
type FacilitySummary struct {
	FacilityName       string          `json:"facilityName"`
	GoodsServicesTotal decimal.Decimal `json:"goodsServicesTotal"`
	SalariesTotal      decimal.Decimal `json:"salariesTotal"`
	EmployeeCount      int             `json:"employeeCount"`
	RecordCount        int64           `json:"recordCount"`
	LastUpdated        time.Time       `json:"lastUpdated"`
}

type facilityRow struct {
	FacilityName string
	Total        decimal.Decimal
	RecordCount  int64
	LastUpdated  string
}

// GetFacilitySummaries merges every record table by facility name, ordered by
// goods and services total then by name.
func GetFacilitySummaries(ctx context.Context, db *gorm.DB) ([]FacilitySummary, error) {
	db = db.WithContext(ctx)
	byName := map[string]*FacilitySummary{}
	get := func(name string) *FacilitySummary {
		s, ok := byName[name]
		if !ok {
			s = &FacilitySummary{FacilityName: name, GoodsServicesTotal: decimal.Zero, SalariesTotal: decimal.Zero}
			byName[name] = s
		}
		return s
	}

	for _, table := range recordTables {
		var rows []facilityRow
		if err := db.Table(table).
			Select("facility_name, " + sumExpr(amountColumn[table]) + " AS total, COUNT(*) AS record_count, MAX(uploaded_at) AS last_updated").
			Group("facility_name").
			Scan(&rows).Error; err != nil {
			return nil, fmt.Errorf("facility totals %s: %w", table, err)
		}
		for _, r := range rows {
			s := get(r.FacilityName)
			if table == goodsTable {
				s.GoodsServicesTotal = s.GoodsServicesTotal.Add(money(r.Total))
			} else {
				s.SalariesTotal = s.SalariesTotal.Add(money(r.Total))
			}
			s.RecordCount += r.RecordCount
			if t := parseDBTime(r.LastUpdated); t.After(s.LastUpdated) {
				s.LastUpdated = t
			}
		}
	}

	employees := map[string]map[string]struct{}{}
	for _, table := range []string{form1Table, form2Table} {
		var pairs []struct {
			FacilityName string
			EmployeeName string
		}
		if err := db.Table(table).Distinct("facility_name", "employee_name").Scan(&pairs).Error; err != nil {
			return nil, fmt.Errorf("facility employees %s: %w", table, err)
		}
		for _, p := range pairs {
			if employees[p.FacilityName] == nil {
				employees[p.FacilityName] = map[string]struct{}{}
			}
			employees[p.FacilityName][p.EmployeeName] = struct{}{}
		}
	}

	out := make([]FacilitySummary, 0, len(byName))
	for name, s := range byName {
		s.EmployeeCount = len(employees[name])
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].GoodsServicesTotal.Cmp(out[j].GoodsServicesTotal); c != 0 {
			return c > 0
		}
		return out[i].FacilityName < out[j].FacilityName
	})
	return out, nil
}

// QuickStats counts records uploaded today, in the last 7 and 30 days, and the
// amount uploaded in the last 30 days.
type QuickStats struct {
	TodayUploads int64           `json:"todayUploads"`
	WeekUploads  int64           `json:"weekUploads"`
	MonthUploads int64           `json:"monthUploads"`
	MonthAmount  decimal.Decimal `json:"monthAmount"`
}

func GetQuickStats(ctx context.Context, db *gorm.DB, now time.Time) (QuickStats, error) {
	db = db.WithContext(ctx)
	qs := QuickStats{MonthAmount: decimal.Zero}
	today := startOfDay(now)
	week := now.Add(-7 * 24 * time.Hour)
	month := now.Add(-30 * 24 * time.Hour)
	for _, table := range recordTables {
		for _, w := range []struct {
			since time.Time
			into  *int64
		}{{today, &qs.TodayUploads}, {week, &qs.WeekUploads}, {month, &qs.MonthUploads}} {
			n, err := countSince(db, table, w.since)
			if err != nil {
				return qs, fmt.Errorf("count %s: %w", table, err)
			}
			*w.into += n
		}
		sum, err := sumSince(db, table, month)
		if err != nil {
			return qs, err
		}
		qs.MonthAmount = qs.MonthAmount.Add(sum)
	}
	return qs, nil
}

// Notification is a dashboard message derived from recent ingestion.
type Notification struct {
	ID        int       `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
}

// GetNotifications reports the latest batch and warns when nothing was
// ingested in the 7 days before now.
func GetNotifications(ctx context.Context, db *gorm.DB, now time.Time) ([]Notification, error) {
	var last models.Upload
	err := db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(1).Find(&last).Error
	if err != nil {
		return nil, fmt.Errorf("latest upload: %w", err)
	}
	out := []Notification{}
	if last.ID == 0 {
		return append(out, Notification{ID: 1, Type: "info", Title: "No Data Yet", Message: "Upload a spreadsheet or add a record to get started", Timestamp: now}), nil
	}
	out = append(out, Notification{
		ID:        1,
		Type:      "info",
		Title:     "Latest Upload",
		Message:   fmt.Sprintf("%s: %d %s record(s) from %s", last.Source, last.RecordsProcessed, formLabels[last.FormType], last.FileName),
		Timestamp: last.CreatedAt,
	})
	if now.Sub(last.CreatedAt) > 7*24*time.Hour {
		out = append(out, Notification{ID: 2, Type: "warning", Title: "Upload Reminder", Message: "No data has been uploaded in the last 7 days", Timestamp: now})
	}
	return out, nil
}
