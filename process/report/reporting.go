package report

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SummaryTotals struct {
	GoodsServicesTotal    decimal.Decimal `json:"goods_services_total"`
	SalariesForm1Total    decimal.Decimal `json:"salaries_form1_total"`
	SalaryEntryForm2Total decimal.Decimal `json:"salary_entry_form2_total"`
	GrandTotal            decimal.Decimal `json:"grand_total"`
}

type RecordCounts struct {
	GoodsServices    int64 `json:"goods_services"`
	SalariesForm1    int64 `json:"salaries_form1"`
	SalaryEntryForm2 int64 `json:"salary_entry_form2"`
}

// Summary is the per-table money total and record count.
type Summary struct {
	Summary      SummaryTotals `json:"summary"`
	RecordCounts RecordCounts  `json:"record_counts"`
}

func GetSummary(ctx context.Context, db *gorm.DB) (Summary, error) {
	db = db.WithContext(ctx)
	var s Summary
	totals := []*decimal.Decimal{&s.Summary.GoodsServicesTotal, &s.Summary.SalariesForm1Total, &s.Summary.SalaryEntryForm2Total}
	counts := []*int64{&s.RecordCounts.GoodsServices, &s.RecordCounts.SalariesForm1, &s.RecordCounts.SalaryEntryForm2}
	for i, table := range recordTables {
		sum, err := sumSince(db, table, time.Time{})
		if err != nil {
			return s, err
		}
		*totals[i] = sum
		n, err := countSince(db, table, time.Time{})
		if err != nil {
			return s, fmt.Errorf("count %s: %w", table, err)
		}
		*counts[i] = n
	}
	s.Summary.GrandTotal = s.Summary.GoodsServicesTotal.Add(s.Summary.SalariesForm1Total).Add(s.Summary.SalaryEntryForm2Total)
	return s, nil
}

// FacilityTotal is one facility's record count and money total in one table.
type FacilityTotal struct {
	FacilityName string          `json:"facility_name"`
	RecordCount  int64           `json:"record_count"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
}

type FacilityBreakdown struct {
	GoodsServices    []FacilityTotal `json:"goods_services"`
	SalariesForm1    []FacilityTotal `json:"salaries_form1"`
	SalaryEntryForm2 []FacilityTotal `json:"salary_entry_form2"`
}

// GetFacilityBreakdown groups each record table by facility, ordered by name.
func GetFacilityBreakdown(ctx context.Context, db *gorm.DB) (FacilityBreakdown, error) {
	db = db.WithContext(ctx)
	var fb FacilityBreakdown
	into := []*[]FacilityTotal{&fb.GoodsServices, &fb.SalariesForm1, &fb.SalaryEntryForm2}
	for i, table := range recordTables {
		rows := []FacilityTotal{}
		if err := db.Table(table).
			Select("facility_name, COUNT(*) AS record_count, " + sumExpr(amountColumn[table]) + " AS total_amount").
			Group("facility_name").Order("facility_name").
			Scan(&rows).Error; err != nil {
			return fb, fmt.Errorf("facility breakdown %s: %w", table, err)
		}
		for j := range rows {
			rows[j].TotalAmount = money(rows[j].TotalAmount)
		}
		*into[i] = rows
	}
	return fb, nil
}

type SupplierTotal struct {
	Supplier         string          `json:"supplier"`
	TransactionCount int64           `json:"transaction_count"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
}

type PositionSalary struct {
	Position      string          `json:"position"`
	EmployeeCount int64           `json:"employee_count"`
	AvgSalary     decimal.Decimal `json:"avg_salary"`
	TotalSalary   decimal.Decimal `json:"total_salary"`
}

type MonthTotal struct {
	Month       string          `json:"month"`
	RecordCount int64           `json:"record_count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

type Analytics struct {
	TopSuppliers  []SupplierTotal  `json:"top_suppliers"`
	TopPositions  []PositionSalary `json:"top_positions"`
	MonthlyTrends []MonthTotal     `json:"monthly_trends"`
}

// GetAnalytics returns the top 10 named suppliers by spend, the top 10
// positions by average salary and goods and services per upload month for the
// 12 most recent months, newest first.
func GetAnalytics(ctx context.Context, db *gorm.DB) (Analytics, error) {
	db = db.WithContext(ctx)
	a := Analytics{TopSuppliers: []SupplierTotal{}, TopPositions: []PositionSalary{}, MonthlyTrends: []MonthTotal{}}
	if err := db.Table(goodsTable).
		Select("supplier, COUNT(*) AS transaction_count, "+sumExpr("total_cost")+" AS total_amount").
		Where("supplier IS NOT NULL AND supplier <> ?", "").
		Group("supplier").Order("total_amount DESC").Limit(10).
		Scan(&a.TopSuppliers).Error; err != nil {
		return a, fmt.Errorf("top suppliers: %w", err)
	}
	for i := range a.TopSuppliers {
		a.TopSuppliers[i].TotalAmount = money(a.TopSuppliers[i].TotalAmount)
	}
	if err := db.Table(form1Table).
		Select("position, COUNT(*) AS employee_count, COALESCE(AVG(salary_amount), 0) AS avg_salary, " + sumExpr("salary_amount") + " AS total_salary").
		Group("position").Order("avg_salary DESC").Limit(10).
		Scan(&a.TopPositions).Error; err != nil {
		return a, fmt.Errorf("top positions: %w", err)
	}
	for i := range a.TopPositions {
		a.TopPositions[i].AvgSalary = money(a.TopPositions[i].AvgSalary)
		a.TopPositions[i].TotalSalary = money(a.TopPositions[i].TotalSalary)
	}
	month := monthExpr(db, "uploaded_at")
	if err := db.Table(goodsTable).
		Select(fmt.Sprintf("%s AS month, COUNT(*) AS record_count, %s AS total_amount", month, sumExpr("total_cost"))).
		Group(month).Order("month DESC").Limit(12).
		Scan(&a.MonthlyTrends).Error; err != nil {
		return a, fmt.Errorf("monthly trends: %w", err)
	}
	for i := range a.MonthlyTrends {
		a.MonthlyTrends[i].TotalAmount = money(a.MonthlyTrends[i].TotalAmount)
	}
	return a, nil
}

type EmployeePayment struct {
	EmployeeName  string          `json:"employee_name"`
	Position      string          `json:"position"`
	SalaryAmount  decimal.Decimal `json:"salary_amount"`
	PaymentDate   *time.Time      `json:"payment_date"`
	PaymentMethod string          `json:"payment_method"`
}

type EmployeeDetail struct {
	EmployeeName  string          `json:"employee_name"`
	Position      string          `json:"position"`
	BasicSalary   decimal.Decimal `json:"basic_salary"`
	Allowances    decimal.Decimal `json:"allowances"`
	Deductions    decimal.Decimal `json:"deductions"`
	NetSalary     decimal.Decimal `json:"net_salary"`
	PaymentStatus string          `json:"payment_status"`
}

type EmployeeSummary struct {
	Employees       []EmployeePayment `json:"employees"`
	EmployeeDetails []EmployeeDetail  `json:"employee_details"`
}

// GetEmployeeSummary lists salary form rows by amount, largest first.
func GetEmployeeSummary(ctx context.Context, db *gorm.DB) (EmployeeSummary, error) {
	db = db.WithContext(ctx)
	es := EmployeeSummary{Employees: []EmployeePayment{}, EmployeeDetails: []EmployeeDetail{}}
	if err := db.Table(form1Table).
		Select("employee_name, position, salary_amount, payment_date, payment_method").
		Order("salary_amount DESC, id").
		Find(&es.Employees).Error; err != nil {
		return es, fmt.Errorf("employees: %w", err)
	}
	if err := db.Table(form2Table).
		Select("employee_name, position, basic_salary, allowances, deductions, net_salary, payment_status").
		Order("net_salary DESC, id").
		Find(&es.EmployeeDetails).Error; err != nil {
		return es, fmt.Errorf("employee details: %w", err)
	}
	return es, nil
}
