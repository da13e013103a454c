package export

import (
	"context"
	"fmt"

	"acquittals/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Dataset is every stored record, one slice per form.
type Dataset struct {
	Goods []models.GoodsServicesRecord
	Form1 []models.SalariesForm1Record
	Form2 []models.SalaryEntryForm2Record
}

// Totals are the money sums of a dataset.
type Totals struct {
	Goods decimal.Decimal
	Form1 decimal.Decimal
	Form2 decimal.Decimal
}

func (t Totals) Grand() decimal.Decimal {
	return t.Goods.Add(t.Form1).Add(t.Form2)
}

// Load reads all three record tables in id order.
func Load(ctx context.Context, db *gorm.DB) (Dataset, error) {
	var d Dataset
	q := db.WithContext(ctx)
	if err := q.Order("id").Find(&d.Goods).Error; err != nil {
		return d, fmt.Errorf("load goods_services_data: %w", err)
	}
	if err := q.Order("id").Find(&d.Form1).Error; err != nil {
		return d, fmt.Errorf("load salaries_form1_data: %w", err)
	}
	if err := q.Order("id").Find(&d.Form2).Error; err != nil {
		return d, fmt.Errorf("load salary_entry_form2_data: %w", err)
	}
	return d, nil
}

// Totals sums total cost, salary amount and net salary.
func (d Dataset) Totals() Totals {
	t := Totals{Goods: decimal.Zero, Form1: decimal.Zero, Form2: decimal.Zero}
	for _, r := range d.Goods {
		t.Goods = t.Goods.Add(r.TotalCost)
	}
	for _, r := range d.Form1 {
		t.Form1 = t.Form1.Add(r.SalaryAmount)
	}
	for _, r := range d.Form2 {
		t.Form2 = t.Form2.Add(r.NetSalary)
	}
	return t
}
