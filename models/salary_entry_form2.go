package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalaryEntryForm2Record is a salary breakdown with allowances and deductions.
type SalaryEntryForm2Record struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	FacilityName  string          `gorm:"size:255;not null;index" json:"facility_name"`
	EmployeeID    string          `gorm:"size:100" json:"employee_id"`
	EmployeeName  string          `gorm:"size:255;not null;index" json:"employee_name"`
	Position      string          `gorm:"size:255" json:"position"`
	BasicSalary   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"basic_salary"`
	Allowances    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"allowances"`
	Deductions    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"deductions"`
	NetSalary     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"net_salary"`
	PaymentDate   *time.Time      `json:"payment_date"`
	PaymentStatus string          `gorm:"size:50" json:"payment_status"`
	FileName      string          `gorm:"size:255" json:"file_name"`
	UploadID      *uint           `gorm:"index" json:"upload_id,omitempty"`
	UploadedAt    time.Time       `gorm:"index;not null" json:"uploaded_at"`
}

func (SalaryEntryForm2Record) TableName() string { return "salary_entry_form2_data" }
