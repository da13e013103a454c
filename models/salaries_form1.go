package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalariesForm1Record is a single salary payment.
type SalariesForm1Record struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	FacilityName  string          `gorm:"size:255;not null;index" json:"facility_name"`
	EmployeeName  string          `gorm:"size:255;not null;index" json:"employee_name"`
	Position      string          `gorm:"size:255" json:"position"`
	SalaryAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"salary_amount"`
	PaymentDate   *time.Time      `json:"payment_date"`
	PaymentMethod string          `gorm:"size:100" json:"payment_method"`
	Notes         string          `gorm:"size:1000" json:"notes"`
	FileName      string          `gorm:"size:255" json:"file_name"`
	UploadID      *uint           `gorm:"index" json:"upload_id,omitempty"`
	UploadedAt    time.Time       `gorm:"index;not null" json:"uploaded_at"`
}

func (SalariesForm1Record) TableName() string { return "salaries_form1_data" }
