package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// GoodsServicesRecord is one purchased line item.
type GoodsServicesRecord struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	FacilityName    string          `gorm:"size:255;not null;index" json:"facility_name"`
	ReportingPeriod string          `gorm:"size:100" json:"reporting_period"`
	ItemDescription string          `gorm:"size:1000" json:"item_description"`
	Quantity        int             `gorm:"not null;default:0" json:"quantity"`
	UnitCost        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"unit_cost"`
	TotalCost       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_cost"`
	Supplier        string          `gorm:"size:255" json:"supplier"`
	DatePurchased   *time.Time      `json:"date_purchased"`
	Notes           string          `gorm:"size:1000" json:"notes"`
	FileName        string          `gorm:"size:255" json:"file_name"`
	UploadID        *uint           `gorm:"index" json:"upload_id,omitempty"`
	UploadedAt      time.Time       `gorm:"index;not null" json:"uploaded_at"`
}

func (GoodsServicesRecord) TableName() string { return "goods_services_data" }
