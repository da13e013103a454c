package models

import (
	"time"
)

const (
	SourceUpload = "upload"
	SourceManual = "manual"
	SourceInbox  = "inbox"
)

// ManualEntryFileName is stored as the source file of hand-entered records.
const ManualEntryFileName = "Manual Entry"

// Upload is one ingestion batch: a spreadsheet upload, a manual entry or a file
// picked up from the inbox folder.
type Upload struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	CreatedAt        time.Time `gorm:"index" json:"created_at"`
	FormType         string    `gorm:"size:32;not null;index" json:"form_type"`
	Source           string    `gorm:"size:16;not null;default:upload" json:"source"`
	FileName         string    `gorm:"size:255;not null" json:"file_name"`
	StorePath        string    `gorm:"column:store_path;size:512" json:"-"` // stored copy of the source file
	RecordsProcessed int       `gorm:"not null;default:0" json:"records_processed"`
	UserID           *uint     `gorm:"index" json:"user_id,omitempty"` // nil for operator tools
	User             *User     `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
}
