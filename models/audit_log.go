package models

import "time"

// AuditLog is an append-only trail of security and data events.
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"timestamp"`
	UserID    *uint     `gorm:"index" json:"user_id,omitempty"`
	UserEmail string    `gorm:"size:255" json:"user"`
	Action    string    `gorm:"size:64;not null;index" json:"action"`
	Details   string    `gorm:"size:1000" json:"details"`
	IP        string    `gorm:"column:ip;size:64" json:"ip"`
}
