package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ScopeSystem = "system"
	ScopeAdmin  = "admin"
)

// Setting is a JSON settings document keyed by scope.
type Setting struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Scope     string         `gorm:"size:32;uniqueIndex;not null"`
	Value     datatypes.JSON `gorm:"not null"`
	UpdatedBy *uint
}
