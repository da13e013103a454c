package models

import (
	"time"

	"gorm.io/datatypes"
)

// UserPreferences holds a user's UI settings (one-to-one with User)
type UserPreferences struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	UserID    uint           `gorm:"uniqueIndex;not null"`
	Value     datatypes.JSON `gorm:"not null"`
}

func (UserPreferences) TableName() string { return "user_preferences" }
