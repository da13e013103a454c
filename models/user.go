package models

import (
	"time"
)

// User is an account that can sign in. Email is the login identifier.
type User struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	Email          string           `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Name           string           `gorm:"size:255;not null" json:"name"`
	HashedPassword []byte           `gorm:"not null" json:"-"`
	RoleID         *uint            `gorm:"index" json:"-"`
	Role           Role             `gorm:"foreignKey:RoleID;references:ID" json:"-"`
	Preferences    *UserPreferences `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// IsAdmin reports whether the user's role was loaded and is the administrator role.
func (u User) IsAdmin() bool {
	return u.Role.Name == RoleAdministrator
}
