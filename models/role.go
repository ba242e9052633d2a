package models

import "time"

// Role is a named access level. Seeding creates "administrator" and
// "user"; administrators see every user's cards and uploads.
type Role struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Name        string `gorm:"size:32;uniqueIndex;not null"`
	Description string `gorm:"size:255"`
}
