package models

import "time"

// ChecklistEntry is one row of a reference checklist used as ground truth
// for candidate matching. Rows are immutable once imported; the matcher
// reads a snapshot per scan request.
type ChecklistEntry struct {
	ID         uint `gorm:"primaryKey"`
	CreatedAt  time.Time
	Sport      *string `gorm:"size:50"`
	Year       *int
	Brand      *string `gorm:"size:120;index"`
	SetName    *string `gorm:"size:200"`
	Player     *string `gorm:"size:200;index"`
	Team       *string `gorm:"size:200"`
	CardNumber *string `gorm:"size:50"`
	Parallel   *string `gorm:"size:200"`
}
