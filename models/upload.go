package models

import (
	"time"
)

// Upload records one stored card photo (front image plus the cropped
// rectification the pipeline produced). Failed scans keep their record so
// the user can review and retry.
type Upload struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	FileName    string `gorm:"size:255;not null"`
	StorePath   string `gorm:"column:store_path;size:512"` // relative path under the upload base (e.g. images/xxx_front.jpg)
	CroppedPath string `gorm:"size:512"`                   // relative path of the rectified crop, empty if cropping failed
	UserID      uint   `gorm:"index;not null"`
	ContentType string `gorm:"size:128"`
	CardID      *uint  `gorm:"index"` // set once the user confirms the scan into a Card
	// Mark upload as failed for scan processing (record kept so the user can review)
	Failed       bool   `gorm:"default:false;index"`
	FailedReason string `gorm:"size:255"`
}
