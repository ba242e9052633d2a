package models

import "time"

// Card is a confirmed card in a user's collection. The canonical fields
// mirror what the scan pipeline extracts; everything is nullable because
// "unknown" is a normal state a user may choose to save anyway.
type Card struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	UserID    uint `gorm:"index;not null"`

	// Canonical fields
	Sport      *string `gorm:"size:50"`
	Year       *int
	Brand      *string `gorm:"size:120"`
	SetName    *string `gorm:"size:200"`
	Player     *string `gorm:"size:200"`
	Team       *string `gorm:"size:200"`
	CardNumber *string `gorm:"size:50"`
	Parallel   *string `gorm:"size:200"`

	// User fields
	Condition *string `gorm:"size:120"` // raw/graded
	Grader    *string `gorm:"size:50"`  // PSA/BGS/SGC
	Grade     *string `gorm:"size:20"`
	Notes     *string `gorm:"type:text"`

	// Image paths relative to the upload base
	ImageFrontPath   *string `gorm:"size:500"`
	ImageCroppedPath *string `gorm:"size:500"`

	// Extraction metadata kept for later review
	OCRText    *string `gorm:"column:ocr_text;type:text"`
	Confidence *float64
}
