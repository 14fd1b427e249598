package entities

import (
	"gorm.io/datatypes"
	"time"
)

type ExtractionRecord struct {
	ID            string         `gorm:"primaryKey"`
	ProfileID     string         `gorm:"uniqueIndex;not null"`
	ExtractedData datatypes.JSON `gorm:"not null"`
	FileHash      string         `gorm:"not null"`
	SchemaVersion int            `gorm:"not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
