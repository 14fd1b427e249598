package entities

import (
	"gorm.io/datatypes"
	"time"
)

type JobType string

const JobTypeCVExtraction JobType = "cv_extraction"

type JobStatus string

const (
	JobWaiting   JobStatus = "waiting"
	JobActive    JobStatus = "active"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

type Job struct {
	ID          string         `gorm:"primaryKey"`
	Type        JobType        `gorm:"index;not null"`
	Payload     datatypes.JSON `gorm:"not null"`
	Status      JobStatus      `gorm:"index;not null"`
	Progress    int
	Attempts    int
	MaxAttempts int
	LastError   string
	RunAt       time.Time `gorm:"index"`
	StartedAt   *time.Time
	FinishedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsLastAttempt reports whether the current attempt is the last one allowed.
func (j *Job) IsLastAttempt() bool {
	return j.Attempts >= j.MaxAttempts
}

func (j *Job) IsFinished() bool {
	return j.Status == JobCompleted || j.Status == JobFailed
}

type ExtractionPayload struct {
	ProfileID string `json:"profileId" validate:"required"`
	PDFPath   string `json:"pdfPath" validate:"required"`
	FileHash  string `json:"fileHash" validate:"required"`
}
