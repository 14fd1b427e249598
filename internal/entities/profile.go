package entities

import "time"

// CandidateProfile is owned by the surrounding application. The extraction
// pipeline only writes Description, Department, LinkedinURL, Introduction and
// the child collections.
type CandidateProfile struct {
	ID           string `gorm:"primaryKey"`
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	Available    bool
	Description  string
	Department   string
	LinkedinURL  string
	Introduction string
	Skills       []ProfileSkill        `gorm:"foreignKey:ProfileID"`
	Experiences  []ProfileExperience   `gorm:"foreignKey:ProfileID"`
	Formations   []ProfileFormation    `gorm:"foreignKey:ProfileID"`
	Interests    []ProfileInterest     `gorm:"foreignKey:ProfileID"`
	Languages    []UserProfileLanguage `gorm:"foreignKey:ProfileID"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type ProfileSkill struct {
	ID        int    `gorm:"primaryKey"`
	ProfileID string `gorm:"index;not null"`
	Name      string
	Order     int `gorm:"column:sort_order"`
}

type ProfileExperience struct {
	ID          int    `gorm:"primaryKey"`
	ProfileID   string `gorm:"index;not null"`
	Title       string
	Description string
	Company     string
	Location    string
	StartDate   time.Time
	EndDate     time.Time
}

type ProfileFormation struct {
	ID          int    `gorm:"primaryKey"`
	ProfileID   string `gorm:"index;not null"`
	Title       string
	Description string
	Location    string
	StartDate   time.Time
	EndDate     time.Time
}

type ProfileInterest struct {
	ID        int    `gorm:"primaryKey"`
	ProfileID string `gorm:"index;not null"`
	Name      string
}

type UserProfileLanguage struct {
	ID           int    `gorm:"primaryKey"`
	ProfileID    string `gorm:"index;not null"`
	LanguageCode string `gorm:"not null"`
	Level        string
}
