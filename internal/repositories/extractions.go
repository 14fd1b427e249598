package repositories

import (
	"context"
	"errors"
	"github.com/google/uuid"
	"github.com/maxaizer/cv-extractor/internal/entities"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Extractions struct {
	db *gorm.DB
}

func NewExtractionsRepository(db *gorm.DB) *Extractions {
	return &Extractions{db: db}
}

func (repo *Extractions) GetByProfile(ctx context.Context, profileID string) (*entities.ExtractionRecord, error) {
	var record entities.ExtractionRecord
	err := repo.db.WithContext(ctx).First(&record, "profile_id = ?", profileID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// Upsert inserts the record or, when the profile already has one, overwrites
// its data, hash and schema version in the same statement.
func (repo *Extractions) Upsert(ctx context.Context, record entities.ExtractionRecord) (*entities.ExtractionRecord, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	err := repo.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "profile_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"extracted_data", "file_hash", "schema_version", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return nil, err
	}

	return repo.GetByProfile(ctx, record.ProfileID)
}

func (repo *Extractions) Count(ctx context.Context, profileID string) (int64, error) {
	var count int64
	err := repo.db.WithContext(ctx).Model(&entities.ExtractionRecord{}).
		Where("profile_id = ?", profileID).Count(&count).Error
	return count, err
}
