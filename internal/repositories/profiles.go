package repositories

import (
	"context"
	"errors"
	"github.com/maxaizer/cv-extractor/internal/entities"
	"gorm.io/gorm"
)

// ProfileChanges lists what an extraction writes to a profile. Nil collections
// are left untouched, non-nil ones replace the stored collection.
type ProfileChanges struct {
	Scalars     map[string]any
	Skills      *[]entities.ProfileSkill
	Experiences *[]entities.ProfileExperience
	Formations  *[]entities.ProfileFormation
	Interests   *[]entities.ProfileInterest
	Languages   *[]entities.UserProfileLanguage
}

type Profiles struct {
	db *gorm.DB
}

func NewProfilesRepository(db *gorm.DB) *Profiles {
	return &Profiles{db: db}
}

func (repo *Profiles) Add(ctx context.Context, profile entities.CandidateProfile) error {
	return repo.db.WithContext(ctx).Create(&profile).Error
}

func (repo *Profiles) GetByID(ctx context.Context, ID string) (*entities.CandidateProfile, error) {

	var profile entities.CandidateProfile
	err := repo.db.WithContext(ctx).
		Preload("Skills", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order, id") }).
		Preload("Experiences", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Formations", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Interests", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Languages", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&profile, "id = ?", ID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// ApplyChanges writes changes to the profile in one transaction. Returns
// ErrNotFound when the profile does not exist.
func (repo *Profiles) ApplyChanges(ctx context.Context, ID string, changes ProfileChanges) error {
	return repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {

		var count int64
		if err := tx.Model(&entities.CandidateProfile{}).Where("id = ?", ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}

		if len(changes.Scalars) > 0 {
			if err := tx.Model(&entities.CandidateProfile{}).Where("id = ?", ID).
				Updates(changes.Scalars).Error; err != nil {
				return err
			}
		}

		if err := replaceCollection(tx, ID, changes.Skills); err != nil {
			return err
		}
		if err := replaceCollection(tx, ID, changes.Experiences); err != nil {
			return err
		}
		if err := replaceCollection(tx, ID, changes.Formations); err != nil {
			return err
		}
		if err := replaceCollection(tx, ID, changes.Interests); err != nil {
			return err
		}
		return replaceCollection(tx, ID, changes.Languages)
	})
}

func replaceCollection[T any](tx *gorm.DB, profileID string, items *[]T) error {
	if items == nil {
		return nil
	}

	var model T
	if err := tx.Where("profile_id = ?", profileID).Delete(&model).Error; err != nil {
		return err
	}

	if len(*items) == 0 {
		return nil
	}
	return tx.Create(items).Error
}
