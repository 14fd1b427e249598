package repositories

import (
	"context"
	"errors"
	"github.com/maxaizer/cv-extractor/internal/entities"
	"gorm.io/gorm"
)

type Languages struct {
	db *gorm.DB
}

func NewLanguagesRepository(db *gorm.DB) *Languages {
	return &Languages{db: db}
}

// GetByCode resolves either an ISO code or a language name. Returns nil when
// nothing matches.
func (repo *Languages) GetByCode(ctx context.Context, value string) (*entities.Language, error) {

	var language entities.Language
	key := entities.NormalizeLanguageKey(value)
	if key == "" {
		return nil, nil
	}

	err := repo.db.WithContext(ctx).
		Where("code = ? OR normalized_name = ?", key, key).
		First(&language).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &language, nil
}
