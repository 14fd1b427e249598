package repositories

import (
	"errors"
	"fmt"
	"github.com/glebarez/sqlite"
	"github.com/maxaizer/cv-extractor/internal/config"
	"github.com/maxaizer/cv-extractor/internal/entities"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned by write operations whose target row does not exist.
var ErrNotFound = errors.New("record not found")

type DbContext struct {
	DB *gorm.DB
}

func NewDbContext(cfg config.DBConfig) (*DbContext, error) {

	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.ConnectionString)
	case config.DriverSqlite, "":
		dialector = sqlite.Open(cfg.ConnectionString)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, err
	}

	return &DbContext{DB: db}, nil
}

func (c *DbContext) Migrate() error {
	models := []any{
		entities.Language{},
		entities.CandidateProfile{},
		entities.ProfileSkill{},
		entities.ProfileExperience{},
		entities.ProfileFormation{},
		entities.ProfileInterest{},
		entities.UserProfileLanguage{},
		entities.ExtractionRecord{},
		entities.Job{},
	}

	for _, model := range models {
		if err := c.DB.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T entity: %w", model, err)
		}
	}

	var languagesCount int64
	if err := c.DB.Model(entities.Language{}).Count(&languagesCount).Error; err != nil {
		return fmt.Errorf("failed to count languages: %w", err)
	}

	if languagesCount == 0 {
		if err := c.PopulateLanguages(); err != nil {
			return fmt.Errorf("failed to populate languages: %w", err)
		}
	}

	return nil
}

func (c *DbContext) PopulateLanguages() error {
	languages := make([]entities.Language, 0, len(knownLanguages))
	for code, name := range knownLanguages {
		languages = append(languages, entities.NewLanguage(code, name))
	}

	if err := c.DB.Create(languages).Error; err != nil {
		return fmt.Errorf("failed to create languages in the database: %w", err)
	}
	return nil
}

func (c *DbContext) Close() error {
	db, err := c.DB.DB()
	if err != nil {
		return err
	}

	return db.Close()
}
