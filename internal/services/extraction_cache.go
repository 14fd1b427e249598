package services

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/maxaizer/cv-extractor/internal/entities"
	"github.com/maxaizer/cv-extractor/internal/logger"
	"github.com/maxaizer/cv-extractor/internal/metrics"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

type extractionRepository interface {
	GetByProfile(ctx context.Context, profileID string) (*entities.ExtractionRecord, error)
	Upsert(ctx context.Context, record entities.ExtractionRecord) (*entities.ExtractionRecord, error)
}

// ExtractionCache keeps the last extraction per profile, keyed by file hash and
// schema version. It is the only writer of extraction records.
type ExtractionCache struct {
	records extractionRepository
}

func NewExtractionCache(records extractionRepository) *ExtractionCache {
	return &ExtractionCache{records: records}
}

// ShouldExtract reports whether the file needs a new extraction. Store errors
// count as "yes".
func (c *ExtractionCache) ShouldExtract(ctx context.Context, profileID, fileHash string, schemaVersion int) bool {

	record, err := c.records.GetByProfile(ctx, profileID)
	if err != nil {
		metrics.CacheFailOpenCounter.Inc()
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
			Errorf("extraction cache lookup failed for profile %s, extracting anyway: %v", profileID, err)
		return true
	}

	if record == nil {
		return true
	}

	return record.FileHash != fileHash || record.SchemaVersion < schemaVersion
}

// Get returns the cached extraction or nil when the profile has none.
func (c *ExtractionCache) Get(ctx context.Context, profileID string) (*entities.CVSchema, error) {

	record, err := c.records.GetByProfile(ctx, profileID)
	if err != nil || record == nil {
		return nil, err
	}

	var cv entities.CVSchema
	if err = json.Unmarshal(record.ExtractedData, &cv); err != nil {
		return nil, fmt.Errorf("cached extraction of profile %s is corrupted: %w", profileID, err)
	}
	return &cv, nil
}

func (c *ExtractionCache) Put(ctx context.Context, profileID string, cv *entities.CVSchema,
	fileHash string, schemaVersion int) (*entities.ExtractionRecord, error) {

	data, err := json.Marshal(cv)
	if err != nil {
		return nil, err
	}

	return c.records.Upsert(ctx, entities.ExtractionRecord{
		ProfileID:     profileID,
		ExtractedData: datatypes.JSON(data),
		FileHash:      fileHash,
		SchemaVersion: schemaVersion,
	})
}
