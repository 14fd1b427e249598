package services

import (
	"context"
	"fmt"
	"github.com/maxaizer/cv-extractor/internal/entities"
	log "github.com/sirupsen/logrus"
)

type jobEnqueuer interface {
	Enqueue(ctx context.Context, jobType entities.JobType, payload any) (*entities.Job, error)
}

type extractionCache interface {
	ShouldExtract(ctx context.Context, profileID, fileHash string, schemaVersion int) bool
	Get(ctx context.Context, profileID string) (*entities.CVSchema, error)
}

// ExtractionService is the entry point used by upload handlers and the CLI.
type ExtractionService struct {
	queue     jobEnqueuer
	cache     extractionCache
	populator profilePopulator
}

func NewExtractionService(queue jobEnqueuer, cache extractionCache, populator profilePopulator) *ExtractionService {
	return &ExtractionService{queue: queue, cache: cache, populator: populator}
}

// RequestExtraction enqueues an extraction of the PDF unless the same file was
// already extracted with the current schema. It returns nil job in that case.
func (s *ExtractionService) RequestExtraction(ctx context.Context, profileID, pdfPath string,
	force bool) (*entities.Job, error) {

	fileHash, err := HashFile(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to hash %s: %w", pdfPath, err)
	}

	if !force && !s.cache.ShouldExtract(ctx, profileID, fileHash, entities.CVSchemaVersion) {
		log.Infof("profile %s already extracted from file %s, skipping", profileID, fileHash)
		return nil, nil
	}

	return s.queue.Enqueue(ctx, entities.JobTypeCVExtraction, entities.ExtractionPayload{
		ProfileID: profileID,
		PDFPath:   pdfPath,
		FileHash:  fileHash,
	})
}

// RepopulateFromCache writes the cached extraction to the profile again
// without rendering or calling the AI.
func (s *ExtractionService) RepopulateFromCache(ctx context.Context, profileID string) error {

	cv, err := s.cache.Get(ctx, profileID)
	if err != nil {
		return err
	}
	if cv == nil {
		return ErrNoCachedExtraction
	}

	return s.populator.Populate(ctx, profileID, cv)
}
