package services

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/maxaizer/cv-extractor/internal/entities"
	"github.com/maxaizer/cv-extractor/internal/logger"
	"github.com/maxaizer/cv-extractor/internal/metrics"
	"github.com/maxaizer/cv-extractor/internal/renderer"
	log "github.com/sirupsen/logrus"
	"time"
)

const (
	ProgressStarted   = 10
	ProgressRendered  = 30
	ProgressExtracted = 80
	ProgressPopulated = 90
	ProgressCompleted = 100
)

type pageRenderer interface {
	Render(ctx context.Context, pdfPath string, pages renderer.PageRange) ([]string, error)
}

type cvExtractor interface {
	ExtractCV(ctx context.Context, images []string) (*entities.CVSchema, error)
}

type extractionStore interface {
	Put(ctx context.Context, profileID string, cv *entities.CVSchema, fileHash string,
		schemaVersion int) (*entities.ExtractionRecord, error)
}

type profilePopulator interface {
	Populate(ctx context.Context, profileID string, cv *entities.CVSchema) error
}

type generationNotifier interface {
	NotifyCompleted(jobID, profileID string)
	NotifyFailed(jobID, profileID string, err error)
}

// ExtractionWorker handles cv_extraction jobs: render the PDF, extract the
// résumé, cache the result and write it to the profile.
type ExtractionWorker struct {
	renderer  pageRenderer
	extractor cvExtractor
	cache     extractionStore
	populator profilePopulator
	notifier  generationNotifier
}

func NewExtractionWorker(renderer pageRenderer, extractor cvExtractor, cache extractionStore,
	populator profilePopulator, notifier generationNotifier) *ExtractionWorker {
	return &ExtractionWorker{
		renderer:  renderer,
		extractor: extractor,
		cache:     cache,
		populator: populator,
		notifier:  notifier,
	}
}

// Handle runs one attempt. The failure notification is sent only when the
// queue will not retry the job. Attempts interrupted by shutdown notify nothing.
func (w *ExtractionWorker) Handle(ctx context.Context, job *entities.Job, progress ProgressReporter) error {

	var payload entities.ExtractionPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		err = fmt.Errorf("%w: malformed payload of job %s: %v", ErrPermanent, job.ID, err)
		w.notifier.NotifyFailed(job.ID, "", err)
		return err
	}

	err := w.process(ctx, job.ID, payload, progress)
	if err == nil || IsInterrupted(ctx, err) {
		return err
	}

	if job.IsLastAttempt() || IsPermanent(err) {
		w.notifier.NotifyFailed(job.ID, payload.ProfileID, err)
	}
	return err
}

func (w *ExtractionWorker) process(ctx context.Context, jobID string, payload entities.ExtractionPayload,
	progress ProgressReporter) error {

	progress(ProgressStarted)

	var images []string
	err := measure("render", func() (err error) {
		images, err = w.renderer.Render(ctx, payload.PDFPath, renderer.PageRange{})
		return err
	})
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeRenderer).
			Warnf("job %s: failed to render %s: %v", jobID, payload.PDFPath, err)
		return err
	}
	progress(ProgressRendered)

	var cv *entities.CVSchema
	err = measure("extract", func() (err error) {
		cv, err = w.extractor.ExtractCV(ctx, images)
		return err
	})
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeAiApi).
			Warnf("job %s: extraction failed for profile %s: %v", jobID, payload.ProfileID, err)
		return err
	}
	progress(ProgressExtracted)

	err = measure("cache", func() error {
		_, err := w.cache.Put(ctx, payload.ProfileID, cv, payload.FileHash, entities.CVSchemaVersion)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to cache extraction of profile %s: %w", payload.ProfileID, err)
	}

	err = measure("populate", func() error {
		return w.populator.Populate(ctx, payload.ProfileID, cv)
	})
	if err != nil {
		return err
	}
	progress(ProgressPopulated)

	w.notifier.NotifyCompleted(jobID, payload.ProfileID)
	progress(ProgressCompleted)

	log.Infof("job %s: profile %s populated from %d pages", jobID, payload.ProfileID, len(images))
	return nil
}

func measure(step string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.ExtractionStepDuration.WithLabelValues(step).Observe(time.Since(start).Seconds())
	return err
}
