package services

import (
	"context"
	"github.com/maxaizer/cv-extractor/internal/logger"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"time"
)

type jobCleanupRepository interface {
	RemoveFinished(ctx context.Context, finishedBefore time.Time) (int64, error)
}

type QueueCleaner struct {
	jobs      jobCleanupRepository
	cron      *cron.Cron
	retention time.Duration
}

func NewQueueCleaner(jobs jobCleanupRepository, retention time.Duration) (*QueueCleaner, error) {

	if retention <= 0 {
		return nil, errors.New("retention must be greater than zero")
	}

	qc := &QueueCleaner{
		jobs:      jobs,
		cron:      cron.New(),
		retention: retention,
	}

	_, err := qc.cron.AddFunc("0 0 * * *", qc.removeFinishedJobs)
	if err != nil {
		return nil, err
	}

	qc.cron.Start()
	log.Infof("queue cleaner started, retention: %v", qc.retention)
	return qc, nil
}

func (qc *QueueCleaner) Stop() {
	qc.cron.Stop()
}

func (qc *QueueCleaner) removeFinishedJobs() {
	finishedBefore := time.Now().UTC().Add(-qc.retention)
	rowsAffected, err := qc.jobs.RemoveFinished(context.Background(), finishedBefore)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to remove finished jobs: %v", err)
	} else {
		log.Infof("finished jobs removed at %v, affected rows: %v", time.Now(), rowsAffected)
	}
}
