package services

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/asaskevich/EventBus"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/maxaizer/cv-extractor/internal/config"
	"github.com/maxaizer/cv-extractor/internal/entities"
	"github.com/maxaizer/cv-extractor/internal/events"
	"github.com/maxaizer/cv-extractor/internal/logger"
	"github.com/maxaizer/cv-extractor/internal/metrics"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"sync"
	"time"
)

const maxBackoffShift = 20

type jobRepository interface {
	Add(ctx context.Context, job entities.Job) error
	ClaimNext(ctx context.Context, types []entities.JobType, now time.Time) (*entities.Job, error)
	UpdateProgress(ctx context.Context, ID string, progress int) error
	Complete(ctx context.Context, ID string, finishedAt time.Time) error
	ScheduleRetry(ctx context.Context, ID string, runAt time.Time, lastError string) error
	Fail(ctx context.Context, ID string, finishedAt time.Time, lastError string) error
	Release(ctx context.Context, ID string, runAt time.Time) error
	RequeueStale(ctx context.Context, startedBefore time.Time, now time.Time) (int64, error)
}

// ProgressReporter records the completion percentage of the running attempt.
type ProgressReporter func(progress int)

type JobHandler interface {
	Handle(ctx context.Context, job *entities.Job, progress ProgressReporter) error
}

type JobHandlerFunc func(ctx context.Context, job *entities.Job, progress ProgressReporter) error

func (f JobHandlerFunc) Handle(ctx context.Context, job *entities.Job, progress ProgressReporter) error {
	return f(ctx, job, progress)
}

// JobQueue is a durable queue backed by the jobs table. Any number of
// processes may run it against the same database.
type JobQueue struct {
	jobs         jobRepository
	bus          EventBus.Bus
	validate     *validator.Validate
	handlers     map[entities.JobType]JobHandler
	workers      int
	maxAttempts  int
	backoffBase  time.Duration
	pollInterval time.Duration
	staleAfter   time.Duration
	now          func() time.Time
}

func NewJobQueue(jobs jobRepository, bus EventBus.Bus, cfg config.QueueConfig) *JobQueue {
	return &JobQueue{
		jobs:         jobs,
		bus:          bus,
		validate:     validator.New(),
		handlers:     map[entities.JobType]JobHandler{},
		workers:      cfg.Workers,
		maxAttempts:  cfg.MaxAttempts,
		backoffBase:  cfg.BackoffBase,
		pollInterval: cfg.PollInterval,
		staleAfter:   time.Hour,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Register must be called before Run. Jobs of unregistered types may still be
// enqueued and are left for a process that handles them.
func (q *JobQueue) Register(jobType entities.JobType, handler JobHandler) {
	q.handlers[jobType] = handler
}

func (q *JobQueue) Enqueue(ctx context.Context, jobType entities.JobType, payload any) (*entities.Job, error) {

	if err := q.validate.Struct(payload); err != nil {
		return nil, fmt.Errorf("invalid %s payload: %w", jobType, err)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	job := entities.Job{
		ID:          uuid.NewString(),
		Type:        jobType,
		Payload:     datatypes.JSON(data),
		Status:      entities.JobWaiting,
		MaxAttempts: q.maxAttempts,
		RunAt:       q.now(),
	}
	if err = q.jobs.Add(ctx, job); err != nil {
		return nil, err
	}

	log.Infof("enqueued %s job %s", jobType, job.ID)
	return &job, nil
}

// Run processes jobs with the configured number of slots until ctx is done.
func (q *JobQueue) Run(ctx context.Context) {

	now := q.now()
	requeued, err := q.jobs.RequeueStale(ctx, now.Add(-q.staleAfter), now)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to requeue stale jobs: %v", err)
	} else if requeued > 0 {
		log.Warnf("requeued %d stale jobs", requeued)
	}

	log.Infof("job queue started with %d workers", q.workers)

	var wg sync.WaitGroup
	for i := 0; i < q.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.runSlot(ctx)
		}()
	}
	wg.Wait()

	log.Info("job queue stopped")
}

func (q *JobQueue) runSlot(ctx context.Context) {
	for {
		processed, err := q.ProcessNext(ctx)
		if err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeQueue).Errorf("failed to process job: %v", err)
		}
		if processed && err == nil {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(q.pollInterval):
		}
	}
}

// ProcessNext runs a single due job attempt. It reports false when nothing was
// due. A handler error is recorded on the job, the returned error only covers
// the queue bookkeeping.
func (q *JobQueue) ProcessNext(ctx context.Context) (bool, error) {

	if ctx.Err() != nil {
		return false, nil
	}

	job, err := q.jobs.ClaimNext(ctx, lo.Keys(q.handlers), q.now())
	if err != nil {
		return false, fmt.Errorf("failed to claim job: %w", err)
	}
	if job == nil {
		return false, nil
	}

	log.Infof("running %s job %s, attempt %d/%d", job.Type, job.ID, job.Attempts, job.MaxAttempts)

	startTime := time.Now()
	handlerErr := q.handlers[job.Type].Handle(ctx, job, q.progressReporter(ctx, job))

	// bookkeeping must survive shutdown
	storeCtx := context.WithoutCancel(ctx)

	var outcome string
	if IsInterrupted(ctx, handlerErr) {
		outcome, err = "interrupted", q.jobs.Release(storeCtx, job.ID, q.now())
		log.Warnf("%s job %s interrupted by shutdown, returned to the queue: %v", job.Type, job.ID, handlerErr)
	} else {
		outcome, err = q.finish(storeCtx, job, handlerErr)
	}

	metrics.JobDuration.WithLabelValues(string(job.Type), outcome).Observe(time.Since(startTime).Seconds())
	metrics.JobsCounter.WithLabelValues(string(job.Type), outcome).Inc()

	return true, err
}

func (q *JobQueue) finish(ctx context.Context, job *entities.Job, handlerErr error) (string, error) {

	now := q.now()

	if handlerErr == nil {
		log.Infof("%s job %s completed", job.Type, job.ID)
		return "completed", q.jobs.Complete(ctx, job.ID, now)
	}

	if IsPermanent(handlerErr) || job.IsLastAttempt() {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeQueue).
			Errorf("%s job %s failed after %d attempts: %v", job.Type, job.ID, job.Attempts, handlerErr)
		return "failed", q.jobs.Fail(ctx, job.ID, now, handlerErr.Error())
	}

	runAt := now.Add(q.backoff(job.Attempts))
	log.Warnf("%s job %s attempt %d failed, retrying at %v: %v", job.Type, job.ID, job.Attempts, runAt, handlerErr)
	return "retried", q.jobs.ScheduleRetry(ctx, job.ID, runAt, handlerErr.Error())
}

// backoff returns base * 2^(attempts-1).
func (q *JobQueue) backoff(attempts int) time.Duration {
	shift := min(max(attempts-1, 0), maxBackoffShift)
	return q.backoffBase * time.Duration(1<<shift)
}

func (q *JobQueue) progressReporter(ctx context.Context, job *entities.Job) ProgressReporter {
	return func(progress int) {
		job.Progress = progress
		if err := q.jobs.UpdateProgress(context.WithoutCancel(ctx), job.ID, progress); err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
				Errorf("failed to save progress of job %s: %v", job.ID, err)
		}
		q.bus.Publish(events.JobProgressTopic, events.JobProgress{JobID: job.ID, JobType: job.Type, Progress: progress})
	}
}
