package services

import (
	"context"
	"errors"
	"fmt"
	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/cv-extractor/internal/config"
	"github.com/maxaizer/cv-extractor/internal/entities"
	"github.com/maxaizer/cv-extractor/internal/events"
	"github.com/maxaizer/cv-extractor/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sync"
	"testing"
	"time"
)

var testQueueConfig = config.QueueConfig{
	Workers:      1,
	MaxAttempts:  3,
	BackoffBase:  time.Minute,
	PollInterval: 10 * time.Millisecond,
	Retention:    24 * time.Hour,
}

func newTestQueue(t *testing.T) (*JobQueue, *repositories.Jobs, EventBus.Bus) {
	dbCtx := newTestDbContext(t)
	jobs := repositories.NewJobsRepository(dbCtx.DB)
	bus := EventBus.New()
	return NewJobQueue(jobs, bus, testQueueConfig), jobs, bus
}

var validPayload = entities.ExtractionPayload{ProfileID: "p1", PDFPath: "/uploads/p1.pdf", FileHash: "abc123"}

func Test_JobQueue_Enqueue_WhenPayloadInvalid_ShouldReject(t *testing.T) {

	queue, _, _ := newTestQueue(t)

	_, err := queue.Enqueue(context.Background(), entities.JobTypeCVExtraction,
		entities.ExtractionPayload{PDFPath: "/uploads/p1.pdf", FileHash: "abc123"})

	assert.Error(t, err)
}

func Test_JobQueue_Enqueue_ShouldAcceptAnyDigestFormat(t *testing.T) {

	queue, _, _ := newTestQueue(t)

	job, err := queue.Enqueue(context.Background(), entities.JobTypeCVExtraction,
		entities.ExtractionPayload{ProfileID: "p1", PDFPath: "/uploads/p1.pdf", FileHash: "sha256:q83vEjRWeJA="})

	require.NoError(t, err)
	assert.NotNil(t, job)
}

func Test_JobQueue_ProcessNext_WhenNothingDue_ShouldReportIdle(t *testing.T) {

	queue, _, _ := newTestQueue(t)
	queue.Register(entities.JobTypeCVExtraction, JobHandlerFunc(
		func(ctx context.Context, job *entities.Job, progress ProgressReporter) error { return nil }))

	processed, err := queue.ProcessNext(context.Background())

	require.NoError(t, err)
	assert.False(t, processed)
}

func Test_JobQueue_ProcessNext_WhenHandlerSucceeds_ShouldComplete(t *testing.T) {

	queue, jobs, bus := newTestQueue(t)
	ctx := context.Background()

	var mu sync.Mutex
	var published []int
	require.NoError(t, bus.Subscribe(events.JobProgressTopic, func(p events.JobProgress) {
		mu.Lock()
		defer mu.Unlock()
		published = append(published, p.Progress)
	}))

	queue.Register(entities.JobTypeCVExtraction, JobHandlerFunc(
		func(ctx context.Context, job *entities.Job, progress ProgressReporter) error {
			progress(10)
			progress(50)
			return nil
		}))

	job, err := queue.Enqueue(ctx, entities.JobTypeCVExtraction, validPayload)
	require.NoError(t, err)

	processed, err := queue.ProcessNext(ctx)
	require.NoError(t, err)
	assert.True(t, processed)

	stored, err := jobs.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.JobCompleted, stored.Status)
	assert.Equal(t, 100, stored.Progress)
	assert.Equal(t, 1, stored.Attempts)
	assert.NotNil(t, stored.FinishedAt)
	assert.Equal(t, []int{10, 50}, published)
}

func Test_JobQueue_ProcessNext_WhenHandlerFails_ShouldRetryWithExponentialBackoff(t *testing.T) {

	queue, jobs, _ := newTestQueue(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	queue.now = fixedClock(now)

	queue.Register(entities.JobTypeCVExtraction, JobHandlerFunc(
		func(ctx context.Context, job *entities.Job, progress ProgressReporter) error {
			return errors.New("service unavailable")
		}))

	job, err := queue.Enqueue(ctx, entities.JobTypeCVExtraction, validPayload)
	require.NoError(t, err)

	_, err = queue.ProcessNext(ctx)
	require.NoError(t, err)

	stored, err := jobs.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.JobWaiting, stored.Status)
	assert.Equal(t, "service unavailable", stored.LastError)
	assert.True(t, now.Add(time.Minute).Equal(stored.RunAt))

	queue.now = fixedClock(stored.RunAt)
	_, err = queue.ProcessNext(ctx)
	require.NoError(t, err)

	stored, err = jobs.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Attempts)
	assert.True(t, now.Add(3*time.Minute).Equal(stored.RunAt), "second retry waits twice as long")

	queue.now = fixedClock(stored.RunAt)
	_, err = queue.ProcessNext(ctx)
	require.NoError(t, err)

	stored, err = jobs.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.JobFailed, stored.Status)
	assert.Equal(t, 3, stored.Attempts)
}

func Test_JobQueue_ProcessNext_WhenErrorIsPermanent_ShouldFailWithoutRetry(t *testing.T) {

	queue, jobs, _ := newTestQueue(t)
	ctx := context.Background()

	queue.Register(entities.JobTypeCVExtraction, JobHandlerFunc(
		func(ctx context.Context, job *entities.Job, progress ProgressReporter) error {
			return fmt.Errorf("populate: %w", &ProfileNotFoundError{ProfileID: "p1"})
		}))

	job, err := queue.Enqueue(ctx, entities.JobTypeCVExtraction, validPayload)
	require.NoError(t, err)

	_, err = queue.ProcessNext(ctx)
	require.NoError(t, err)

	stored, err := jobs.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.JobFailed, stored.Status)
	assert.Equal(t, 1, stored.Attempts)
	assert.Contains(t, stored.LastError, "profile p1 not found")
}

func Test_JobQueue_Backoff_ShouldDoubleEachAttempt(t *testing.T) {

	queue, _, _ := newTestQueue(t)

	assert.Equal(t, time.Minute, queue.backoff(1))
	assert.Equal(t, 2*time.Minute, queue.backoff(2))
	assert.Equal(t, 4*time.Minute, queue.backoff(3))
	assert.Equal(t, 512*time.Minute, queue.backoff(10))
}

func Test_JobQueue_Run_ShouldProcessJobsUntilCancelled(t *testing.T) {

	queue, jobs, _ := newTestQueue(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan string, 1)
	queue.Register(entities.JobTypeCVExtraction, JobHandlerFunc(
		func(ctx context.Context, job *entities.Job, progress ProgressReporter) error {
			done <- job.ID
			return nil
		}))

	job, err := queue.Enqueue(ctx, entities.JobTypeCVExtraction, validPayload)
	require.NoError(t, err)

	stopped := make(chan struct{})
	go func() {
		queue.Run(ctx)
		close(stopped)
	}()

	select {
	case ID := <-done:
		assert.Equal(t, job.ID, ID)
	case <-time.After(5 * time.Second):
		t.Fatal("job was not processed")
	}

	cancel()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("queue did not stop")
	}

	stored, err := jobs.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.JobCompleted, stored.Status)
}

func Test_JobQueue_ProcessNext_WhenInterruptedByShutdown_ShouldReleaseJobForImmediateRetry(t *testing.T) {

	queue, jobs, _ := newTestQueue(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	queue.now = fixedClock(now)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue.Register(entities.JobTypeCVExtraction, JobHandlerFunc(
		func(ctx context.Context, job *entities.Job, progress ProgressReporter) error {
			progress(10)
			cancel()
			return errors.New("rpc error: code = Canceled")
		}))

	job, err := queue.Enqueue(ctx, entities.JobTypeCVExtraction, validPayload)
	require.NoError(t, err)

	processed, err := queue.ProcessNext(ctx)
	require.NoError(t, err)
	assert.True(t, processed)

	stored, err := jobs.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.JobWaiting, stored.Status)
	assert.Equal(t, 0, stored.Attempts)
	assert.Equal(t, 0, stored.Progress)
	assert.True(t, now.Equal(stored.RunAt))
}
