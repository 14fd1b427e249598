package repositories

import (
	"context"
	"errors"
	"github.com/maxaizer/cv-extractor/internal/entities"
	"gorm.io/gorm"
	"time"
)

const claimAttempts = 3

type Jobs struct {
	db *gorm.DB
}

func NewJobsRepository(db *gorm.DB) *Jobs {
	return &Jobs{db: db}
}

func (repo *Jobs) Add(ctx context.Context, job entities.Job) error {
	return repo.db.WithContext(ctx).Create(&job).Error
}

func (repo *Jobs) GetByID(ctx context.Context, ID string) (*entities.Job, error) {
	var job entities.Job
	if err := repo.db.WithContext(ctx).First(&job, "id = ?", ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// ClaimNext moves the oldest due waiting job of the given types to active and
// returns it, or nil when nothing is due. The conditional update makes the
// claim safe between several processes sharing the database.
func (repo *Jobs) ClaimNext(ctx context.Context, types []entities.JobType, now time.Time) (*entities.Job, error) {

	for i := 0; i < claimAttempts; i++ {
		var candidate entities.Job
		err := repo.db.WithContext(ctx).
			Where("status = ? AND run_at <= ? AND type IN ?", entities.JobWaiting, now, types).
			Order("run_at, created_at").
			First(&candidate).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			return nil, err
		}

		res := repo.db.WithContext(ctx).Model(&entities.Job{}).
			Where("id = ? AND status = ?", candidate.ID, entities.JobWaiting).
			Updates(map[string]any{
				"status":     entities.JobActive,
				"attempts":   gorm.Expr("attempts + 1"),
				"progress":   0,
				"started_at": now,
			})
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			continue // claimed by another worker
		}

		candidate.Status = entities.JobActive
		candidate.Attempts++
		candidate.Progress = 0
		candidate.StartedAt = &now
		return &candidate, nil
	}

	return nil, nil
}

func (repo *Jobs) UpdateProgress(ctx context.Context, ID string, progress int) error {
	return repo.db.WithContext(ctx).Model(&entities.Job{}).Where("id = ?", ID).
		Update("progress", progress).Error
}

func (repo *Jobs) Complete(ctx context.Context, ID string, finishedAt time.Time) error {
	return repo.db.WithContext(ctx).Model(&entities.Job{}).Where("id = ?", ID).
		Updates(map[string]any{
			"status":      entities.JobCompleted,
			"progress":    100,
			"last_error":  "",
			"finished_at": finishedAt,
		}).Error
}

func (repo *Jobs) ScheduleRetry(ctx context.Context, ID string, runAt time.Time, lastError string) error {
	return repo.db.WithContext(ctx).Model(&entities.Job{}).Where("id = ?", ID).
		Updates(map[string]any{
			"status":     entities.JobWaiting,
			"run_at":     runAt,
			"last_error": lastError,
		}).Error
}

func (repo *Jobs) Fail(ctx context.Context, ID string, finishedAt time.Time, lastError string) error {
	return repo.db.WithContext(ctx).Model(&entities.Job{}).Where("id = ?", ID).
		Updates(map[string]any{
			"status":      entities.JobFailed,
			"last_error":  lastError,
			"finished_at": finishedAt,
		}).Error
}

// Release returns an interrupted active job to waiting without consuming the
// attempt it was claimed with.
func (repo *Jobs) Release(ctx context.Context, ID string, runAt time.Time) error {
	return repo.db.WithContext(ctx).Model(&entities.Job{}).
		Where("id = ? AND status = ?", ID, entities.JobActive).
		Updates(map[string]any{
			"status":     entities.JobWaiting,
			"attempts":   gorm.Expr("CASE WHEN attempts > 0 THEN attempts - 1 ELSE 0 END"),
			"progress":   0,
			"run_at":     runAt,
			"started_at": nil,
		}).Error
}

// RequeueStale returns active jobs started before the threshold to the waiting
// state. Such jobs belong to a worker that died mid-attempt.
func (repo *Jobs) RequeueStale(ctx context.Context, startedBefore time.Time, now time.Time) (int64, error) {
	res := repo.db.WithContext(ctx).Model(&entities.Job{}).
		Where("status = ? AND started_at < ?", entities.JobActive, startedBefore).
		Updates(map[string]any{
			"status": entities.JobWaiting,
			"run_at": now,
		})
	return res.RowsAffected, res.Error
}

func (repo *Jobs) RemoveFinished(ctx context.Context, finishedBefore time.Time) (int64, error) {
	res := repo.db.WithContext(ctx).
		Where("status IN ? AND finished_at < ?", []entities.JobStatus{entities.JobCompleted, entities.JobFailed}, finishedBefore).
		Delete(&entities.Job{})
	return res.RowsAffected, res.Error
}
