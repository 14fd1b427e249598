package events

import "github.com/maxaizer/cv-extractor/internal/entities"

var JobProgressTopic = "job-progress"

type JobProgress struct {
	JobID    string           `json:"jobId"`
	JobType  entities.JobType `json:"jobType"`
	Progress int              `json:"progress"`
}
