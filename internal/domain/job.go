package domain

import (
	"encoding/json"
	"time"
)

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether no further status transitions are allowed.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job is a persisted, queued generation request. The processor is the only
// writer of running/completed/failed and of Result/Error.
type Job struct {
	ID          string
	WorkflowID  string
	SceneID     *string
	Type        string
	Status      JobStatus
	Data        json.RawMessage
	Result      json.RawMessage
	Error       *string
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// CreateJobInput carries the fields required to enqueue a job.
type CreateJobInput struct {
	WorkflowID string          `json:"workflow_id"`
	SceneID    *string         `json:"scene_id,omitempty"`
	Type       string          `json:"type"`
	Data       json.RawMessage `json:"data"`
}

// UpdateJobInput applies a partial update; nil fields are left untouched.
// Status transitions drive started_at/completed_at inside the repository.
type UpdateJobInput struct {
	Status *JobStatus      `json:"status,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *string         `json:"error,omitempty"`
}
