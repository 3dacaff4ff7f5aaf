package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"promptcraft/internal/domain"
)

// JobRepositoryPG implements domain.JobRepository using PostgreSQL.
type JobRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewJobRepository constructs a new job repository instance.
func NewJobRepository(pool *pgxpool.Pool) *JobRepositoryPG {
	return &JobRepositoryPG{pool: pool}
}

const jobColumns = `id, workflow_id, scene_id, type, status, data, result, error_message, created_at, started_at, completed_at`

// Create enqueues a new pending job.
func (r *JobRepositoryPG) Create(ctx context.Context, input domain.CreateJobInput) (*domain.Job, error) {
	query := `
INSERT INTO jobs (id, workflow_id, scene_id, type, status, data)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + jobColumns + `;
`
	row := r.pool.QueryRow(ctx, query,
		uuid.NewString(),
		input.WorkflowID,
		input.SceneID,
		input.Type,
		domain.JobStatusPending,
		nullableBytes(input.Data),
	)
	return scanJob(row)
}

// Get fetches a job by its identifier.
func (r *JobRepositoryPG) Get(ctx context.Context, id string) (*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1;`
	return scanJob(r.pool.QueryRow(ctx, query, id))
}

// ListByWorkflow returns a workflow's jobs, newest first.
func (r *JobRepositoryPG) ListByWorkflow(ctx context.Context, workflowID string) ([]domain.Job, error) {
	rows, err := r.pool.Query(ctx, `
SELECT `+jobColumns+`
FROM jobs
WHERE workflow_id = $1
ORDER BY created_at DESC;
`, workflowID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectJobs(rows)
}

// FetchPending returns up to limit pending jobs in creation order.
func (r *JobRepositoryPG) FetchPending(ctx context.Context, limit int) ([]domain.Job, error) {
	rows, err := r.pool.Query(ctx, `
SELECT `+jobColumns+`
FROM jobs
WHERE status = $1
ORDER BY created_at ASC
LIMIT $2;
`, domain.JobStatusPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectJobs(rows)
}

// Update applies a partial update. Moving to running stamps started_at once;
// moving to a terminal status stamps completed_at.
func (r *JobRepositoryPG) Update(ctx context.Context, id string, input domain.UpdateJobInput) (*domain.Job, error) {
	query := `
UPDATE jobs
SET status = COALESCE($2, status),
    result = COALESCE($3, result),
    error_message = COALESCE($4, error_message),
    started_at = CASE WHEN $2 = 'running' THEN COALESCE(started_at, NOW()) ELSE started_at END,
    completed_at = CASE WHEN $2 IN ('completed', 'failed') THEN NOW() ELSE completed_at END
WHERE id = $1
RETURNING ` + jobColumns + `;
`
	var status *string
	if input.Status != nil {
		s := string(*input.Status)
		status = &s
	}
	return scanJob(r.pool.QueryRow(ctx, query, id, status, nullableBytes(input.Result), input.Error))
}

// Delete removes a job.
func (r *JobRepositoryPG) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanJob(row pgx.Row) (*domain.Job, error) {
	var j domain.Job
	if err := row.Scan(
		&j.ID,
		&j.WorkflowID,
		&j.SceneID,
		&j.Type,
		&j.Status,
		&j.Data,
		&j.Result,
		&j.Error,
		&j.CreatedAt,
		&j.StartedAt,
		&j.CompletedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &j, nil
}

func collectJobs(rows pgx.Rows) ([]domain.Job, error) {
	var jobs []domain.Job
	for rows.Next() {
		var j domain.Job
		if err := rows.Scan(
			&j.ID,
			&j.WorkflowID,
			&j.SceneID,
			&j.Type,
			&j.Status,
			&j.Data,
			&j.Result,
			&j.Error,
			&j.CreatedAt,
			&j.StartedAt,
			&j.CompletedAt,
		); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return jobs, nil
}
