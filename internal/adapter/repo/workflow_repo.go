package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"promptcraft/internal/domain"
)

// WorkflowRepositoryPG implements domain.WorkflowRepository using PostgreSQL.
type WorkflowRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewWorkflowRepository constructs a new workflow repository instance.
func NewWorkflowRepository(pool *pgxpool.Pool) *WorkflowRepositoryPG {
	return &WorkflowRepositoryPG{pool: pool}
}

// Create inserts a new workflow record.
func (r *WorkflowRepositoryPG) Create(ctx context.Context, input domain.CreateWorkflowInput) (*domain.Workflow, error) {
	query := `
INSERT INTO workflows (id, name, type, data)
VALUES ($1, $2, $3, $4)
RETURNING id, name, type, data, created_at, updated_at;
`
	row := r.pool.QueryRow(ctx, query, uuid.NewString(), input.Name, input.Type, nullableBytes(input.Data))
	return scanWorkflow(row)
}

// Get fetches a workflow by its identifier.
func (r *WorkflowRepositoryPG) Get(ctx context.Context, id string) (*domain.Workflow, error) {
	query := `
SELECT id, name, type, data, created_at, updated_at
FROM workflows
WHERE id = $1;
`
	return scanWorkflow(r.pool.QueryRow(ctx, query, id))
}

// List returns all workflows, most recently updated first.
func (r *WorkflowRepositoryPG) List(ctx context.Context) ([]domain.Workflow, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, name, type, data, created_at, updated_at
FROM workflows
ORDER BY updated_at DESC;
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workflows []domain.Workflow
	for rows.Next() {
		var w domain.Workflow
		if err := rows.Scan(&w.ID, &w.Name, &w.Type, &w.Data, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		workflows = append(workflows, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return workflows, nil
}

// Update applies a partial update and bumps updated_at.
func (r *WorkflowRepositoryPG) Update(ctx context.Context, id string, input domain.UpdateWorkflowInput) (*domain.Workflow, error) {
	query := `
UPDATE workflows
SET name = COALESCE($2, name),
    data = COALESCE($3, data),
    updated_at = NOW()
WHERE id = $1
RETURNING id, name, type, data, created_at, updated_at;
`
	var data []byte
	if input.Data != nil {
		data = *input.Data
	}
	return scanWorkflow(r.pool.QueryRow(ctx, query, id, input.Name, nullableBytes(data)))
}

// Delete removes a workflow; scenes, jobs and versions cascade in the schema.
func (r *WorkflowRepositoryPG) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM workflows WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanWorkflow(row pgx.Row) (*domain.Workflow, error) {
	var w domain.Workflow
	if err := row.Scan(&w.ID, &w.Name, &w.Type, &w.Data, &w.CreatedAt, &w.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

func nullableBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}
