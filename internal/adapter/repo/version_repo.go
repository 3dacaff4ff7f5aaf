package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"promptcraft/internal/domain"
)

// VersionRepositoryPG implements domain.VersionRepository using PostgreSQL.
type VersionRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewVersionRepository constructs a new version repository instance.
func NewVersionRepository(pool *pgxpool.Pool) *VersionRepositoryPG {
	return &VersionRepositoryPG{pool: pool}
}

// Create snapshots a workflow's data document under the next version number.
func (r *VersionRepositoryPG) Create(ctx context.Context, workflowID string, data []byte) (*domain.WorkflowVersion, error) {
	query := `
INSERT INTO workflow_versions (workflow_id, version, data)
VALUES ($1, (SELECT COALESCE(MAX(version), 0) + 1 FROM workflow_versions WHERE workflow_id = $1), $2)
RETURNING id, workflow_id, version, data, created_at;
`
	var v domain.WorkflowVersion
	if err := r.pool.QueryRow(ctx, query, workflowID, nullableBytes(data)).Scan(
		&v.ID, &v.WorkflowID, &v.Version, &v.Data, &v.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

// ListByWorkflow returns a workflow's snapshots, newest version first.
func (r *VersionRepositoryPG) ListByWorkflow(ctx context.Context, workflowID string) ([]domain.WorkflowVersion, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, workflow_id, version, data, created_at
FROM workflow_versions
WHERE workflow_id = $1
ORDER BY version DESC;
`, workflowID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []domain.WorkflowVersion
	for rows.Next() {
		var v domain.WorkflowVersion
		if err := rows.Scan(&v.ID, &v.WorkflowID, &v.Version, &v.Data, &v.CreatedAt); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return versions, nil
}
