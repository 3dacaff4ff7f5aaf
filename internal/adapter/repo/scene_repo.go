package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"promptcraft/internal/domain"
)

// SceneRepositoryPG implements domain.SceneRepository using PostgreSQL.
type SceneRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewSceneRepository constructs a new scene repository instance.
func NewSceneRepository(pool *pgxpool.Pool) *SceneRepositoryPG {
	return &SceneRepositoryPG{pool: pool}
}

// Create inserts a new scene record.
func (r *SceneRepositoryPG) Create(ctx context.Context, input domain.CreateSceneInput) (*domain.Scene, error) {
	query := `
INSERT INTO scenes (id, workflow_id, name, data, thumbnail)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, workflow_id, name, data, thumbnail, created_at;
`
	row := r.pool.QueryRow(ctx, query, uuid.NewString(), input.WorkflowID, input.Name, nullableBytes(input.Data), input.Thumbnail)
	return scanScene(row)
}

// ListByWorkflow returns the scenes of a workflow in creation order.
func (r *SceneRepositoryPG) ListByWorkflow(ctx context.Context, workflowID string) ([]domain.Scene, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, workflow_id, name, data, thumbnail, created_at
FROM scenes
WHERE workflow_id = $1
ORDER BY created_at ASC;
`, workflowID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectScenes(rows)
}

// ListAll returns every scene across workflows.
func (r *SceneRepositoryPG) ListAll(ctx context.Context) ([]domain.Scene, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, workflow_id, name, data, thumbnail, created_at
FROM scenes
ORDER BY created_at ASC;
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectScenes(rows)
}

// Update applies a partial update.
func (r *SceneRepositoryPG) Update(ctx context.Context, id string, input domain.UpdateSceneInput) (*domain.Scene, error) {
	query := `
UPDATE scenes
SET name = COALESCE($2, name),
    data = COALESCE($3, data),
    thumbnail = COALESCE($4, thumbnail)
WHERE id = $1
RETURNING id, workflow_id, name, data, thumbnail, created_at;
`
	var data []byte
	if input.Data != nil {
		data = *input.Data
	}
	return scanScene(r.pool.QueryRow(ctx, query, id, input.Name, nullableBytes(data), input.Thumbnail))
}

// Delete removes a scene.
func (r *SceneRepositoryPG) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM scenes WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanScene(row pgx.Row) (*domain.Scene, error) {
	var s domain.Scene
	if err := row.Scan(&s.ID, &s.WorkflowID, &s.Name, &s.Data, &s.Thumbnail, &s.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func collectScenes(rows pgx.Rows) ([]domain.Scene, error) {
	var scenes []domain.Scene
	for rows.Next() {
		var s domain.Scene
		if err := rows.Scan(&s.ID, &s.WorkflowID, &s.Name, &s.Data, &s.Thumbnail, &s.CreatedAt); err != nil {
			return nil, err
		}
		scenes = append(scenes, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return scenes, nil
}
