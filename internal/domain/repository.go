package domain

import "context"

// WorkflowRepository defines persistence for workflow documents.
type WorkflowRepository interface {
	Create(ctx context.Context, input CreateWorkflowInput) (*Workflow, error)
	Get(ctx context.Context, id string) (*Workflow, error)
	List(ctx context.Context) ([]Workflow, error)
	Update(ctx context.Context, id string, input UpdateWorkflowInput) (*Workflow, error)
	Delete(ctx context.Context, id string) error
}

// SceneRepository defines persistence for scenes.
type SceneRepository interface {
	Create(ctx context.Context, input CreateSceneInput) (*Scene, error)
	ListByWorkflow(ctx context.Context, workflowID string) ([]Scene, error)
	ListAll(ctx context.Context) ([]Scene, error)
	Update(ctx context.Context, id string, input UpdateSceneInput) (*Scene, error)
	Delete(ctx context.Context, id string) error
}

// JobRepository defines persistence for the job queue.
type JobRepository interface {
	Create(ctx context.Context, input CreateJobInput) (*Job, error)
	Get(ctx context.Context, id string) (*Job, error)
	ListByWorkflow(ctx context.Context, workflowID string) ([]Job, error)
	// FetchPending returns up to limit pending jobs ordered by creation
	// time ascending.
	FetchPending(ctx context.Context, limit int) ([]Job, error)
	Update(ctx context.Context, id string, input UpdateJobInput) (*Job, error)
	Delete(ctx context.Context, id string) error
}

// VersionRepository defines persistence for workflow version snapshots.
type VersionRepository interface {
	Create(ctx context.Context, workflowID string, data []byte) (*WorkflowVersion, error)
	ListByWorkflow(ctx context.Context, workflowID string) ([]WorkflowVersion, error)
}
