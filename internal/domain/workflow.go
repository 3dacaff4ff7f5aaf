package domain

import (
	"encoding/json"
	"time"
)

// Workflow is a top-level project document owned by the UI.
type Workflow struct {
	ID        string
	Name      string
	Type      string
	Data      json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateWorkflowInput carries the fields required to create a workflow.
type CreateWorkflowInput struct {
	Name string          `json:"name"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// UpdateWorkflowInput applies a partial update; nil fields are left untouched.
type UpdateWorkflowInput struct {
	Name *string          `json:"name,omitempty"`
	Data *json.RawMessage `json:"data,omitempty"`
}

// WorkflowVersion is an immutable snapshot of a workflow's data document.
type WorkflowVersion struct {
	ID         int64
	WorkflowID string
	Version    int
	Data       json.RawMessage
	CreatedAt  time.Time
}
