package domain

import (
	"encoding/json"
	"time"
)

// Scene is a unit of a workflow that can carry a generated thumbnail.
type Scene struct {
	ID         string
	WorkflowID string
	Name       string
	Data       json.RawMessage
	Thumbnail  *string
	CreatedAt  time.Time
}

// CreateSceneInput carries the fields required to create a scene.
type CreateSceneInput struct {
	WorkflowID string          `json:"workflow_id"`
	Name       string          `json:"name"`
	Data       json.RawMessage `json:"data"`
	Thumbnail  *string         `json:"thumbnail,omitempty"`
}

// UpdateSceneInput applies a partial update; nil fields are left untouched.
type UpdateSceneInput struct {
	Name      *string          `json:"name,omitempty"`
	Data      *json.RawMessage `json:"data,omitempty"`
	Thumbnail *string          `json:"thumbnail,omitempty"`
}
