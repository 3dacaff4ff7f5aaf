package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"promptcraft/internal/domain"
)

type enqueueGenerationRequest struct {
	WorkflowID string          `json:"workflow_id"`
	SceneID    *string         `json:"scene_id,omitempty"`
	Provider   string          `json:"provider"`
	Prompt     string          `json:"prompt"`
	Model      string          `json:"model,omitempty"`
	Parameters json.RawMessage `json:"parameters,omitempty"`
}

// EnqueueGeneration persists a pending generation job for the background
// processor to pick up.
func (a *App) EnqueueGeneration(w http.ResponseWriter, r *http.Request) {
	var req enqueueGenerationRequest
	if err := decodeBody(r, &req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if req.WorkflowID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "workflow_id is required")
		return
	}
	if req.Provider == "" || req.Prompt == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "provider and prompt are required")
		return
	}

	data, err := json.Marshal(map[string]any{
		"provider":   req.Provider,
		"prompt":     req.Prompt,
		"model":      req.Model,
		"parameters": req.Parameters,
	})
	if err != nil {
		a.domainError(w, err)
		return
	}

	job, err := a.Jobs.Create(r.Context(), domain.CreateJobInput{
		WorkflowID: req.WorkflowID,
		SceneID:    req.SceneID,
		Type:       "generation",
		Data:       data,
	})
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusAccepted, job)
}

func (a *App) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := a.Jobs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, job)
}

func (a *App) ListWorkflowJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := a.Jobs.ListByWorkflow(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": jobs})
}

func (a *App) DeleteJob(w http.ResponseWriter, r *http.Request) {
	if err := a.Jobs.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.domainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
