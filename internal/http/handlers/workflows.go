package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"promptcraft/internal/domain"
)

func (a *App) CreateWorkflow(w http.ResponseWriter, r *http.Request) {
	var input domain.CreateWorkflowInput
	if err := decodeBody(r, &input); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if input.Name == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "name is required")
		return
	}
	if input.Type == "" {
		input.Type = "storyboard"
	}

	workflow, err := a.Workflows.Create(r.Context(), input)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusCreated, workflow)
}

func (a *App) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	workflow, err := a.Workflows.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, workflow)
}

func (a *App) ListWorkflows(w http.ResponseWriter, r *http.Request) {
	workflows, err := a.Workflows.List(r.Context())
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": workflows})
}

// UpdateWorkflow applies a partial update and snapshots the previous data
// document as a new version when the data changes.
func (a *App) UpdateWorkflow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var input domain.UpdateWorkflowInput
	if err := decodeBody(r, &input); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	if input.Data != nil {
		current, err := a.Workflows.Get(r.Context(), id)
		if err != nil {
			a.domainError(w, err)
			return
		}
		if len(current.Data) > 0 {
			if _, err := a.Versions.Create(r.Context(), id, current.Data); err != nil {
				a.Logger.Warn().Err(err).Str("workflow_id", id).Msg("http: version snapshot failed")
			}
		}
	}

	workflow, err := a.Workflows.Update(r.Context(), id, input)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, workflow)
}

func (a *App) DeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	if err := a.Workflows.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.domainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) ListWorkflowVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := a.Versions.ListByWorkflow(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": versions})
}
