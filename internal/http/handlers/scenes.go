package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"promptcraft/internal/domain"
)

func (a *App) CreateScene(w http.ResponseWriter, r *http.Request) {
	var input domain.CreateSceneInput
	if err := decodeBody(r, &input); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	input.WorkflowID = chi.URLParam(r, "id")
	if input.Name == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "name is required")
		return
	}

	scene, err := a.Scenes.Create(r.Context(), input)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusCreated, scene)
}

func (a *App) ListScenes(w http.ResponseWriter, r *http.Request) {
	scenes, err := a.Scenes.ListByWorkflow(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": scenes})
}

func (a *App) ListAllScenes(w http.ResponseWriter, r *http.Request) {
	scenes, err := a.Scenes.ListAll(r.Context())
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": scenes})
}

func (a *App) UpdateScene(w http.ResponseWriter, r *http.Request) {
	var input domain.UpdateSceneInput
	if err := decodeBody(r, &input); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	scene, err := a.Scenes.Update(r.Context(), chi.URLParam(r, "sceneID"), input)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, scene)
}

func (a *App) DeleteScene(w http.ResponseWriter, r *http.Request) {
	if err := a.Scenes.Delete(r.Context(), chi.URLParam(r, "sceneID")); err != nil {
		a.domainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
