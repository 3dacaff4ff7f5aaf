package handlers

import (
	"net/http"

	"promptcraft/internal/generation"
)

type generateRequest struct {
	Provider   string         `json:"provider"`
	Prompt     string         `json:"prompt"`
	Model      string         `json:"model,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// Generate performs a synchronous generation call, bypassing the job queue.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeBody(r, &req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if req.Provider == "" || req.Prompt == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "provider and prompt are required")
		return
	}
	if req.Model == "" {
		req.Model = "default"
	}
	if req.Parameters == nil {
		req.Parameters = map[string]any{}
	}

	result, err := a.Generation.Generate(r.Context(), req.Provider, generation.Request{
		Prompt:     req.Prompt,
		Model:      req.Model,
		Parameters: req.Parameters,
	})
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, result)
}

type textRequest struct {
	Prompt     string         `json:"prompt"`
	Model      string         `json:"model,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// GenerateText routes a prompt to the text provider and returns the prose
// result.
func (a *App) GenerateText(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := decodeBody(r, &req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if req.Prompt == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "prompt is required")
		return
	}
	if req.Model == "" {
		req.Model = "default"
	}
	if req.Parameters == nil {
		req.Parameters = map[string]any{}
	}

	result, err := a.Generation.Generate(r.Context(), "anthropic", generation.Request{
		Prompt:     req.Prompt,
		Model:      req.Model,
		Parameters: req.Parameters,
	})
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"text": result.OutputData, "metadata": result.Metadata})
}
