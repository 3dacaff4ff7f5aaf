package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"promptcraft/internal/domain"
	"promptcraft/internal/generation"
)

// App bundles the handler dependencies.
type App struct {
	Workflows  domain.WorkflowRepository
	Scenes     domain.SceneRepository
	Jobs       domain.JobRepository
	Versions   domain.VersionRepository
	Generation *generation.Service
	Logger     zerolog.Logger
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, kind, message string) {
	a.json(w, code, map[string]string{"error": kind, "message": message})
}

// domainError maps repository and generation errors onto HTTP responses.
func (a *App) domainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, generation.ErrProviderNotFound), errors.Is(err, generation.ErrUnknownProvider):
		a.error(w, http.StatusNotFound, "provider_not_found", err.Error())
	case errors.Is(err, generation.ErrNotConfigured):
		a.error(w, http.StatusConflict, "provider_not_configured", err.Error())
	default:
		a.Logger.Error().Err(err).Msg("http: request failed")
		a.error(w, http.StatusInternalServerError, "internal", err.Error())
	}
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.New("invalid payload")
	}
	return nil
}
