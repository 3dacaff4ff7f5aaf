package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (a *App) ListProviders(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"items": a.Generation.ListProviders()})
}

type configureProviderRequest struct {
	APIKey string `json:"api_key,omitempty"`
	APIURL string `json:"api_url,omitempty"`
}

// ConfigureProvider accepts either an API key (remote providers) or an API
// URL (local backends) and rebuilds the named provider with it.
func (a *App) ConfigureProvider(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req configureProviderRequest
	if err := decodeBody(r, &req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	var err error
	switch {
	case req.APIURL != "":
		err = a.Generation.ConfigureLocalProvider(name, req.APIURL)
	case req.APIKey != "":
		err = a.Generation.ConfigureProvider(name, req.APIKey)
	default:
		a.error(w, http.StatusBadRequest, "bad_request", "api_key or api_url is required")
		return
	}
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "configured", "provider": name})
}
