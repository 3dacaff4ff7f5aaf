package generation

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

const defaultGrokBaseURL = "https://api.x.ai/v1"

// GrokOptions configures the xAI Grok image provider.
type GrokOptions struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Grok generates images through the xAI API. Every accepted model routes to
// the single grok-2-image backend; legacy aliases redirect with a note.
type Grok struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewGrok(opts GrokOptions) *Grok {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultGrokBaseURL
	}
	return &Grok{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
	}
}

func (p *Grok) Name() string { return "grok" }

func (p *Grok) Available() bool { return p.apiKey != "" }

type grokImageResponse struct {
	Data []struct {
		URL     string `json:"url"`
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

func (p *Grok) Generate(ctx context.Context, req Request) (*Result, error) {
	if !p.Available() {
		return nil, notConfigured("grok", "API key missing")
	}

	switch req.Model {
	case "grok-2-image", "grok-2-image-1212", "grok-image", "aurora":
	case "grok-1", "grok", "flux":
		p.logger.Info().Str("model", req.Model).Msg("grok: legacy model alias, redirecting to grok-2-image")
	default:
		return nil, &UnsupportedModelError{
			Provider:  "grok",
			Model:     req.Model,
			Supported: []string{"grok-2-image", "grok-2-image-1212", "grok-image", "aurora"},
		}
	}

	params := req.Parameters
	n := paramInt(params, "n", 1)
	if n < 1 {
		n = 1
	} else if n > 10 {
		n = 10
	}
	responseFormat := paramString(params, "response_format", "url")

	body := map[string]any{
		"model":           "grok-2-image",
		"prompt":          req.Prompt,
		"n":               n,
		"response_format": responseFormat,
	}
	headers := map[string]string{"Authorization": "Bearer " + p.apiKey}

	status, raw, err := doJSON(ctx, p.httpClient, http.MethodPost, p.baseURL+"/images/generations", headers, body)
	if err != nil {
		return nil, err
	}
	if status >= 300 {
		return nil, &RemoteError{Provider: "grok", Status: status, Body: string(raw)}
	}

	var decoded grokImageResponse
	if err := decodeJSON(raw, &decoded); err != nil {
		return nil, &MalformedResponseError{Provider: "grok", Reason: err.Error()}
	}
	if len(decoded.Data) == 0 {
		return nil, &MalformedResponseError{Provider: "grok", Reason: "no images in response"}
	}

	return &Result{
		OutputURL:  decoded.Data[0].URL,
		OutputData: decoded.Data[0].B64JSON,
		Metadata: map[string]any{
			"provider": "grok",
			"model":    "grok-2-image",
			"mime":     "image/jpeg",
			"n":        n,
		},
	}, nil
}

func (p *Grok) ConfigSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"api_key": map[string]any{
				"type":        "string",
				"title":       "API Key",
				"description": "xAI API key",
				"format":      "password",
			},
		},
		"required": []string{"api_key"},
	}
}

var _ Provider = (*Grok)(nil)
