package generation

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

const (
	defaultAnthropicBaseURL = "https://api.anthropic.com"
	anthropicVersion        = "2023-06-01"
	anthropicDefaultModel   = "claude-sonnet-4-20250514"
)

// AnthropicOptions configures the Anthropic text provider.
type AnthropicOptions struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Anthropic generates text through the Messages API. It is the only provider
// whose output is prose rather than media, so its results skip output
// normalization.
type Anthropic struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewAnthropic(opts AnthropicOptions) *Anthropic {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultAnthropicBaseURL
	}
	return &Anthropic{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
	}
}

func (p *Anthropic) Name() string { return "anthropic" }

func (p *Anthropic) Available() bool { return p.apiKey != "" }

type anthropicResponse struct {
	ID         string `json:"id"`
	Model      string `json:"model"`
	StopReason string `json:"stop_reason"`
	Content    []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage map[string]any `json:"usage"`
}

func (p *Anthropic) Generate(ctx context.Context, req Request) (*Result, error) {
	if !p.Available() {
		return nil, notConfigured("anthropic", "API key missing")
	}

	model := req.Model
	if model == "" || model == "default" {
		model = anthropicDefaultModel
	}
	if !strings.HasPrefix(model, "claude-") {
		return nil, &UnsupportedModelError{
			Provider:  "anthropic",
			Model:     req.Model,
			Supported: []string{"claude-*", "default"},
		}
	}

	params := req.Parameters
	maxTokens := paramInt(params, "max_tokens", 4096)
	temperature := paramFloat(params, "temperature", 1.0)

	body := map[string]any{
		"model":       model,
		"max_tokens":  maxTokens,
		"temperature": temperature,
		"messages": []map[string]any{
			{"role": "user", "content": req.Prompt},
		},
	}
	headers := map[string]string{
		"x-api-key":         p.apiKey,
		"anthropic-version": anthropicVersion,
	}

	status, raw, err := doJSON(ctx, p.httpClient, http.MethodPost, p.baseURL+"/v1/messages", headers, body)
	if err != nil {
		return nil, err
	}
	if status >= 300 {
		return nil, &RemoteError{Provider: "anthropic", Status: status, Body: string(raw)}
	}

	var decoded anthropicResponse
	if err := decodeJSON(raw, &decoded); err != nil {
		return nil, &MalformedResponseError{Provider: "anthropic", Reason: err.Error()}
	}

	var text strings.Builder
	for _, block := range decoded.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, &MalformedResponseError{Provider: "anthropic", Reason: "no text content in response"}
	}

	return &Result{
		OutputData: text.String(),
		Metadata: map[string]any{
			"provider":    "anthropic",
			"id":          decoded.ID,
			"model":       decoded.Model,
			"stop_reason": decoded.StopReason,
			"usage":       decoded.Usage,
		},
	}, nil
}

func (p *Anthropic) ConfigSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"api_key": map[string]any{
				"type":        "string",
				"title":       "API Key",
				"description": "Anthropic API key",
				"format":      "password",
			},
		},
		"required": []string{"api_key"},
	}
}

var _ Provider = (*Anthropic)(nil)
