package generation

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// InvokeAIOptions configures the InvokeAI provider.
type InvokeAIOptions struct {
	APIURL     string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// InvokeAI speaks the InvokeAI v3+ generate endpoint. Synchronous: one POST,
// image URL or inline data in the response.
type InvokeAI struct {
	apiURL     string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewInvokeAI constructs the provider; an empty APIURL yields an unconfigured
// placeholder.
func NewInvokeAI(opts InvokeAIOptions) *InvokeAI {
	return &InvokeAI{
		apiURL:     strings.TrimRight(strings.TrimSpace(opts.APIURL), "/"),
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
	}
}

func (p *InvokeAI) Name() string { return "invokeai" }

func (p *InvokeAI) Available() bool { return p.apiURL != "" }

type invokeAIResponse struct {
	Image struct {
		URL  string `json:"url"`
		Data string `json:"data"`
	} `json:"image"`
}

func (p *InvokeAI) Generate(ctx context.Context, req Request) (*Result, error) {
	if !p.Available() {
		return nil, notConfigured("invokeai", "API URL missing")
	}

	params := req.Parameters
	model := paramString(params, "model", "")
	if model == "" {
		return nil, errors.New("invokeai: model required in parameters")
	}
	negativePrompt := paramString(params, "negative_prompt", "")
	steps := paramInt(params, "steps", 20)
	cfgScale := paramFloat(params, "cfg_scale", 7.0)
	width := paramInt(params, "width", 512)
	height := paramInt(params, "height", 512)
	sampler := paramString(params, "sampler", "euler")
	seed := paramInt(params, "seed", -1)

	body := map[string]any{
		"model":           model,
		"prompt":          req.Prompt,
		"negative_prompt": negativePrompt,
		"steps":           steps,
		"cfg_scale":       cfgScale,
		"width":           width,
		"height":          height,
		"scheduler":       sampler,
		"seed":            seed,
	}

	status, raw, err := doJSON(ctx, p.httpClient, http.MethodPost, p.apiURL+"/api/v1/generate", nil, body)
	if err != nil {
		return nil, err
	}
	if status >= 300 {
		return nil, &RemoteError{Provider: "invokeai", Status: status, Body: string(raw)}
	}

	var decoded invokeAIResponse
	if err := decodeJSON(raw, &decoded); err != nil {
		return nil, &MalformedResponseError{Provider: "invokeai", Reason: err.Error()}
	}

	return &Result{
		OutputURL:  decoded.Image.URL,
		OutputData: decoded.Image.Data,
		Metadata: map[string]any{
			"provider": "invokeai",
			"mime":     "image/png",
			"parameters": map[string]any{
				"prompt":          req.Prompt,
				"negative_prompt": negativePrompt,
				"model":           model,
				"steps":           steps,
				"cfg_scale":       cfgScale,
				"width":           width,
				"height":          height,
				"sampler":         sampler,
				"seed":            seed,
			},
		},
	}, nil
}

func (p *InvokeAI) ConfigSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"api_url": map[string]any{
				"type":        "string",
				"title":       "API URL",
				"description": "InvokeAI API URL",
				"default":     "http://127.0.0.1:9090",
			},
		},
		"required": []string{"api_url"},
	}
}

var _ Provider = (*InvokeAI)(nil)
