package generation

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIOptions configures the OpenAI provider.
type OpenAIOptions struct {
	APIKey       string
	BaseURL      string
	Organization string
	HTTPClient   *http.Client
	Logger       zerolog.Logger
}

// OpenAI routes DALL-E image models to the synchronous images endpoint and
// Sora video models through the asynchronous videos endpoint plus polling.
type OpenAI struct {
	apiKey       string
	baseURL      string
	organization string
	httpClient   *http.Client
	logger       zerolog.Logger
}

func NewOpenAI(opts OpenAIOptions) *OpenAI {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return &OpenAI{
		apiKey:       strings.TrimSpace(opts.APIKey),
		baseURL:      baseURL,
		organization: strings.TrimSpace(opts.Organization),
		httpClient:   opts.HTTPClient,
		logger:       opts.Logger,
	}
}

func (p *OpenAI) Name() string { return "openai" }

func (p *OpenAI) Available() bool { return p.apiKey != "" }

func (p *OpenAI) headers() map[string]string {
	h := map[string]string{"Authorization": "Bearer " + p.apiKey}
	if p.organization != "" {
		h["OpenAI-Organization"] = p.organization
	}
	return h
}

func (p *OpenAI) Generate(ctx context.Context, req Request) (*Result, error) {
	if !p.Available() {
		return nil, notConfigured("openai", "API key missing")
	}

	switch req.Model {
	case "dall-e-3", "dall-e-2":
		return p.generateImage(ctx, req)
	case "sora-2", "sora-2-pro":
		return p.generateVideo(ctx, req)
	default:
		return nil, &UnsupportedModelError{
			Provider:  "openai",
			Model:     req.Model,
			Supported: []string{"dall-e-3", "dall-e-2", "sora-2", "sora-2-pro"},
		}
	}
}

type openAIImageResponse struct {
	Data []struct {
		URL     string `json:"url"`
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

func (p *OpenAI) generateImage(ctx context.Context, req Request) (*Result, error) {
	params := req.Parameters
	size := paramString(params, "size", "1024x1024")
	quality := paramString(params, "quality", "standard")
	responseFormat := paramString(params, "response_format", "url")

	body := map[string]any{
		"model":           req.Model,
		"prompt":          req.Prompt,
		"n":               1,
		"size":            size,
		"quality":         quality,
		"response_format": responseFormat,
	}

	status, raw, err := doJSON(ctx, p.httpClient, http.MethodPost, p.baseURL+"/images/generations", p.headers(), body)
	if err != nil {
		return nil, err
	}
	if status >= 300 {
		return nil, &RemoteError{Provider: "openai", Status: status, Body: string(raw)}
	}

	var decoded openAIImageResponse
	if err := decodeJSON(raw, &decoded); err != nil {
		return nil, &MalformedResponseError{Provider: "openai", Reason: err.Error()}
	}
	if len(decoded.Data) == 0 {
		return nil, &MalformedResponseError{Provider: "openai", Reason: "no images in response"}
	}

	return &Result{
		OutputURL:  decoded.Data[0].URL,
		OutputData: decoded.Data[0].B64JSON,
		Metadata: map[string]any{
			"provider": "openai",
			"model":    req.Model,
			"mime":     "image/png",
			"size":     size,
			"quality":  quality,
		},
	}, nil
}

type openAIVideoResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (p *OpenAI) generateVideo(ctx context.Context, req Request) (*Result, error) {
	params := req.Parameters
	seconds := paramInt(params, "seconds", 8)
	size := paramString(params, "size", "1280x720")

	body := map[string]any{
		"model":   req.Model,
		"prompt":  req.Prompt,
		"seconds": seconds,
		"size":    size,
	}

	status, raw, err := doJSON(ctx, p.httpClient, http.MethodPost, p.baseURL+"/videos", p.headers(), body)
	if err != nil {
		return nil, err
	}
	if status >= 300 {
		return nil, &RemoteError{Provider: "openai", Status: status, Body: string(raw)}
	}

	var created openAIVideoResponse
	if err := decodeJSON(raw, &created); err != nil {
		return nil, &MalformedResponseError{Provider: "openai", Reason: err.Error()}
	}
	if created.ID == "" {
		return nil, &MalformedResponseError{Provider: "openai", Reason: "no video id in response"}
	}
	p.logger.Debug().Str("video_id", created.ID).Str("model", req.Model).Msg("openai: video job created")

	poller := Poller{
		Initial:     5 * time.Second,
		Step:        5 * time.Second,
		Max:         60 * time.Second,
		MaxAttempts: 60,
		Logger:      p.logger,
	}
	return poller.Wait(ctx, func(ctx context.Context) (bool, *Result, error) {
		return p.pollVideo(ctx, created.ID, req.Model)
	})
}

func (p *OpenAI) pollVideo(ctx context.Context, videoID, model string) (bool, *Result, error) {
	status, raw, err := doJSON(ctx, p.httpClient, http.MethodGet, p.baseURL+"/videos/"+videoID, p.headers(), nil)
	if err != nil {
		return false, nil, err
	}
	if status >= 300 {
		return false, nil, &RemoteError{Provider: "openai", Status: status, Body: string(raw)}
	}

	var video openAIVideoResponse
	if err := decodeJSON(raw, &video); err != nil {
		return false, nil, &MalformedResponseError{Provider: "openai", Reason: err.Error()}
	}

	switch video.Status {
	case "completed":
		return true, &Result{
			OutputURL: p.baseURL + "/videos/" + videoID + "/content",
			Metadata: map[string]any{
				"provider": "openai",
				"model":    model,
				"mime":     "video/mp4",
				"video_id": videoID,
			},
		}, nil
	case "failed":
		reason := "video generation failed"
		if video.Error != nil && video.Error.Message != "" {
			reason = video.Error.Message
		}
		return false, nil, &RemoteError{Provider: "openai", Status: status, Body: reason}
	default:
		return false, nil, nil
	}
}

func (p *OpenAI) ConfigSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"api_key": map[string]any{
				"type":        "string",
				"title":       "API Key",
				"description": "OpenAI API key",
				"format":      "password",
			},
			"organization": map[string]any{
				"type":        "string",
				"title":       "Organization",
				"description": "Optional OpenAI organization ID",
			},
		},
		"required": []string{"api_key"},
	}
}

var _ Provider = (*OpenAI)(nil)
