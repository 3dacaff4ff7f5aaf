package generation

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultGoogleBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GoogleOptions configures the Google generative-language provider.
type GoogleOptions struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Google routes Gemini image models to generateContent and Veo video models
// through predictLongRunning plus operation polling.
type Google struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewGoogle(opts GoogleOptions) *Google {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultGoogleBaseURL
	}
	return &Google{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
	}
}

func (p *Google) Name() string { return "google" }

func (p *Google) Available() bool { return p.apiKey != "" }

func (p *Google) headers() map[string]string {
	return map[string]string{"x-goog-api-key": p.apiKey}
}

var googleVideoModels = map[string]bool{
	"veo":                     true,
	"veo-2":                   true,
	"veo-2.0-generate-exp":    true,
	"veo-3":                   true,
	"veo-3.1":                 true,
	"veo-3.1-generate-preview": true,
}

func (p *Google) Generate(ctx context.Context, req Request) (*Result, error) {
	if !p.Available() {
		return nil, notConfigured("google", "API key missing")
	}

	model := req.Model
	switch model {
	case "nano-banana":
		p.logger.Debug().Str("model", model).Msg("google: aliasing to gemini-2.5-flash-image")
		model = "gemini-2.5-flash-image"
		fallthrough
	case "gemini-2.5-flash-image", "gemini-2.5-flash-image-preview":
		return p.generateImage(ctx, model, req)
	}
	if googleVideoModels[model] {
		return p.generateVideo(ctx, model, req)
	}
	return nil, &UnsupportedModelError{
		Provider: "google",
		Model:    req.Model,
		Supported: []string{
			"gemini-2.5-flash-image", "gemini-2.5-flash-image-preview", "nano-banana",
			"veo", "veo-2", "veo-2.0-generate-exp", "veo-3", "veo-3.1", "veo-3.1-generate-preview",
		},
	}
}

type googleGenerateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text       string `json:"text"`
				InlineData *struct {
					MimeType string `json:"mimeType"`
					Data     string `json:"data"`
				} `json:"inlineData"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (p *Google) generateImage(ctx context.Context, model string, req Request) (*Result, error) {
	parts := []map[string]any{{"text": req.Prompt}}
	refs := extractReferenceImages(req.Parameters)
	for _, ref := range refs {
		parts = append(parts, map[string]any{
			"inline_data": map[string]any{
				"mime_type": ref.MIME,
				"data":      ref.Data,
			},
		})
	}

	body := map[string]any{
		"contents": []map[string]any{
			{"parts": parts},
		},
		"generationConfig": map[string]any{
			"responseModalities": []string{"TEXT", "IMAGE"},
		},
	}
	if paramBool(req.Parameters, "enable_search", false) {
		body["tools"] = []map[string]any{
			{"google_search": map[string]any{}},
		}
	}

	endpoint := p.baseURL + "/models/" + model + ":generateContent"
	status, raw, err := doJSON(ctx, p.httpClient, http.MethodPost, endpoint, p.headers(), body)
	if err != nil {
		return nil, err
	}
	if status >= 300 {
		return nil, &RemoteError{Provider: "google", Status: status, Body: string(raw)}
	}

	var decoded googleGenerateResponse
	if err := decodeJSON(raw, &decoded); err != nil {
		return nil, &MalformedResponseError{Provider: "google", Reason: err.Error()}
	}
	if len(decoded.Candidates) == 0 {
		return nil, &MalformedResponseError{Provider: "google", Reason: "no candidates in response"}
	}

	for _, part := range decoded.Candidates[0].Content.Parts {
		if part.InlineData != nil && part.InlineData.Data != "" {
			mime := part.InlineData.MimeType
			if mime == "" {
				mime = "image/png"
			}
			return &Result{
				OutputData: part.InlineData.Data,
				Metadata: map[string]any{
					"provider":         "google",
					"model":            model,
					"mime":             mime,
					"reference_images": len(refs),
				},
			}, nil
		}
		if part.Text != "" {
			p.logger.Debug().Str("text", part.Text).Msg("google: text part in image response")
		}
	}

	return nil, &MalformedResponseError{Provider: "google", Reason: "no inline image data in response"}
}

type googleOperation struct {
	Name  string `json:"name"`
	Done  bool   `json:"done"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
	Response map[string]any `json:"response"`
	Result   map[string]any `json:"result"`
}

func (p *Google) generateVideo(ctx context.Context, model string, req Request) (*Result, error) {
	params := req.Parameters
	body := map[string]any{
		"instances": []map[string]any{
			{"prompt": req.Prompt},
		},
		"parameters": map[string]any{
			"aspectRatio":     paramString(params, "aspect_ratio", "16:9"),
			"resolution":      paramString(params, "resolution", "720p"),
			"durationSeconds": paramString(params, "duration_seconds", "8"),
		},
	}

	endpoint := p.baseURL + "/models/" + model + ":predictLongRunning"
	status, raw, err := doJSON(ctx, p.httpClient, http.MethodPost, endpoint, p.headers(), body)
	if err != nil {
		return nil, err
	}
	if status >= 300 {
		return nil, &RemoteError{Provider: "google", Status: status, Body: string(raw)}
	}

	var op googleOperation
	if err := decodeJSON(raw, &op); err != nil {
		return nil, &MalformedResponseError{Provider: "google", Reason: err.Error()}
	}
	if op.Name == "" {
		return nil, &MalformedResponseError{Provider: "google", Reason: "no operation name in response"}
	}
	p.logger.Debug().Str("operation", op.Name).Str("model", model).Msg("google: video operation started")

	poller := Poller{
		Initial:     10 * time.Second,
		Step:        5 * time.Second,
		Max:         60 * time.Second,
		MaxAttempts: 60,
		Logger:      p.logger,
	}
	return poller.Wait(ctx, func(ctx context.Context) (bool, *Result, error) {
		return p.pollOperation(ctx, op.Name, model)
	})
}

func (p *Google) pollOperation(ctx context.Context, operation, model string) (bool, *Result, error) {
	status, raw, err := doJSON(ctx, p.httpClient, http.MethodGet, p.baseURL+"/"+operation, p.headers(), nil)
	if err != nil {
		return false, nil, err
	}
	if status >= 300 {
		return false, nil, &RemoteError{Provider: "google", Status: status, Body: string(raw)}
	}

	var op googleOperation
	if err := decodeJSON(raw, &op); err != nil {
		return false, nil, &MalformedResponseError{Provider: "google", Reason: err.Error()}
	}
	if !op.Done {
		return false, nil, nil
	}
	if op.Error != nil {
		return false, nil, &RemoteError{Provider: "google", Status: status, Body: op.Error.Message}
	}

	payload := op.Response
	if payload == nil {
		payload = op.Result
	}
	videoURL := findVideoURL(payload)
	if videoURL == "" {
		return false, nil, &MalformedResponseError{Provider: "google", Reason: "completed operation has no video URL"}
	}

	return true, &Result{
		OutputURL: videoURL,
		Metadata: map[string]any{
			"provider":  "google",
			"model":     model,
			"mime":      "video/mp4",
			"operation": operation,
		},
	}, nil
}

// findVideoURL searches a completed operation payload for the video URI using
// the key variants the Veo API has shipped: predictions[0].videoUri or
// video_uri, then top-level videoUri, video_uri, and output.
func findVideoURL(payload map[string]any) string {
	if payload == nil {
		return ""
	}
	if predictions, ok := payload["predictions"].([]any); ok && len(predictions) > 0 {
		if first, ok := predictions[0].(map[string]any); ok {
			for _, key := range []string{"videoUri", "video_uri"} {
				if u, ok := first[key].(string); ok && u != "" {
					return u
				}
			}
		}
	}
	for _, key := range []string{"videoUri", "video_uri", "output"} {
		if u, ok := payload[key].(string); ok && u != "" {
			return u
		}
	}
	return ""
}

func (p *Google) ConfigSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"api_key": map[string]any{
				"type":        "string",
				"title":       "API Key",
				"description": "Google AI Studio API key",
				"format":      "password",
			},
		},
		"required": []string{"api_key"},
	}
}

var _ Provider = (*Google)(nil)
