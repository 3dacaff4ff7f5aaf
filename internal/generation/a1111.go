package generation

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// A1111Options configures the Automatic1111 Stable Diffusion WebUI provider.
type A1111Options struct {
	APIURL     string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// A1111 speaks the Automatic1111 WebUI txt2img/img2img API. It is a local
// synchronous backend: one POST, base64 images in the response.
type A1111 struct {
	apiURL     string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewA1111 constructs the provider. An empty APIURL yields an unconfigured
// placeholder whose name is still discoverable.
func NewA1111(opts A1111Options) *A1111 {
	return &A1111{
		apiURL:     strings.TrimRight(strings.TrimSpace(opts.APIURL), "/"),
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
	}
}

func (p *A1111) Name() string { return "a1111" }

func (p *A1111) Available() bool { return p.apiURL != "" }

type a1111Response struct {
	Images []string `json:"images"`
	Info   string   `json:"info"`
}

// Generate routes every model value to the single image path: the checkpoint
// lives in parameters["model"], not in the request-level model field.
func (p *A1111) Generate(ctx context.Context, req Request) (*Result, error) {
	if !p.Available() {
		return nil, notConfigured("a1111", "API URL missing")
	}

	params := req.Parameters
	negativePrompt := paramString(params, "negative_prompt", "")
	steps := paramInt(params, "steps", 20)
	cfgScale := paramFloat(params, "cfg_scale", 7.0)
	width := paramInt(params, "width", 512)
	height := paramInt(params, "height", 512)
	sampler := paramString(params, "sampler", "Euler a")
	seed := paramInt(params, "seed", -1)

	body := map[string]any{
		"prompt":          req.Prompt,
		"negative_prompt": negativePrompt,
		"steps":           steps,
		"cfg_scale":       cfgScale,
		"width":           width,
		"height":          height,
		"sampler_name":    sampler,
		"seed":            seed,
		"n_iter":          1,
		"batch_size":      1,
	}
	if checkpoint := paramString(params, "model", ""); checkpoint != "" {
		body["override_settings"] = map[string]any{"sd_model_checkpoint": checkpoint}
	}

	endpoint := p.apiURL + "/sdapi/v1/txt2img"
	if ref := extractReferenceImage(params); ref != nil {
		refParams := referenceImageParams(params)
		body["init_images"] = []string{ref.Data}
		body["denoising_strength"] = refParams.DenoisingStrength
		body["resize_mode"] = resizeModeIndex(refParams.ResizeMode)
		endpoint = p.apiURL + "/sdapi/v1/img2img"
		p.logger.Debug().Str("mime", ref.MIME).Msg("a1111: using img2img with reference image")
	}

	status, raw, err := doJSON(ctx, p.httpClient, http.MethodPost, endpoint, nil, body)
	if err != nil {
		return nil, err
	}
	if status >= 300 {
		return nil, &RemoteError{Provider: "a1111", Status: status, Body: string(raw)}
	}

	var decoded a1111Response
	if err := decodeJSON(raw, &decoded); err != nil {
		return nil, &MalformedResponseError{Provider: "a1111", Reason: err.Error()}
	}
	if len(decoded.Images) == 0 {
		return nil, &MalformedResponseError{Provider: "a1111", Reason: "no images in response"}
	}

	return &Result{
		OutputData: decoded.Images[0],
		Metadata: map[string]any{
			"provider": "a1111",
			"mime":     "image/png",
			"info":     decoded.Info,
			"parameters": map[string]any{
				"prompt":          req.Prompt,
				"negative_prompt": negativePrompt,
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

// resizeModeIndex maps the extractor's symbolic resize mode onto the WebUI's
// numeric enum (0=just resize, 1=crop and resize, 2=resize and fill).
func resizeModeIndex(mode string) int {
	switch mode {
	case "resize":
		return 0
	case "fill":
		return 2
	default:
		return 1
	}
}

func (p *A1111) ConfigSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"api_url": map[string]any{
				"type":        "string",
				"title":       "API URL",
				"description": "Automatic1111 WebUI API URL",
				"default":     "http://127.0.0.1:7860",
			},
		},
		"required": []string{"api_url"},
	}
}

var _ Provider = (*A1111)(nil)
