package generation

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ComfyUIOptions configures the ComfyUI workflow provider.
type ComfyUIOptions struct {
	APIURL     string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// ComfyUI drives a local ComfyUI server by submitting a fixed txt2img node
// graph and polling the history endpoint until the queued prompt produces an
// output image.
type ComfyUI struct {
	apiURL     string
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewComfyUI(opts ComfyUIOptions) *ComfyUI {
	return &ComfyUI{
		apiURL:     strings.TrimRight(strings.TrimSpace(opts.APIURL), "/"),
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
	}
}

func (p *ComfyUI) Name() string { return "comfyui" }

func (p *ComfyUI) Available() bool { return p.apiURL != "" }

type comfyQueueResponse struct {
	PromptID string `json:"prompt_id"`
}

type comfyImage struct {
	Filename  string `json:"filename"`
	Subfolder string `json:"subfolder"`
	Type      string `json:"type"`
}

type comfyHistoryEntry struct {
	Outputs map[string]struct {
		Images []comfyImage `json:"images"`
	} `json:"outputs"`
}

func (p *ComfyUI) Generate(ctx context.Context, req Request) (*Result, error) {
	if !p.Available() {
		return nil, notConfigured("comfyui", "API URL missing")
	}

	params := req.Parameters
	checkpoint := paramString(params, "model", "")
	if checkpoint == "" {
		checkpoint = "v1-5-pruned-emaonly.safetensors"
	}
	negativePrompt := paramString(params, "negative_prompt", "")
	steps := paramInt(params, "steps", 20)
	cfgScale := paramFloat(params, "cfg_scale", 7.0)
	width := paramInt(params, "width", 512)
	height := paramInt(params, "height", 512)
	seed := paramInt(params, "seed", -1)
	if seed < 0 {
		seed = int(time.Now().UnixNano() & 0x7fffffff)
	}

	graph := buildComfyGraph(req.Prompt, negativePrompt, checkpoint, steps, width, height, seed, cfgScale)
	queueBody := map[string]any{
		"prompt":    graph,
		"client_id": uuid.NewString(),
	}

	status, raw, err := doJSON(ctx, p.httpClient, http.MethodPost, p.apiURL+"/prompt", nil, queueBody)
	if err != nil {
		return nil, err
	}
	if status >= 300 {
		return nil, &RemoteError{Provider: "comfyui", Status: status, Body: string(raw)}
	}

	var queued comfyQueueResponse
	if err := decodeJSON(raw, &queued); err != nil {
		return nil, &MalformedResponseError{Provider: "comfyui", Reason: err.Error()}
	}
	if queued.PromptID == "" {
		return nil, &MalformedResponseError{Provider: "comfyui", Reason: "no prompt_id in queue response"}
	}
	p.logger.Debug().Str("prompt_id", queued.PromptID).Msg("comfyui: prompt queued")

	poller := Poller{
		Initial:     time.Second,
		Step:        0,
		Max:         time.Second,
		MaxAttempts: 60,
		Logger:      p.logger,
	}
	result, err := poller.Wait(ctx, func(ctx context.Context) (bool, *Result, error) {
		return p.pollHistory(ctx, queued.PromptID, checkpoint)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// pollHistory checks one history snapshot. The prompt id is absent from the
// history map until execution finishes, so a missing entry means keep waiting.
func (p *ComfyUI) pollHistory(ctx context.Context, promptID, checkpoint string) (bool, *Result, error) {
	status, raw, err := doJSON(ctx, p.httpClient, http.MethodGet, p.apiURL+"/history/"+promptID, nil, nil)
	if err != nil {
		return false, nil, err
	}
	if status >= 300 {
		return false, nil, &RemoteError{Provider: "comfyui", Status: status, Body: string(raw)}
	}

	var history map[string]comfyHistoryEntry
	if err := decodeJSON(raw, &history); err != nil {
		return false, nil, &MalformedResponseError{Provider: "comfyui", Reason: err.Error()}
	}

	entry, ok := history[promptID]
	if !ok {
		return false, nil, nil
	}

	for _, output := range entry.Outputs {
		for _, img := range output.Images {
			if img.Type != "output" {
				continue
			}
			q := url.Values{}
			q.Set("filename", img.Filename)
			q.Set("subfolder", img.Subfolder)
			q.Set("type", "output")
			return true, &Result{
				OutputURL: p.apiURL + "/view?" + q.Encode(),
				Metadata: map[string]any{
					"provider":  "comfyui",
					"mime":      "image/png",
					"prompt_id": promptID,
					"filename":  img.Filename,
					"model":     checkpoint,
				},
			}, nil
		}
	}

	return false, nil, &MalformedResponseError{Provider: "comfyui", Reason: "history entry has no output images"}
}

// buildComfyGraph assembles the fixed seven-node txt2img workflow: checkpoint
// loader, two text encoders, latent image, sampler, VAE decode, and the save
// node whose images the history poll reads back.
func buildComfyGraph(prompt, negativePrompt, checkpoint string, steps, width, height, seed int, cfgScale float64) map[string]any {
	return map[string]any{
		"1": map[string]any{
			"class_type": "CheckpointLoaderSimple",
			"inputs": map[string]any{
				"ckpt_name": checkpoint,
			},
		},
		"2": map[string]any{
			"class_type": "CLIPTextEncode",
			"inputs": map[string]any{
				"text": prompt,
				"clip": []any{"1", 1},
			},
		},
		"3": map[string]any{
			"class_type": "CLIPTextEncode",
			"inputs": map[string]any{
				"text": negativePrompt,
				"clip": []any{"1", 1},
			},
		},
		"4": map[string]any{
			"class_type": "EmptyLatentImage",
			"inputs": map[string]any{
				"width":      width,
				"height":     height,
				"batch_size": 1,
			},
		},
		"5": map[string]any{
			"class_type": "KSampler",
			"inputs": map[string]any{
				"seed":         seed,
				"steps":        steps,
				"cfg":          cfgScale,
				"sampler_name": "euler",
				"scheduler":    "normal",
				"denoise":      1.0,
				"model":        []any{"1", 0},
				"positive":     []any{"2", 0},
				"negative":     []any{"3", 0},
				"latent_image": []any{"4", 0},
			},
		},
		"6": map[string]any{
			"class_type": "VAEDecode",
			"inputs": map[string]any{
				"samples": []any{"5", 0},
				"vae":     []any{"1", 2},
			},
		},
		"7": map[string]any{
			"class_type": "SaveImage",
			"inputs": map[string]any{
				"filename_prefix": fmt.Sprintf("promptcraft_%d", seed),
				"images":          []any{"6", 0},
			},
		},
	}
}

func (p *ComfyUI) ConfigSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"api_url": map[string]any{
				"type":        "string",
				"title":       "API URL",
				"description": "ComfyUI server URL",
				"default":     "http://127.0.0.1:8188",
			},
		},
		"required": []string{"api_url"},
	}
}

var _ Provider = (*ComfyUI)(nil)
