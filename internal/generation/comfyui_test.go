package generation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestComfyUIQueuesGraphAndResolvesHistory(t *testing.T) {
	var graph map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/prompt":
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			graph, _ = body["prompt"].(map[string]any)
			if cid, _ := body["client_id"].(string); cid == "" {
				t.Error("client_id missing from queue request")
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"prompt_id": "p-1"})
		case r.Method == http.MethodGet && r.URL.Path == "/history/p-1":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"p-1": map[string]any{
					"outputs": map[string]any{
						"7": map[string]any{
							"images": []map[string]any{{
								"filename":  "promptcraft_42_00001.png",
								"subfolder": "",
								"type":      "output",
							}},
						},
					},
				},
			})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	p := NewComfyUI(ComfyUIOptions{APIURL: server.URL, Logger: zerolog.Nop()})
	result, err := p.Generate(context.Background(), Request{
		Prompt:     "a watchtower",
		Parameters: map[string]any{"seed": 42, "model": "sdxl.safetensors"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sampler, ok := graph["5"].(map[string]any)
	if !ok {
		t.Fatalf("graph missing KSampler node: %#v", graph)
	}
	inputs := sampler["inputs"].(map[string]any)
	if inputs["seed"] != float64(42) {
		t.Fatalf("seed = %v, want 42", inputs["seed"])
	}
	if inputs["sampler_name"] != "euler" {
		t.Fatalf("sampler_name = %v, want euler", inputs["sampler_name"])
	}
	loader := graph["1"].(map[string]any)["inputs"].(map[string]any)
	if loader["ckpt_name"] != "sdxl.safetensors" {
		t.Fatalf("ckpt_name = %v", loader["ckpt_name"])
	}
	if graph["7"].(map[string]any)["class_type"] != "SaveImage" {
		t.Fatalf("node 7 = %v, want SaveImage", graph["7"])
	}

	if !strings.Contains(result.OutputURL, "/view?") {
		t.Fatalf("OutputURL = %q, want /view URL", result.OutputURL)
	}
	if !strings.Contains(result.OutputURL, "filename=promptcraft_42_00001.png") {
		t.Fatalf("OutputURL = %q, want filename query", result.OutputURL)
	}
	if !strings.Contains(result.OutputURL, "type=output") {
		t.Fatalf("OutputURL = %q, want type=output query", result.OutputURL)
	}
}

func TestComfyUIWaitsWhileHistoryEmpty(t *testing.T) {
	polls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		polls++
		_ = json.NewEncoder(w).Encode(map[string]any{})
	}))
	defer server.Close()

	p := NewComfyUI(ComfyUIOptions{APIURL: server.URL, Logger: zerolog.Nop()})
	done, result, err := p.pollHistory(context.Background(), "p-1", "model.safetensors")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if done || result != nil {
		t.Fatalf("done=%v result=%v, want keep waiting while history is empty", done, result)
	}
	if polls != 1 {
		t.Fatalf("polls = %d, want 1", polls)
	}
}

func TestComfyUIPollNonOKIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "server restarting", http.StatusBadGateway)
	}))
	defer server.Close()

	p := NewComfyUI(ComfyUIOptions{APIURL: server.URL, Logger: zerolog.Nop()})
	_, _, err := p.pollHistory(context.Background(), "p-1", "model.safetensors")

	var remote *RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("err = %v, want RemoteError", err)
	}
	if remote.Status != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", remote.Status)
	}
}

func TestComfyUIUnconfigured(t *testing.T) {
	p := NewComfyUI(ComfyUIOptions{Logger: zerolog.Nop()})
	_, err := p.Generate(context.Background(), Request{Prompt: "hi"})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}
