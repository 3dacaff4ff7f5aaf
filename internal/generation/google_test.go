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

func TestGoogleImageGenerationWithReferenceImages(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/gemini-2.5-flash-image:generateContent" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "key-1" {
			t.Errorf("x-goog-api-key = %q", got)
		}
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"parts": []map[string]any{
						{"text": "here is your image"},
						{"inlineData": map[string]any{"mimeType": "image/png", "data": "aW1n"}},
					},
				},
			}},
		})
	}))
	defer server.Close()

	p := NewGoogle(GoogleOptions{APIKey: "key-1", BaseURL: server.URL, Logger: zerolog.Nop()})
	result, err := p.Generate(context.Background(), Request{
		Prompt: "a castle",
		Model:  "nano-banana",
		Parameters: map[string]any{
			"reference_images": []any{
				map[string]any{"data": "data:image/jpeg;base64,cmVm"},
			},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	contents := captured["contents"].([]any)
	parts := contents[0].(map[string]any)["parts"].([]any)
	if len(parts) != 2 {
		t.Fatalf("parts = %d, want prompt text plus one reference image", len(parts))
	}
	inline := parts[1].(map[string]any)["inline_data"].(map[string]any)
	if inline["mime_type"] != "image/jpeg" || inline["data"] != "cmVm" {
		t.Fatalf("inline_data = %#v", inline)
	}
	if _, ok := captured["tools"]; ok {
		t.Fatal("tools present without enable_search")
	}
	if result.OutputData != "aW1n" {
		t.Fatalf("OutputData = %q, want first inline image", result.OutputData)
	}
	if result.Metadata["mime"] != "image/png" {
		t.Fatalf("mime = %v", result.Metadata["mime"])
	}
}

func TestGoogleEnableSearchAddsTool(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"parts": []map[string]any{
						{"inlineData": map[string]any{"mimeType": "image/png", "data": "aW1n"}},
					},
				},
			}},
		})
	}))
	defer server.Close()

	p := NewGoogle(GoogleOptions{APIKey: "key-1", BaseURL: server.URL, Logger: zerolog.Nop()})
	_, err := p.Generate(context.Background(), Request{
		Prompt:     "a castle",
		Model:      "gemini-2.5-flash-image-preview",
		Parameters: map[string]any{"enable_search": true},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tools, ok := captured["tools"].([]any)
	if !ok || len(tools) != 1 {
		t.Fatalf("tools = %#v, want one google_search entry", captured["tools"])
	}
	if _, ok := tools[0].(map[string]any)["google_search"]; !ok {
		t.Fatalf("tools[0] = %#v", tools[0])
	}
}

func TestGoogleRejectsUnknownModel(t *testing.T) {
	p := NewGoogle(GoogleOptions{APIKey: "key-1", Logger: zerolog.Nop()})
	_, err := p.Generate(context.Background(), Request{Prompt: "hi", Model: "imagen-4"})

	var unsupported *UnsupportedModelError
	if !errors.As(err, &unsupported) {
		t.Fatalf("err = %v, want UnsupportedModelError", err)
	}
}

func TestGooglePollOperationKeepsWaitingUntilDone(t *testing.T) {
	polls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		polls++
		if polls < 3 {
			_ = json.NewEncoder(w).Encode(map[string]any{"name": "operations/op-1", "done": false})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"name": "operations/op-1",
			"done": true,
			"response": map[string]any{
				"predictions": []map[string]any{{"videoUri": "https://video.example/out.mp4"}},
			},
		})
	}))
	defer server.Close()

	p := NewGoogle(GoogleOptions{APIKey: "key-1", BaseURL: server.URL, Logger: zerolog.Nop()})

	for i := 1; i <= 2; i++ {
		done, _, err := p.pollOperation(context.Background(), "operations/op-1", "veo-3")
		if err != nil {
			t.Fatalf("poll %d: unexpected error: %v", i, err)
		}
		if done {
			t.Fatalf("poll %d reported done", i)
		}
	}

	done, result, err := p.pollOperation(context.Background(), "operations/op-1", "veo-3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !done {
		t.Fatal("final poll not done")
	}
	if result.OutputURL != "https://video.example/out.mp4" {
		t.Fatalf("OutputURL = %q", result.OutputURL)
	}
}

func TestGooglePollOperationEmbeddedErrorWins(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"name":  "operations/op-1",
			"done":  true,
			"error": map[string]any{"message": "safety filter triggered"},
			"response": map[string]any{
				"predictions": []map[string]any{{"videoUri": "https://video.example/out.mp4"}},
			},
		})
	}))
	defer server.Close()

	p := NewGoogle(GoogleOptions{APIKey: "key-1", BaseURL: server.URL, Logger: zerolog.Nop()})
	_, _, err := p.pollOperation(context.Background(), "operations/op-1", "veo-3")

	var remote *RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("err = %v, want RemoteError", err)
	}
	if remote.Body != "safety filter triggered" {
		t.Fatalf("body = %q", remote.Body)
	}
}

func TestGoogleVideoPollSequenceEndsWithEmbeddedError(t *testing.T) {
	polls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		polls++
		if polls <= 5 {
			_ = json.NewEncoder(w).Encode(map[string]any{"name": "operations/op-1", "done": false})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"name":  "operations/op-1",
			"done":  true,
			"error": map[string]any{"message": "quota exceeded"},
		})
	}))
	defer server.Close()

	p := NewGoogle(GoogleOptions{APIKey: "key-1", BaseURL: server.URL, Logger: zerolog.Nop()})
	poller := Poller{Initial: 1, Step: 1, Max: 1, MaxAttempts: 60, sleep: stubSleep(nil)}
	_, err := poller.Wait(context.Background(), func(ctx context.Context) (bool, *Result, error) {
		return p.pollOperation(ctx, "operations/op-1", "veo-3")
	})

	var remote *RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("err = %v, want RemoteError", err)
	}
	if !strings.Contains(remote.Body, "quota exceeded") {
		t.Fatalf("body = %q, want embedded error message", remote.Body)
	}
	if polls != 6 {
		t.Fatalf("polls = %d, want 6 (five in-progress, one failed)", polls)
	}
}

func TestFindVideoURLKeyVariants(t *testing.T) {
	cases := []struct {
		name    string
		payload map[string]any
		want    string
	}{
		{"predictions videoUri", map[string]any{"predictions": []any{map[string]any{"videoUri": "a"}}}, "a"},
		{"predictions video_uri", map[string]any{"predictions": []any{map[string]any{"video_uri": "b"}}}, "b"},
		{"top-level videoUri", map[string]any{"videoUri": "c"}, "c"},
		{"top-level video_uri", map[string]any{"video_uri": "d"}, "d"},
		{"output", map[string]any{"output": "e"}, "e"},
		{"none", map[string]any{"other": "x"}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := findVideoURL(tc.payload); got != tc.want {
				t.Fatalf("findVideoURL = %q, want %q", got, tc.want)
			}
		})
	}
}
