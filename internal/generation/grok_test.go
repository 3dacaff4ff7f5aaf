package generation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func TestGrokPinsModelAndClampsN(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/images/generations" {
			t.Errorf("path = %q, want /images/generations", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"url": "https://img.x.ai/1.jpg"}},
		})
	}))
	defer server.Close()

	p := NewGrok(GrokOptions{APIKey: "xai-test", BaseURL: server.URL, Logger: zerolog.Nop()})
	result, err := p.Generate(context.Background(), Request{
		Prompt:     "a city at night",
		Model:      "aurora",
		Parameters: map[string]any{"n": 25},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if captured["model"] != "grok-2-image" {
		t.Fatalf("model = %v, want grok-2-image regardless of alias", captured["model"])
	}
	if captured["n"] != float64(10) {
		t.Fatalf("n = %v, want clamped to 10", captured["n"])
	}
	if result.OutputURL != "https://img.x.ai/1.jpg" {
		t.Fatalf("OutputURL = %q", result.OutputURL)
	}
}

func TestGrokLegacyAliasRedirects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["model"] != "grok-2-image" {
			t.Errorf("model = %v, want redirect to grok-2-image", body["model"])
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"b64_json": "aW1n"}},
		})
	}))
	defer server.Close()

	p := NewGrok(GrokOptions{APIKey: "xai-test", BaseURL: server.URL, Logger: zerolog.Nop()})
	for _, alias := range []string{"grok-1", "grok", "flux"} {
		if _, err := p.Generate(context.Background(), Request{Prompt: "hi", Model: alias}); err != nil {
			t.Fatalf("alias %s: unexpected error: %v", alias, err)
		}
	}
}

func TestGrokRejectsUnknownModel(t *testing.T) {
	p := NewGrok(GrokOptions{APIKey: "xai-test", Logger: zerolog.Nop()})
	_, err := p.Generate(context.Background(), Request{Prompt: "hi", Model: "grok-3-image"})

	var unsupported *UnsupportedModelError
	if !errors.As(err, &unsupported) {
		t.Fatalf("err = %v, want UnsupportedModelError", err)
	}
}

func TestGrokUnconfigured(t *testing.T) {
	p := NewGrok(GrokOptions{Logger: zerolog.Nop()})
	_, err := p.Generate(context.Background(), Request{Prompt: "hi", Model: "grok-2-image"})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}
