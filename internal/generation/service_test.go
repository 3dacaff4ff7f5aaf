package generation

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"promptcraft/internal/storage"
)

type stubProvider struct {
	name      string
	available bool
	result    *Result
	err       error
	calls     int
}

func (s *stubProvider) Name() string    { return s.name }
func (s *stubProvider) Available() bool { return s.available }
func (s *stubProvider) Generate(ctx context.Context, req Request) (*Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}
func (s *stubProvider) ConfigSchema() map[string]any { return map[string]any{} }

func newTestService(t *testing.T) *Service {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	return NewService(ServiceOptions{Store: store, Logger: zerolog.Nop()})
}

func TestServiceGenerateUnknownProvider(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Generate(context.Background(), "nonexistent", Request{Prompt: "hi"})
	if !errors.Is(err, ErrProviderNotFound) {
		t.Fatalf("err = %v, want ErrProviderNotFound", err)
	}
}

func TestServiceGenerateUnconfiguredProvider(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Generate(context.Background(), "openai", Request{Prompt: "hi", Model: "dall-e-3"})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}

func TestServiceConfigureUnknownProvider(t *testing.T) {
	svc := newTestService(t)
	if err := svc.ConfigureProvider("dalle4", "key"); !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("err = %v, want ErrUnknownProvider", err)
	}
	if err := svc.ConfigureLocalProvider("openai", "http://x"); !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("err = %v, want ErrUnknownProvider", err)
	}
}

func TestServiceListProvidersCoversClosedSet(t *testing.T) {
	svc := newTestService(t)
	infos := svc.ListProviders()
	names := make(map[string]bool, len(infos))
	for _, info := range infos {
		names[info.Name] = true
		if info.Available {
			t.Fatalf("provider %s reports available before configuration", info.Name)
		}
	}
	for _, want := range []string{"openai", "anthropic", "google", "grok", "a1111", "comfyui", "invokeai", "midjourney"} {
		if !names[want] {
			t.Fatalf("provider %s missing from listing", want)
		}
	}
}

func TestServiceNormalizesInlineMedia(t *testing.T) {
	payload := []byte{0x89, 0x50, 0x4e, 0x47}
	encoded := base64.StdEncoding.EncodeToString(payload)

	svc := newTestService(t)
	provider := &stubProvider{
		name:      "stub",
		available: true,
		result: &Result{
			OutputData: encoded,
			Metadata:   map[string]any{"mime": "image/png"},
		},
	}
	svc.Register(provider)

	result, err := svc.Generate(context.Background(), "stub", Request{Prompt: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.OutputData != "" {
		t.Fatalf("OutputData = %q, want cleared", result.OutputData)
	}
	if !strings.HasPrefix(result.OutputURL, "asset://") {
		t.Fatalf("OutputURL = %q, want asset:// prefix", result.OutputURL)
	}
	if !strings.HasSuffix(result.OutputURL, ".png") {
		t.Fatalf("OutputURL = %q, want .png extension", result.OutputURL)
	}
	if result.FilePath == "" {
		t.Fatal("FilePath is empty")
	}
	written, err := os.ReadFile(result.FilePath)
	if err != nil {
		t.Fatalf("read written file: %v", err)
	}
	if string(written) != string(payload) {
		t.Fatalf("written bytes = %v, want %v", written, payload)
	}
}

func TestServiceNormalizesDataURLOutput(t *testing.T) {
	payload := []byte("jpeg bytes")
	encoded := base64.StdEncoding.EncodeToString(payload)

	svc := newTestService(t)
	svc.Register(&stubProvider{
		name:      "stub",
		available: true,
		result:    &Result{OutputData: "data:image/jpeg;base64," + encoded},
	})

	result, err := svc.Generate(context.Background(), "stub", Request{Prompt: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(result.OutputURL, ".jpg") {
		t.Fatalf("OutputURL = %q, want .jpg extension", result.OutputURL)
	}
	if result.Metadata["mime"] != "image/jpeg" {
		t.Fatalf("metadata mime = %v, want image/jpeg", result.Metadata["mime"])
	}
}

func TestServiceLeavesTextResultUntouched(t *testing.T) {
	svc := newTestService(t)
	svc.Register(&stubProvider{
		name:      "stub",
		available: true,
		result:    &Result{OutputData: "a plain text answer", Metadata: map[string]any{"model": "claude"}},
	})

	result, err := svc.Generate(context.Background(), "stub", Request{Prompt: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.OutputData != "a plain text answer" {
		t.Fatalf("OutputData = %q, want untouched text", result.OutputData)
	}
	if result.OutputURL != "" || result.FilePath != "" {
		t.Fatalf("text result gained media fields: url=%q path=%q", result.OutputURL, result.FilePath)
	}
}

func TestServiceNormalizationFailureKeepsResult(t *testing.T) {
	svc := newTestService(t)
	svc.Register(&stubProvider{
		name:      "stub",
		available: true,
		result: &Result{
			OutputData: "!!! not base64 !!!",
			Metadata:   map[string]any{"mime": "image/png"},
		},
	})

	result, err := svc.Generate(context.Background(), "stub", Request{Prompt: "hi"})
	if err != nil {
		t.Fatalf("generation should succeed despite normalization failure, got %v", err)
	}
	if result.OutputData != "!!! not base64 !!!" {
		t.Fatalf("OutputData = %q, want original payload preserved", result.OutputData)
	}
}

func TestServiceRegisterReplaces(t *testing.T) {
	svc := newTestService(t)
	first := &stubProvider{name: "stub", available: true, result: &Result{OutputData: "one"}}
	second := &stubProvider{name: "stub", available: true, result: &Result{OutputData: "two"}}
	svc.Register(first)
	svc.Register(second)

	result, err := svc.Generate(context.Background(), "stub", Request{Prompt: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.OutputData != "two" {
		t.Fatalf("OutputData = %q, want result from replacement provider", result.OutputData)
	}
	if first.calls != 0 {
		t.Fatalf("replaced provider was invoked %d times", first.calls)
	}
}
