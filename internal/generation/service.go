package generation

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"promptcraft/internal/storage"
)

// ServiceOptions configures the generation service.
type ServiceOptions struct {
	Store      *storage.FileStore
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Service owns the provider registry and normalizes provider results into
// locally persisted media files. The registry starts fully populated with
// unconfigured providers so the catalog is discoverable before any
// credentials arrive.
type Service struct {
	mu        sync.RWMutex
	providers map[string]Provider

	store      *storage.FileStore
	httpClient *http.Client
	logger     zerolog.Logger
}

// ProviderInfo is the registry listing entry for one provider.
type ProviderInfo struct {
	Name         string         `json:"name"`
	Available    bool           `json:"available"`
	ConfigSchema map[string]any `json:"config_schema"`
}

// NewService builds a Service with the full closed provider set registered in
// its unconfigured state.
func NewService(opts ServiceOptions) *Service {
	s := &Service{
		providers:  make(map[string]Provider),
		store:      opts.Store,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
	}
	s.Register(NewOpenAI(OpenAIOptions{HTTPClient: s.httpClient, Logger: s.logger}))
	s.Register(NewAnthropic(AnthropicOptions{HTTPClient: s.httpClient, Logger: s.logger}))
	s.Register(NewGoogle(GoogleOptions{HTTPClient: s.httpClient, Logger: s.logger}))
	s.Register(NewGrok(GrokOptions{HTTPClient: s.httpClient, Logger: s.logger}))
	s.Register(NewA1111(A1111Options{HTTPClient: s.httpClient, Logger: s.logger}))
	s.Register(NewComfyUI(ComfyUIOptions{HTTPClient: s.httpClient, Logger: s.logger}))
	s.Register(NewInvokeAI(InvokeAIOptions{HTTPClient: s.httpClient, Logger: s.logger}))
	s.Register(NewMidjourney())
	return s
}

// Register adds a provider under its own name, replacing any prior instance.
func (s *Service) Register(p Provider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providers[p.Name()] = p
}

// ConfigureProvider rebuilds a key-based remote provider with the given API
// key. The provider set is closed; unknown names are rejected.
func (s *Service) ConfigureProvider(name, apiKey string) error {
	switch name {
	case "openai":
		s.Register(NewOpenAI(OpenAIOptions{APIKey: apiKey, HTTPClient: s.httpClient, Logger: s.logger}))
	case "anthropic":
		s.Register(NewAnthropic(AnthropicOptions{APIKey: apiKey, HTTPClient: s.httpClient, Logger: s.logger}))
	case "google":
		s.Register(NewGoogle(GoogleOptions{APIKey: apiKey, HTTPClient: s.httpClient, Logger: s.logger}))
	case "grok":
		s.Register(NewGrok(GrokOptions{APIKey: apiKey, HTTPClient: s.httpClient, Logger: s.logger}))
	case "midjourney":
		s.Register(NewMidjourney())
	default:
		return fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	s.logger.Info().Str("provider", name).Msg("generation: provider configured")
	return nil
}

// ConfigureLocalProvider rebuilds a URL-based local backend provider with the
// given endpoint.
func (s *Service) ConfigureLocalProvider(name, apiURL string) error {
	switch name {
	case "a1111":
		s.Register(NewA1111(A1111Options{APIURL: apiURL, HTTPClient: s.httpClient, Logger: s.logger}))
	case "comfyui":
		s.Register(NewComfyUI(ComfyUIOptions{APIURL: apiURL, HTTPClient: s.httpClient, Logger: s.logger}))
	case "invokeai":
		s.Register(NewInvokeAI(InvokeAIOptions{APIURL: apiURL, HTTPClient: s.httpClient, Logger: s.logger}))
	default:
		return fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	s.logger.Info().Str("provider", name).Str("api_url", apiURL).Msg("generation: local provider configured")
	return nil
}

// ListProviders returns the registry contents sorted by name.
func (s *Service) ListProviders() []ProviderInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]ProviderInfo, 0, len(s.providers))
	for _, p := range s.providers {
		infos = append(infos, ProviderInfo{
			Name:         p.Name(),
			Available:    p.Available(),
			ConfigSchema: p.ConfigSchema(),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

func (s *Service) provider(name string) (Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}
	return p, nil
}

// Generate resolves the named provider once, invokes it, and normalizes any
// inline media payload into the local store. Normalization failures are
// logged and leave the provider result untouched; the generation itself
// already succeeded.
func (s *Service) Generate(ctx context.Context, providerName string, req Request) (*Result, error) {
	p, err := s.provider(providerName)
	if err != nil {
		return nil, err
	}

	result, err := p.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := s.normalizeOutput(ctx, result); err != nil {
		s.logger.Warn().Err(err).Str("provider", providerName).Msg("generation: output normalization failed, keeping inline result")
	}
	return result, nil
}

// normalizeOutput persists inline base64 media to the file store and rewrites
// the result to reference the stored file. Text results (no data-URL prefix
// and no media MIME hint) pass through untouched.
func (s *Service) normalizeOutput(ctx context.Context, result *Result) error {
	if result == nil || result.OutputData == "" || s.store == nil {
		return nil
	}

	data := result.OutputData
	mime := metadataMIME(result.Metadata)
	if strings.HasPrefix(data, "data:") {
		m, payload, err := ExtractBase64FromDataURL(data)
		if err != nil {
			return err
		}
		mime, data = m, payload
	} else if !isMediaMIME(mime) {
		return nil
	}

	data = stripWhitespace(data)
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return fmt.Errorf("decode base64 output: %w", err)
	}

	key := uuid.NewString() + "." + mimeExtension(mime)
	storedKey, err := s.store.Write(ctx, key, decoded)
	if err != nil {
		return err
	}

	result.OutputURL = "asset://" + storedKey
	result.FilePath = s.store.AbsolutePath(storedKey)
	result.OutputData = ""
	if result.Metadata == nil {
		result.Metadata = map[string]any{}
	}
	result.Metadata["mime"] = mime
	s.logger.Debug().Str("key", storedKey).Int("bytes", len(decoded)).Msg("generation: output persisted")
	return nil
}

func metadataMIME(metadata map[string]any) string {
	if metadata == nil {
		return ""
	}
	mime, _ := metadata["mime"].(string)
	return mime
}

func isMediaMIME(mime string) bool {
	return strings.HasPrefix(mime, "image/") ||
		strings.HasPrefix(mime, "video/") ||
		strings.HasPrefix(mime, "audio/")
}

func mimeExtension(mime string) string {
	switch mime {
	case "image/png":
		return "png"
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	case "video/mp4":
		return "mp4"
	case "video/webm":
		return "webm"
	case "audio/mpeg":
		return "mp3"
	case "audio/wav":
		return "wav"
	default:
		return "bin"
	}
}

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, s)
}
