package generation

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotConfigured indicates a provider was invoked without credentials
	// or an endpoint URL.
	ErrNotConfigured = errors.New("provider not configured")

	// ErrProviderNotFound indicates a generate call named a provider that
	// is not registered.
	ErrProviderNotFound = errors.New("provider not found")

	// ErrUnknownProvider indicates a configure call named a provider
	// outside the closed set.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrTimeout indicates a long-running operation exhausted its polling
	// budget.
	ErrTimeout = errors.New("operation timed out")
)

// UnsupportedModelError reports a model value the provider does not route.
type UnsupportedModelError struct {
	Provider  string
	Model     string
	Supported []string
}

func (e *UnsupportedModelError) Error() string {
	if len(e.Supported) == 0 {
		return fmt.Sprintf("%s: unsupported model %q", e.Provider, e.Model)
	}
	return fmt.Sprintf("%s: unsupported model %q (supported: %s)", e.Provider, e.Model, strings.Join(e.Supported, ", "))
}

// RemoteError carries a non-2xx response from a provider endpoint with the
// body verbatim.
type RemoteError struct {
	Provider string
	Status   int
	Body     string
}

func (e *RemoteError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%s: status %d", e.Provider, e.Status)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.Status, body)
}

// MalformedResponseError reports a 2xx response whose shape could not be
// interpreted.
type MalformedResponseError struct {
	Provider string
	Reason   string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: malformed response: %s", e.Provider, e.Reason)
}

func notConfigured(provider, what string) error {
	return fmt.Errorf("%s: %s: %w", provider, what, ErrNotConfigured)
}
