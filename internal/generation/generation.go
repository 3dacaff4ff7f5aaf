// Package generation orchestrates content-generation requests across a closed
// set of remote AI providers and runs the background job processor that
// drains the persisted job queue.
package generation

import "context"

// Request is the normalized generation request handed to a provider. The
// Parameters document is intentionally untyped: every provider extracts the
// knobs it understands and applies its own documented defaults.
type Request struct {
	Prompt     string         `json:"prompt"`
	Model      string         `json:"model"`
	Parameters map[string]any `json:"parameters"`
}

// Result is the normalized generation result. At most one of OutputURL and
// OutputData is authoritative per provider; once output normalization runs,
// OutputData is cleared and OutputURL/FilePath reference the written file.
type Result struct {
	OutputURL  string         `json:"output_url,omitempty"`
	OutputData string         `json:"output_data,omitempty"`
	FilePath   string         `json:"file_path,omitempty"`
	Metadata   map[string]any `json:"metadata"`
}

// Provider is implemented by each remote generation backend. Implementations
// translate a Request into the backend's wire format, perform the call(s),
// and normalize the response into a Result.
type Provider interface {
	// Name is the stable identifier used as the registry key.
	Name() string

	// Available reports whether the instance holds usable configuration.
	Available() bool

	// Generate performs one generation call.
	Generate(ctx context.Context, req Request) (*Result, error)

	// ConfigSchema declares the configuration fields a caller must supply.
	// It drives UI form generation only; nothing is enforced beyond
	// Available at runtime.
	ConfigSchema() map[string]any
}
