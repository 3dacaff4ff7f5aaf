package generation

import (
	"context"
	"errors"
)

// Midjourney is a registered placeholder: Midjourney has no public generation
// API, so the provider advertises itself in the registry but refuses to run.
type Midjourney struct{}

func NewMidjourney() *Midjourney { return &Midjourney{} }

func (p *Midjourney) Name() string { return "midjourney" }

func (p *Midjourney) Available() bool { return false }

func (p *Midjourney) Generate(ctx context.Context, req Request) (*Result, error) {
	return nil, errors.New("midjourney: not implemented: no public API available")
}

func (p *Midjourney) ConfigSchema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

var _ Provider = (*Midjourney)(nil)
