// Package providers defines the collaborator boundary: the Provider
// interface and the shared completion types used by all backends.
//
// A Provider turns a prompt into model text. The gateway performs a single
// attempt per call; timeouts and cancellation arrive via the context.
package providers

import (
	"context"
	"errors"
)

// Message role constants.
const (
	RoleUser   = "user"
	RoleSystem = "system"
)

// Provider is implemented by every LLM backend the gateway can talk to.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (*Response, error)
	SupportedModels() []string
	SupportsModel(model string) bool
	Models() []ModelInfo
}

// HealthChecker is an optional interface for providers that can report
// upstream availability, used by the /health endpoint.
type HealthChecker interface {
	Provider
	// Health returns the number of models visible upstream, or an error when
	// the collaborator is unreachable.
	Health(ctx context.Context) (int, error)
}

// Message is a single prompt turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a completion request for one collaborator call.
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
}

// Validate returns an error if the request is missing required fields or
// contains out-of-range parameter values.
func (r Request) Validate() error {
	if r.Model == "" {
		return errors.New("model is required")
	}
	if len(r.Messages) == 0 {
		return errors.New("at least one message is required")
	}
	if r.Temperature != nil && (*r.Temperature < 0 || *r.Temperature > 2) {
		return errors.New("temperature must be between 0 and 2")
	}
	if r.MaxTokens != nil && *r.MaxTokens <= 0 {
		return errors.New("max_tokens must be positive")
	}
	return nil
}

// Response is a completion response normalised across backends. Content is
// the text of the first (only) choice with surrounding whitespace intact;
// callers trim as needed.
type Response struct {
	Model    string `json:"model"`
	Provider string `json:"provider,omitempty"`
	Content  string `json:"content"`
	Usage    Usage  `json:"usage"`
}

// Usage carries token consumption statistics.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ModelInfo describes a single model offered by a provider.
type ModelInfo struct {
	ID      string `json:"id"`
	OwnedBy string `json:"owned_by"`
}

// Float returns a pointer to v, for optional request fields.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v, for optional request fields.
func Int(v int) *int { return &v }
