package ai

import "context"

// Turn is one message of a conversation, role "user" or "model".
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Schema is a provider-side response schema for structured generation.
type Schema map[string]any

// Provider is implemented by hosted generative-model clients and by the mock
// used when no credential is configured.
type Provider interface {
	GenerateText(ctx context.Context, systemPrompt string, turns []Turn) (string, error)
	GenerateJSON(ctx context.Context, prompt string, schema Schema) (string, error)
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
