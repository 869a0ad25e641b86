package llm

import (
	"context"
	"encoding/json"
)

// Provider is the single chokepoint for outbound model calls. Every
// discovery, classification, and evaluation request in the pipeline goes
// through a Provider; nothing else talks to an LLM API.
type Provider interface {
	// Generate sends a prompt to the LLM and returns its response. When
	// the request carries a Schema, the provider uses its native
	// structured-output mechanism and the returned Content is JSON
	// validated against that schema. Without a Schema, Content is the raw
	// text of the completion.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured
	// to use.
	ModelID() string
}

// Request describes a single chat completion.
type Request struct {
	// System sets the model's role and constraints.
	System string

	// Messages is the conversation. Classification and discovery are
	// single-turn, so this is usually one user message.
	Messages []Message

	// Schema, when set, constrains the output to the given JSON Schema.
	// This is how the classifier guarantees in-vocabulary category names:
	// the schema carries an enum of the legal values.
	Schema *Schema

	// MaxTokens bounds the response length.
	MaxTokens int

	// Temperature controls randomness, 0.0-1.0. Zero means deterministic.
	Temperature float64
}

// Message is a single conversation turn.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is a JSON Schema contract for structured output.
type Schema struct {
	// Name identifies the schema (tool name for Anthropic, schema name
	// for OpenAI). Kebab-case, e.g. "category-discovery".
	Name string

	// Description tells the model what the schema represents.
	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

// Response holds the model's output.
type Response struct {
	// Content is the generated output. With a Schema it is the validated
	// JSON object; without one it is the raw completion text.
	Content json.RawMessage

	// Usage reports token consumption for this request.
	Usage Usage

	// Model is the model that actually served the request.
	Model string

	// StopReason is normalized to "end", "max_tokens", or "error".
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
