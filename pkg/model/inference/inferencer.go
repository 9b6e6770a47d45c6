// Package inference provides a unified interface for model inference.
//
// Annotation backends are hosted or locally served language models reached
// through the pkg/llm providers, which are wrapped here as Remote
// inferencers.
package inference

import (
	"context"
	"time"
)

// Inferencer runs model inference (prompt in, text out).
type Inferencer interface {
	// Infer sends a prompt and returns the model's response.
	Infer(ctx context.Context, req Request) (*Response, error)

	// Name returns the inferencer identifier (e.g., "anthropic", "ollama").
	Name() string

	// Available reports whether this inferencer is ready to use.
	Available() bool

	// Close releases any resources held by the inferencer.
	Close() error
}

// Checker is implemented by inferencers that can verify their backend is
// reachable and serves the configured model.
type Checker interface {
	Check(ctx context.Context) error
}

// Request represents an inference request.
type Request struct {
	Messages    []Message
	MaxTokens   int
	Temperature float64
	JSONSchema  map[string]any // For structured output
	SchemaName  string
}

// Message represents a chat message.
type Message struct {
	Role    Role
	Content string
}

// Role represents the role of a message sender.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Response represents the result of an inference call.
type Response struct {
	Content      string
	Usage        Usage
	Model        string
	Provider     string
	Duration     time.Duration
	FinishReason string // "stop", "length", "tool_use", ...
}

// Usage tracks token consumption.
type Usage struct {
	InputTokens  int
	OutputTokens int
}
