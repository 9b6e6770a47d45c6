package llm

import (
	"context"
	"time"
)

// LLMObserver receives a notification after every LLM call, successful or
// not. Implementations must not block: they run on the annotation path.
type LLMObserver interface {
	OnLLMCall(ctx context.Context, event LLMCallEvent)
}

// LLMCallEvent describes one LLM call.
type LLMCallEvent struct {
	// Provider name (e.g., "anthropic", "ollama")
	Provider string

	// Model used for the call
	Model string

	// InputSize is the size in bytes of the text sent for annotation.
	InputSize int

	// Response details (nil if the call failed before a response arrived)
	Response *LLMCallResponse

	// Error if the call failed (nil on success)
	Error error

	Duration time.Duration

	// Attempt number (0 = first attempt, 1 = first retry, etc.)
	Attempt int

	StartedAt time.Time
}

// LLMCallResponse summarises the response from the LLM.
type LLMCallResponse struct {
	ContentSize  int
	InputTokens  int
	OutputTokens int
	FinishReason string
}

// ObserverFunc is a convenience type for using a function as an LLMObserver.
type ObserverFunc func(ctx context.Context, event LLMCallEvent)

// OnLLMCall implements LLMObserver.
func (f ObserverFunc) OnLLMCall(ctx context.Context, event LLMCallEvent) {
	f(ctx, event)
}

// MultiObserver combines multiple observers into one.
// All observers are called for each event.
type MultiObserver struct {
	observers []LLMObserver
}

// NewMultiObserver creates an observer that dispatches to multiple observers.
func NewMultiObserver(observers ...LLMObserver) *MultiObserver {
	return &MultiObserver{observers: observers}
}

// OnLLMCall dispatches the event to all registered observers.
func (m *MultiObserver) OnLLMCall(ctx context.Context, event LLMCallEvent) {
	for _, obs := range m.observers {
		obs.OnLLMCall(ctx, event)
	}
}

// Add adds an observer to the multi-observer.
func (m *MultiObserver) Add(obs LLMObserver) {
	m.observers = append(m.observers, obs)
}
