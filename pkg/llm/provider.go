package llm

import (
	"context"
)

// Message represents a chat message in a provider-agnostic format. The
// json tags follow the chat completions wire format so providers can send
// the history as-is.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// Usage carries the token accounting of a single model call. Providers fill
// what their API reports; zero values mean the backend did not report usage.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	Model            string
}

// Total returns the billable token count of the call.
func (u Usage) Total() int {
	return u.PromptTokens + u.CompletionTokens
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the response text
	// plus the token usage of the call
	Chat(ctx context.Context, history []Message, options ...Option) (string, Usage, error)

	// Generate sends a single prompt to the model (convenience method)
	Generate(ctx context.Context, prompt string, options ...Option) (string, Usage, error)
}
