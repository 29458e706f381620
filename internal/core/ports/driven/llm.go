package driven

import "context"

// LLMService provides chat-completion operations against an
// OpenAI-compatible API.
//
// Implementations may include:
//   - OpenAI (GPT-4o, GPT-4o-mini)
//   - DeepSeek (deepseek-chat)
//   - Any OpenAI-compatible inference server
type LLMService interface {
	// Chat conducts a single completion and returns the full response text.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// ChatStream issues a streaming completion. Text fragments arrive on
	// the first channel in emission order; a mid-stream failure arrives on
	// the second. Both channels are closed when the stream ends. The error
	// return covers request setup only.
	ChatStream(ctx context.Context, messages []ChatMessage, opts ChatOptions) (<-chan string, <-chan error, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// ChatOptions configures completion behaviour.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64
}
