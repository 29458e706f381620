package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/websearch-cli/internal/core/domain"
	"github.com/custodia-labs/websearch-cli/internal/core/ports/driven"
)

func TestSummarizer_StreamsTokensInOrder(t *testing.T) {
	llm := &mockLLM{streamTokens: []string{"Paris ", "is ", "the ", "capital."}}
	s := NewSummarizer(llm)

	var tokens []string
	answer, err := s.Stream(context.Background(), "capital of France", []string{"Paris is the capital of France."}, func(tok string) {
		tokens = append(tokens, tok)
	})

	require.NoError(t, err)
	assert.Equal(t, "Paris is the capital.", answer)
	assert.Equal(t, []string{"Paris ", "is ", "the ", "capital."}, tokens)
}

func TestSummarizer_NilTokenSink(t *testing.T) {
	llm := &mockLLM{streamTokens: []string{"hello"}}
	s := NewSummarizer(llm)

	answer, err := s.Stream(context.Background(), "prompt", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", answer)
}

func TestSummarizer_GroundingMessageContainsContext(t *testing.T) {
	llm := &mockLLM{streamTokens: []string{"ok"}}
	s := NewSummarizer(llm)

	_, err := s.Stream(context.Background(), "the prompt", []string{"first source", "second source"}, nil)
	require.NoError(t, err)

	msg := llm.lastPrompt()
	assert.Contains(t, msg, "the prompt")
	assert.Contains(t, msg, "[1] first source")
	assert.Contains(t, msg, "[2] second source")
}

func TestSummarizer_EmptyContextStatedExplicitly(t *testing.T) {
	llm := &mockLLM{streamTokens: []string{"nothing found"}}
	s := NewSummarizer(llm)

	_, err := s.Stream(context.Background(), "prompt", []string{"", "  "}, nil)
	require.NoError(t, err)

	assert.Contains(t, llm.lastPrompt(), "none was retrieved")
}

func TestSummarizer_SetupError(t *testing.T) {
	llm := &mockLLM{setupErr: errors.New("connection refused")}
	s := NewSummarizer(llm)

	_, err := s.Stream(context.Background(), "prompt", nil, nil)
	assert.ErrorIs(t, err, domain.ErrSummarization)
}

func TestSummarizer_MidStreamError(t *testing.T) {
	llm := &mockLLM{
		streamTokens: []string{"partial ", "answer"},
		streamErr:    errors.New("stream reset"),
		streamErrPos: 1,
	}
	s := NewSummarizer(llm)

	_, err := s.Stream(context.Background(), "prompt", []string{"ctx"}, nil)
	assert.ErrorIs(t, err, domain.ErrSummarization)
}

func TestSummarizer_NilLLM(t *testing.T) {
	s := NewSummarizer(nil)
	_, err := s.Stream(context.Background(), "prompt", nil, nil)
	assert.ErrorIs(t, err, domain.ErrSummarization)
}

// blockingLLM returns a stream that never delivers, so cancellation is
// the only way out.
type blockingLLM struct{ mockLLM }

func (b *blockingLLM) ChatStream(_ context.Context, _ []driven.ChatMessage, _ driven.ChatOptions) (<-chan string, <-chan error, error) {
	return make(chan string), make(chan error), nil
}

func TestSummarizer_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewSummarizer(&blockingLLM{})

	_, err := s.Stream(ctx, "prompt", nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
