package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/websearch-cli/internal/core/domain"
	"github.com/custodia-labs/websearch-cli/internal/core/ports/driven"
	"github.com/custodia-labs/websearch-cli/internal/core/ports/driving"
	"github.com/custodia-labs/websearch-cli/internal/logger"
)

// Summarizer streams a grounded answer from the LLM, given the prompt
// and the assembled context. This is the one pipeline stage whose
// failure is surfaced to the caller: a summary with no grounding must
// not be passed off as a grounded one.
type Summarizer struct {
	llm driven.LLMService
}

// NewSummarizer creates a summarizer backed by the given LLM.
func NewSummarizer(llm driven.LLMService) *Summarizer {
	return &Summarizer{llm: llm}
}

// Stream builds one grounding message from the prompt and context,
// issues a streaming completion, and forwards each fragment to onToken
// in arrival order. Returns the accumulated answer.
func (s *Summarizer) Stream(ctx context.Context, prompt string, contextParts []string, onToken driving.TokenSink) (string, error) {
	if s.llm == nil {
		return "", fmt.Errorf("%w: no LLM service configured", domain.ErrSummarization)
	}

	message := buildGroundingMessage(prompt, contextParts)

	tokens, errs, err := s.llm.ChatStream(ctx, []driven.ChatMessage{{Role: "user", Content: message}}, driven.ChatOptions{})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrSummarization, err)
	}

	var answer strings.Builder
	for tokens != nil || errs != nil {
		select {
		case tok, ok := <-tokens:
			if !ok {
				tokens = nil
				continue
			}
			if tok == "" {
				continue
			}
			answer.WriteString(tok)
			if onToken != nil {
				onToken(tok)
			}
		case streamErr, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if streamErr != nil {
				return "", fmt.Errorf("%w: %v", domain.ErrSummarization, streamErr)
			}
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	logger.Debug("Summarization produced %d characters", answer.Len())
	return answer.String(), nil
}

// buildGroundingMessage interleaves the prompt with the gathered
// context. An empty context is stated explicitly so the model does not
// invent sources.
func buildGroundingMessage(prompt string, contextParts []string) string {
	var b strings.Builder

	b.WriteString(`You are a research assistant. Answer the user's prompt strictly from
the web material below. Do not add outside knowledge or guesses; if the
material is insufficient, say so and answer what it does support. Answer
directly, without phrases like "according to the search results". Match
the language of the prompt. Be clear, organised, and factual.`)

	fmt.Fprintf(&b, "\n\nCurrent date and time: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "\nPrompt: %s\n", prompt)

	filtered := make([]string, 0, len(contextParts))
	for _, part := range contextParts {
		if strings.TrimSpace(part) != "" {
			filtered = append(filtered, part)
		}
	}

	if len(filtered) == 0 {
		b.WriteString("\nWeb material: none was retrieved. State that no grounded information is available.\n")
		return b.String()
	}

	b.WriteString("\nWeb material:\n")
	for i, part := range filtered {
		fmt.Fprintf(&b, "\n[%d] %s\n", i+1, part)
	}

	return b.String()
}
