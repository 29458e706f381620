package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/websearch-cli/internal/core/domain"
	"github.com/custodia-labs/websearch-cli/internal/core/ports/driven"
	"github.com/custodia-labs/websearch-cli/internal/logger"
)

// DefaultMaxAuxiliary is the default number of auxiliary queries
// generated per prompt.
const DefaultMaxAuxiliary = 3

// QueryExpander turns one user prompt into an ordered set of search
// queries: the original prompt first, then LLM-generated auxiliary
// queries. Expansion is an optimisation, never a hard dependency: any
// LLM failure degrades to the single original query.
type QueryExpander struct {
	llm driven.LLMService
}

// NewQueryExpander creates a query expander backed by the given LLM.
// The llm parameter is optional (can be nil); expansion then always
// returns the original query alone.
func NewQueryExpander(llm driven.LLMService) *QueryExpander {
	return &QueryExpander{llm: llm}
}

// Expand returns the original prompt followed by up to maxAuxiliary
// generated sub-queries. The first element is always the raw prompt.
func (e *QueryExpander) Expand(ctx context.Context, prompt string, maxAuxiliary int) []domain.Query {
	queries := []domain.Query{domain.UserQuery(prompt)}
	if e.llm == nil || maxAuxiliary <= 0 {
		return queries
	}

	request := fmt.Sprintf(`You are an expert search query generator.
Current date: %s

Decompose the user's research prompt into at most %d focused web search
queries that together cover its distinct aspects. Keep each query short
and keyword-oriented. Use the same language as the prompt. If the prompt
is a single simple question, output nothing.
Output ONLY the queries, one per line, without numbering, bullets, or
explanations.

Prompt: %s`, time.Now().Format("2006-01-02"), maxAuxiliary, prompt)

	raw, err := e.llm.Chat(ctx, []driven.ChatMessage{{Role: "user", Content: request}}, driven.ChatOptions{MaxTokens: 200})
	if err != nil {
		logger.Warn("Query expansion failed: %v (using original query)", err)
		return queries
	}

	return append(queries, parseQueryList(raw, prompt, maxAuxiliary)...)
}

// ExpandFromSummary generates follow-up queries from a first-round
// answer, used to widen a thin corpus during deep search.
func (e *QueryExpander) ExpandFromSummary(ctx context.Context, prompt, summary string, maxAuxiliary int) []domain.Query {
	if e.llm == nil || maxAuxiliary <= 0 || strings.TrimSpace(summary) == "" {
		return nil
	}

	request := fmt.Sprintf(`You are an expert search query generator.

Given a research prompt and a summary of first-round search results,
produce at most %d follow-up web search queries that dig into aspects
the summary leaves shallow or unanswered. Use the same language as the
prompt. Output ONLY the queries, one per line, without numbering,
bullets, or explanations.

Prompt: %s

Summary: %s`, maxAuxiliary, prompt, summary)

	raw, err := e.llm.Chat(ctx, []driven.ChatMessage{{Role: "user", Content: request}}, driven.ChatOptions{MaxTokens: 200})
	if err != nil {
		logger.Warn("Follow-up expansion failed: %v", err)
		return nil
	}

	return parseQueryList(raw, prompt, maxAuxiliary)
}

// parseQueryList tolerantly parses one query per line from LLM output,
// stripping numbering and bullets, skipping duplicates of the prompt.
func parseQueryList(raw, prompt string, limit int) []domain.Query {
	var queries []domain.Query
	seen := map[string]bool{strings.ToLower(strings.TrimSpace(prompt)): true}

	for _, line := range strings.Split(raw, "\n") {
		line = stripListMarker(strings.TrimSpace(line))
		if line == "" {
			continue
		}
		key := strings.ToLower(line)
		if seen[key] {
			continue
		}
		seen[key] = true
		queries = append(queries, domain.ExpandedQuery(line))
		if len(queries) == limit {
			break
		}
	}

	return queries
}

// stripListMarker removes leading "1.", "2)", "-", "*" style markers
// that models add despite instructions.
func stripListMarker(line string) string {
	trimmed := strings.TrimLeft(line, "-*• \t")
	i := 0
	for i < len(trimmed) && trimmed[i] >= '0' && trimmed[i] <= '9' {
		i++
	}
	if i > 0 && i < len(trimmed) && (trimmed[i] == '.' || trimmed[i] == ')') {
		trimmed = trimmed[i+1:]
	}
	return strings.TrimSpace(trimmed)
}
