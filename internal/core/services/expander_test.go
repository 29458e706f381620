package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/websearch-cli/internal/core/domain"
)

func TestExpand_OriginalAlwaysFirst(t *testing.T) {
	llm := &mockLLM{chatResponse: "history of trigonometry\ntrigonometry formulas"}
	e := NewQueryExpander(llm)

	queries := e.Expand(context.Background(), "what is trigonometry", 3)

	require.Len(t, queries, 3)
	assert.Equal(t, "what is trigonometry", queries[0].Text)
	assert.Equal(t, domain.OriginUser, queries[0].Origin)
	assert.Equal(t, "history of trigonometry", queries[1].Text)
	assert.Equal(t, domain.OriginExpansion, queries[1].Origin)
}

func TestExpand_LLMFailureDegradesToOriginal(t *testing.T) {
	llm := &mockLLM{chatErr: errors.New("model offline")}
	e := NewQueryExpander(llm)

	queries := e.Expand(context.Background(), "capital of France", 3)

	require.Len(t, queries, 1)
	assert.Equal(t, "capital of France", queries[0].Text)
	assert.Equal(t, domain.OriginUser, queries[0].Origin)
}

func TestExpand_NilLLM(t *testing.T) {
	e := NewQueryExpander(nil)

	queries := e.Expand(context.Background(), "capital of France", 3)

	require.Len(t, queries, 1)
	assert.Equal(t, "capital of France", queries[0].Text)
}

func TestExpand_EmptyOutput(t *testing.T) {
	llm := &mockLLM{chatResponse: "\n\n  \n"}
	e := NewQueryExpander(llm)

	queries := e.Expand(context.Background(), "capital of France", 3)

	require.Len(t, queries, 1)
	assert.Equal(t, "capital of France", queries[0].Text)
}

func TestExpand_StripsListMarkers(t *testing.T) {
	llm := &mockLLM{chatResponse: "1. first query\n2) second query\n- third query\n* fourth query"}
	e := NewQueryExpander(llm)

	queries := e.Expand(context.Background(), "prompt", 10)

	require.Len(t, queries, 5)
	assert.Equal(t, "first query", queries[1].Text)
	assert.Equal(t, "second query", queries[2].Text)
	assert.Equal(t, "third query", queries[3].Text)
	assert.Equal(t, "fourth query", queries[4].Text)
}

func TestExpand_RespectsMaxAuxiliary(t *testing.T) {
	llm := &mockLLM{chatResponse: "q1\nq2\nq3\nq4\nq5"}
	e := NewQueryExpander(llm)

	queries := e.Expand(context.Background(), "prompt", 2)

	require.Len(t, queries, 3) // original + 2 auxiliary
}

func TestExpand_SkipsDuplicatesOfPrompt(t *testing.T) {
	llm := &mockLLM{chatResponse: "Capital of France\nParis population"}
	e := NewQueryExpander(llm)

	queries := e.Expand(context.Background(), "capital of france", 3)

	require.Len(t, queries, 2)
	assert.Equal(t, "Paris population", queries[1].Text)
}

func TestExpandFromSummary(t *testing.T) {
	llm := &mockLLM{chatResponse: "paris landmarks\nparis history"}
	e := NewQueryExpander(llm)

	queries := e.ExpandFromSummary(context.Background(), "tell me about Paris", "Paris is the capital of France.", 3)

	require.Len(t, queries, 2)
	assert.Equal(t, domain.OriginExpansion, queries[0].Origin)
}

func TestExpandFromSummary_EmptySummary(t *testing.T) {
	llm := &mockLLM{chatResponse: "should not be called"}
	e := NewQueryExpander(llm)

	queries := e.ExpandFromSummary(context.Background(), "prompt", "   ", 3)

	assert.Empty(t, queries)
	assert.Empty(t, llm.lastPrompt())
}
