package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ResearchInput is the input schema for both research tools.
type ResearchInput struct {
	Query string `json:"query" jsonschema:"the research question to answer from the web"`
}

// ResearchOutput is the output schema for both research tools.
type ResearchOutput struct {
	Answer string `json:"answer"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "web_search",
		Description: "Answer a question from web search result summaries. Fast, surface-level.",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "deep_research",
		Description: "Answer a question by searching the web, reading the result pages, and synthesizing a grounded answer. Slower but thorough.",
	}, s.handleDeepSearch)
}

// handleSearch handles the web_search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ResearchInput,
) (*mcp.CallToolResult, ResearchOutput, error) {
	answer, err := s.research.Search(ctx, input.Query, nil)
	if err != nil {
		return nil, ResearchOutput{}, err
	}
	return nil, ResearchOutput{Answer: answer}, nil
}

// handleDeepSearch handles the deep_research tool invocation.
// MCP tool calls have no streaming channel, so tokens are discarded and
// the complete answer is returned at the end.
func (s *Server) handleDeepSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ResearchInput,
) (*mcp.CallToolResult, ResearchOutput, error) {
	answer, err := s.research.DeepSearch(ctx, input.Query, nil)
	if err != nil {
		return nil, ResearchOutput{}, err
	}
	return nil, ResearchOutput{Answer: answer}, nil
}
