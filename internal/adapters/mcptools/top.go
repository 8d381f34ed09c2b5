package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// TopTool handles the top_scores tool.
type TopTool struct {
	board Leaderboard
}

// NewTopTool creates a TopTool.
func NewTopTool(b Leaderboard) *TopTool {
	return &TopTool{board: b}
}

// Definition returns the MCP tool definition for top_scores.
func (t *TopTool) Definition() mcp.Tool {
	return mcp.NewTool("top_scores",
		mcp.WithDescription("List the best leaderboard entries, highest score first."),
		mcp.WithNumber("limit",
			mcp.Description("How many entries to return (default 5)"),
		),
	)
}

// Handle processes the top_scores tool call.
func (t *TopTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := t.board.TopN(ctx, int(numberArg(req, "limit", 0)))
	if err != nil {
		return observe("top_scores", mcp.NewToolResultError(fmt.Sprintf("failed to read leaderboard: %v", err)))
	}
	if len(entries) == 0 {
		return observe("top_scores", mcp.NewToolResultText("The leaderboard is empty."))
	}

	var sb strings.Builder
	sb.WriteString("## Leaderboard\n\n")
	for _, e := range entries {
		fmt.Fprintf(&sb, "%d. %s: %.1f%%\n", e.Rank, e.Name, e.Score)
	}
	return observe("top_scores", mcp.NewToolResultText(sb.String()))
}
