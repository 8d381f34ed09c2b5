package mcptools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	service "github.com/okian/perfectcircle/internal/app"
)

// SubmitTool handles the submit_score tool.
type SubmitTool struct {
	submitter Submitter
}

// NewSubmitTool creates a SubmitTool.
func NewSubmitTool(s Submitter) *SubmitTool {
	return &SubmitTool{submitter: s}
}

// Definition returns the MCP tool definition for submit_score.
func (t *SubmitTool) Definition() mcp.Tool {
	return mcp.NewTool("submit_score",
		mcp.WithDescription("Submit a score to the leaderboard. When points are given the server score replaces the claimed one. "+
			"Only scores above the submit threshold are kept."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Player name, at most 20 characters"),
		),
		mcp.WithNumber("score",
			mcp.Description("Claimed score, ignored when points are given"),
		),
		mcp.WithNumber("width",
			mcp.Description("Canvas side in pixels, required with points"),
		),
		mcp.WithArray("points",
			mcp.Description("The drawn path to re-score"),
			mcp.Items(pointItems),
		),
		mcp.WithString("submission_id",
			mcp.Description("Idempotency key; generated when empty"),
		),
	)
}

// Handle processes the submit_score tool call.
func (t *SubmitTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	if name == "" {
		return observe("submit_score", mcp.NewToolResultError("name is required"))
	}
	path, err := pathArg(req)
	if err != nil {
		return observe("submit_score", mcp.NewToolResultError(err.Error()))
	}

	res, err := t.submitter.Submit(ctx, service.SubmitRequest{
		ID:    req.GetString("submission_id", ""),
		Name:  name,
		Score: numberArg(req, "score", 0),
		Width: numberArg(req, "width", 0),
		Path:  path,
	})
	if err != nil {
		return observe("submit_score", mcp.NewToolResultError(fmt.Sprintf("submission rejected: %v", err)))
	}
	if res.Duplicate {
		return observe("submit_score", mcp.NewToolResultText(fmt.Sprintf("Already submitted as %s.", res.ID)))
	}
	return observe("submit_score", mcp.NewToolResultText(fmt.Sprintf("Queued %s: %s scored %.1f%%.", res.ID, res.Name, res.Score)))
}
