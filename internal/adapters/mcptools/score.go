package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/okian/perfectcircle/internal/domain/scoring"
)

// ScoreTool handles the score_path tool.
type ScoreTool struct {
	scorer Scorer
}

// NewScoreTool creates a ScoreTool.
func NewScoreTool(s Scorer) *ScoreTool {
	return &ScoreTool{scorer: s}
}

// Definition returns the MCP tool definition for score_path.
func (t *ScoreTool) Definition() mcp.Tool {
	return mcp.NewTool("score_path",
		mcp.WithDescription("Score a drawn path on a square canvas. Returns the score (0-99), its bucket and the penalty breakdown."),
		mcp.WithNumber("width",
			mcp.Required(),
			mcp.Description("Canvas side in pixels"),
		),
		mcp.WithArray("points",
			mcp.Required(),
			mcp.Description("Pointer samples in drawing order"),
			mcp.Items(pointItems),
		),
	)
}

// Handle processes the score_path tool call.
func (t *ScoreTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := pathArg(req)
	if err != nil {
		return observe("score_path", mcp.NewToolResultError(err.Error()))
	}
	rep, err := t.scorer.Evaluate(ctx, numberArg(req, "width", 0), path)
	if err != nil {
		return observe("score_path", mcp.NewToolResultError(fmt.Sprintf("failed to score path: %v", err)))
	}
	return observe("score_path", mcp.NewToolResultText(formatReport(rep, t.scorer.Eligible(rep.Result))))
}

func formatReport(rep scoring.Report, eligible bool) string {
	var sb strings.Builder
	sev := scoring.Classify(rep.Value)
	if rep.Valid {
		fmt.Fprintf(&sb, "Score: %.1f%% (%s)\n", rep.Value, sev.Label)
	} else {
		sb.WriteString("Score: not a circle\n")
	}
	fmt.Fprintf(&sb, "- Samples: %d\n", rep.Samples)
	fmt.Fprintf(&sb, "- Consistency: %.1f\n", rep.Consistency)
	fmt.Fprintf(&sb, "- Linearity penalty: %.1f\n", rep.Linearity)
	fmt.Fprintf(&sb, "- Squareness penalty: %.1f\n", rep.Squareness)
	fmt.Fprintf(&sb, "- Closure bonus: %.1f\n", rep.Closure)
	fmt.Fprintf(&sb, "- Enclosure penalty: %.1f\n", rep.Enclosure)
	if rep.TooClose {
		sb.WriteString("- Too close to the centre\n")
	}
	if rep.InvalidPath {
		sb.WriteString("- Path failed validation\n")
	}
	fmt.Fprintf(&sb, "- Eligible for the leaderboard: %t\n", eligible)
	return sb.String()
}
