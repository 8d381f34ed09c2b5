// Package mcptools exposes scoring and the leaderboard as MCP tools.
//
// Each tool is a struct holding its dependency, a Definition returning the
// mcp.Tool schema and a Handle processing the call. Handlers report bad
// input and service failures as tool errors, never as protocol errors.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	service "github.com/okian/perfectcircle/internal/app"
	"github.com/okian/perfectcircle/internal/domain/geometry"
	"github.com/okian/perfectcircle/internal/domain/scoring"
	"github.com/okian/perfectcircle/internal/domain/types"
	"github.com/okian/perfectcircle/pkg/metrics"
)

// Version is reported to MCP clients.
var Version = "dev"

// Scorer evaluates complete paths.
type Scorer interface {
	Evaluate(ctx context.Context, width float64, path geometry.Path) (scoring.Report, error)
	Eligible(r scoring.Result) bool
}

// Submitter queues leaderboard submissions.
type Submitter interface {
	Submit(ctx context.Context, req service.SubmitRequest) (service.SubmitResult, error)
}

// Leaderboard reads the top entries.
type Leaderboard interface {
	TopN(ctx context.Context, n int) ([]types.Entry, error)
}

// Backend is everything the tool set needs.
type Backend interface {
	Scorer
	Submitter
	Leaderboard
}

// NewServer creates the MCP server with every tool registered.
func NewServer(b Backend) *server.MCPServer {
	s := server.NewMCPServer(
		"perfect-circle",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions("Score hand-drawn circles and manage the perfect-circle leaderboard. "+
			"Points are canvas pixel coordinates; width is the square canvas side."),
	)

	score := NewScoreTool(b)
	s.AddTool(score.Definition(), score.Handle)

	submit := NewSubmitTool(b)
	s.AddTool(submit.Definition(), submit.Handle)

	top := NewTopTool(b)
	s.AddTool(top.Definition(), top.Handle)

	return s
}

// pointItems is the JSON schema of one path sample.
var pointItems = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"x": map[string]any{"type": "number"},
		"y": map[string]any{"type": "number"},
	},
	"required": []string{"x", "y"},
}

// pathArg decodes the points argument. A missing argument yields a nil path.
func pathArg(req mcp.CallToolRequest) (geometry.Path, error) {
	raw, ok := req.GetArguments()["points"]
	if !ok || raw == nil {
		return nil, nil
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("points: %w", err)
	}
	var path geometry.Path
	if err := json.Unmarshal(b, &path); err != nil {
		return nil, fmt.Errorf("points must be an array of {x, y}: %w", err)
	}
	return path, nil
}

// numberArg extracts a number argument (JSON numbers are float64).
func numberArg(req mcp.CallToolRequest, key string, def float64) float64 {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return def
	}
	return v
}

// observe counts a finished tool call by outcome.
func observe(tool string, res *mcp.CallToolResult) (*mcp.CallToolResult, error) {
	status := "ok"
	if res.IsError {
		status = "error"
	}
	metrics.RecordToolCall(tool, status)
	return res, nil
}
