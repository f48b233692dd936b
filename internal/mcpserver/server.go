// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes patrol tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ronda/internal/apperr"
	"github.com/starford/ronda/internal/engine"
	"github.com/starford/ronda/internal/store"
)

// Server wraps the MCP server with patrol tools.
type Server struct {
	mcp *server.MCPServer
	eng *engine.Engine
	db  store.Catalog
}

// New creates a new MCP server with all patrol tools registered.
func New(eng *engine.Engine, db store.Catalog) *Server {
	s := &Server{eng: eng, db: db}

	s.mcp = server.NewMCPServer(
		"Ronda",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_checkpoints",
		mcp.WithDescription("List all configured patrol checkpoints."),
	), s.listCheckpoints)

	s.mcp.AddTool(mcp.NewTool("start_patrol",
		mcp.WithDescription("Start a patrol session over the configured checkpoints. "+
			"Fails while another session is active."),
	), s.startPatrol)

	s.mcp.AddTool(mcp.NewTool("end_patrol",
		mcp.WithDescription("End the active patrol session. Unverified checkpoints are logged as missed."),
	), s.endPatrol)

	s.mcp.AddTool(mcp.NewTool("verify_checkpoint",
		mcp.WithDescription("Manually verify a checkpoint in the active patrol session."),
		mcp.WithString("checkpoint_id", mcp.Required(), mcp.Description("ID of the checkpoint to verify")),
	), s.verifyCheckpoint)

	s.mcp.AddTool(mcp.NewTool("patrol_status",
		mcp.WithDescription("Get the state of the active patrol session (checkpoints, deadlines, progress)."),
	), s.patrolStatus)

	s.mcp.AddTool(mcp.NewTool("patrol_report",
		mcp.WithDescription("Render a human-readable progress report for the active patrol session."),
	), s.patrolReport)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listCheckpoints(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cps, err := s.db.ListCheckpoints()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(cps) == 0 {
		return mcp.NewToolResultText("no checkpoints configured"), nil
	}
	var lines []string
	for _, cp := range cps {
		lines = append(lines, fmt.Sprintf("%s\t%s\t(%.5f, %.5f)\tradius %.0f m",
			cp.ID, cp.Name, cp.Latitude, cp.Longitude, cp.RadiusMeters))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) startPatrol(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cps, err := s.db.ListCheckpoints()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	view, err := s.eng.Start(ctx, cps)
	if err != nil {
		return mcp.NewToolResultError(toolError(err)), nil
	}
	out, _ := json.MarshalIndent(view, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) endPatrol(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, ok := s.eng.Status(); !ok {
		return mcp.NewToolResultError("no active patrol session"), nil
	}
	s.eng.End(ctx, true)
	return mcp.NewToolResultText("patrol ended"), nil
}

func (s *Server) verifyCheckpoint(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("checkpoint_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.eng.Verify(ctx, id); err != nil {
		return mcp.NewToolResultError(toolError(err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("verified: %s", id)), nil
}

func (s *Server) patrolStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	view, ok := s.eng.Status()
	if !ok {
		return mcp.NewToolResultError("no active patrol session"), nil
	}
	out, _ := json.MarshalIndent(view, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) patrolReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := s.eng.Report()
	if err != nil {
		return mcp.NewToolResultError(toolError(err)), nil
	}
	return mcp.NewToolResultText(report), nil
}

// toolError turns domain errors into stable tool-facing messages.
func toolError(err error) string {
	switch {
	case errors.Is(err, apperr.ErrSessionActive):
		return "a patrol session is already active"
	case errors.Is(err, apperr.ErrNoActiveSession):
		return "no active patrol session"
	case errors.Is(err, apperr.ErrNotFound):
		return "checkpoint not found in the active session"
	case errors.Is(err, apperr.ErrAlreadyResolved):
		return "checkpoint already resolved"
	default:
		return err.Error()
	}
}
