// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes specgraph analyses for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/specgraph/internal/apperr"
	"github.com/starford/specgraph/internal/specservice"
)

// ProposalFormatURI is the resource URI of ProposalFormatContract.
const ProposalFormatURI = "specgraph://proposal-format"

// Server wraps the MCP server with specgraph tools.
type Server struct {
	mcp *server.MCPServer
	svc *specservice.Service
}

// New creates a new MCP server with all specgraph tools registered.
func New(svc *specservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"specgraph",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("analyze_impact",
		mcp.WithDescription("Analyse which specs are affected when the given spec changes, "+
			"with a 1-10 risk score and review recommendations."),
		mcp.WithString("spec_id", mcp.Required(), mcp.Description("Spec id, e.g. auth/login")),
	), s.analyzeImpact)

	s.mcp.AddTool(mcp.NewTool("simulate_change",
		mcp.WithDescription("Dry-run a Markdown change proposal against the dependency graph and "+
			"report how the target's risk and blast radius would move. Read the "+
			ProposalFormatURI+" resource or call get_proposal_format for the syntax."),
		mcp.WithString("spec_id", mcp.Required(), mcp.Description("Spec whose impact is compared before and after")),
		mcp.WithString("proposal", mcp.Required(), mcp.Description("Markdown proposal with ADDED, MODIFIED and REMOVED sections")),
	), s.simulateChange)

	s.mcp.AddTool(mcp.NewTool("project_health",
		mcp.WithDescription("Report graph size, most connected specs, orphans, cycles and a 0-100 health score."),
	), s.projectHealth)

	s.mcp.AddTool(mcp.NewTool("find_cycles",
		mcp.WithDescription("List circular dependencies between specs."),
	), s.findCycles)

	s.mcp.AddTool(mcp.NewTool("search_specs",
		mcp.WithDescription("Text search through spec ids, titles and bodies."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchSpecs)

	s.mcp.AddTool(mcp.NewTool("get_proposal_format",
		mcp.WithDescription("Returns the change proposal syntax accepted by simulate_change."),
	), s.getProposalFormat)

	s.mcp.AddResource(
		mcp.NewResource(ProposalFormatURI, "Change Proposal Format",
			mcp.WithResourceDescription("Syntax of change proposals and spec dependency headers."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readProposalFormatResource,
	)

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

// jsonResult renders v as indented JSON. Lookup and input errors become tool
// errors so the model can correct itself; anything else is a protocol error.
func jsonResult(v any, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) || errors.Is(err, apperr.ErrInvalid) ||
			errors.Is(err, specservice.ErrSearchDisabled) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return nil, err
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) analyzeImpact(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("spec_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.svc.Impact(ctx, id))
}

func (s *Server) simulateChange(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("spec_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := req.RequireString("proposal")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.svc.SimulateProposal(ctx, id, text))
}

func (s *Server) projectHealth(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Report(ctx))
}

func (s *Server) findCycles(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cycles, err := s.svc.Cycles(ctx)
	if err == nil && len(cycles) == 0 {
		return mcp.NewToolResultText("no cycles found"), nil
	}
	return jsonResult(cycles, err)
}

func (s *Server) searchSpecs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.svc.Search(ctx, query, 20))
}

func (s *Server) getProposalFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ProposalFormatContract), nil
}

func (s *Server) readProposalFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ProposalFormatURI,
			MIMEType: "text/markdown",
			Text:     ProposalFormatContract,
		},
	}, nil
}
