package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/joescharf/showcase/internal/resolve"
	"github.com/joescharf/showcase/internal/site"
)

// Server exposes the showcase page builder as MCP tools.
type Server struct {
	pages    *site.Builder
	policy   resolve.Policy
	recorder site.Recorder
	logger   *slog.Logger
	version  string
}

// NewServer creates the MCP server wrapper. recorder may be nil.
func NewServer(pages *site.Builder, policy resolve.Policy, recorder site.Recorder, version string) *Server {
	return &Server{
		pages:    pages,
		policy:   policy,
		recorder: recorder,
		logger:   slog.Default(),
		version:  version,
	}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("showcase", s.version, server.WithToolCapabilities(true))

	srv.AddTool(s.listProjectsTool())
	srv.AddTool(s.getProjectTool())
	srv.AddTool(s.renderPageTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	stdioServer := server.NewStdioServer(s.MCPServer())
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

type projectOut struct {
	Title       string `json:"title"`
	Repository  string `json:"repository"`
	Description string `json:"description"`
	Version     string `json:"version,omitempty"`
	Link        string `json:"link"`
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// showcase_list_projects
func (s *Server) listProjectsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("showcase_list_projects",
		mcp.WithDescription("List every project in the site manifest, sorted by title. Returns a JSON array with title, repository, description, version and page link."),
	)
	return tool, s.handleListProjects
}

func (s *Server) handleListProjects(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, err := s.pages.Loader().Load(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load manifest: %v", err)), nil
	}

	sorted := site.SortByTitle(projects)
	out := make([]projectOut, len(sorted))
	for i, p := range sorted {
		out[i] = projectOut{
			Title:       p.Title,
			Repository:  p.Repository,
			Description: p.Description,
			Version:     p.Version,
			Link:        s.pages.Links().Link(p.Title),
		}
	}
	return jsonResult(out)
}

// showcase_get_project
func (s *Server) getProjectTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("showcase_get_project",
		mcp.WithDescription("Get one project record by exact title. When titles repeat, the first record wins."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Project title")),
	)
	return tool, s.handleGetProject
}

func (s *Server) handleGetProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := request.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	projects, err := s.pages.Loader().Load(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load manifest: %v", err)), nil
	}
	p, err := site.Select(projects, title)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(projectOut{
		Title:       p.Title,
		Repository:  p.Repository,
		Description: p.Description,
		Version:     p.Version,
		Link:        s.pages.Links().Link(p.Title),
	})
}

// showcase_render_page
func (s *Server) renderPageTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("showcase_render_page",
		mcp.WithDescription("Render the page a site URL refers to and return its HTML. Missing documentation degrades the page instead of failing."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Page URL or path, e.g. /index.html?title=foo")),
	)
	return tool, s.handleRenderPage
}

func (s *Server) handleRenderPage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawURL, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target, err := resolve.ResolveString(s.policy, rawURL)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	start := time.Now()
	page, err := s.pages.Render(ctx, target)
	site.Record(context.WithoutCancel(ctx), s.recorder, s.logger,
		site.NewRenderRecord(rawURL, target, page, err, time.Since(start)))
	if err != nil {
		var nf *site.NotFoundError
		if errors.As(err, &nf) {
			return mcp.NewToolResultError(fmt.Sprintf("no project titled %q", nf.Title)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to render %s: %v", rawURL, err)), nil
	}

	out, err := page.HTML()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to serialize page: %v", err)), nil
	}
	if page.DocErr != nil {
		return &mcp.CallToolResult{Content: []mcp.Content{
			mcp.NewTextContent(out),
			mcp.NewTextContent("warning: " + page.DocErr.Error()),
		}}, nil
	}
	return mcp.NewToolResultText(out), nil
}
