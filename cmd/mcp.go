package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/joescharf/showcase/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

This lets MCP clients list projects and render showcase pages. Configure
a client with:

  {
    "mcpServers": {
      "showcase": { "command": "showcase", "args": ["mcp"] }
    }
  }

Available tools: showcase_list_projects, showcase_get_project,
showcase_render_page`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return mcpRun(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

// newMCPServer builds the MCP server from config.
func newMCPServer(ctx context.Context) (*mcp.Server, error) {
	policy, err := resolverPolicy()
	if err != nil {
		return nil, err
	}
	pages, err := newPages(policy, newLogger())
	if err != nil {
		return nil, err
	}
	return mcp.NewServer(pages, policy, recorderFor(ctx), buildVersion), nil
}

func mcpRun(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	srv, err := newMCPServer(ctx)
	if err != nil {
		return err
	}
	return srv.ServeStdio(ctx)
}
