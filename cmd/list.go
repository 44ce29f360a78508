package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joescharf/showcase/internal/output"
	"github.com/joescharf/showcase/internal/site"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List the projects in the manifest",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listRun(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func listRun(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	policy, err := resolverPolicy()
	if err != nil {
		return err
	}
	pages, err := newPages(policy, newLogger())
	if err != nil {
		return err
	}

	projects, err := pages.Loader().Load(ctx)
	if err != nil {
		return err
	}

	if len(projects) == 0 {
		ui.Info("No projects in %s", pages.Loader().Path())
		return nil
	}

	for _, title := range site.DuplicateTitles(projects) {
		ui.Warning("Duplicate title %q: only the first entry is reachable", title)
	}

	table := ui.Table([]string{"Title", "Version", "Repository", "Link"})
	for _, p := range site.SortByTitle(projects) {
		version := p.Version
		if version == "" {
			version = "-"
		}
		_ = table.Append([]string{
			output.Cyan(p.Title),
			version,
			p.Repository,
			policy.Link(p.Title),
		})
	}
	_ = table.Render()

	fmt.Fprintf(ui.Out, "\n%d projects\n", len(projects))
	return nil
}
