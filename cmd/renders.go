package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joescharf/showcase/internal/models"
	"github.com/joescharf/showcase/internal/output"
	"github.com/joescharf/showcase/internal/store"
)

var (
	rendersLimit  int
	rendersStatus string
	rendersTitle  string
	rendersKeep   int
)

var rendersCmd = &cobra.Command{
	Use:   "renders",
	Short: "List recent page renders",
	Long: `List page renders recorded by 'showcase serve' and 'showcase mcp',
newest first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return rendersRun(cmd.Context())
	},
}

var rendersPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete all but the newest render records",
	RunE: func(cmd *cobra.Command, args []string) error {
		return rendersPruneRun(cmd.Context())
	},
}

func init() {
	rendersCmd.Flags().IntVarP(&rendersLimit, "limit", "l", 20, "Maximum number of renders to show")
	rendersCmd.Flags().StringVar(&rendersStatus, "status", "", "Filter by status (ok, degraded, not_found, load_error, error)")
	rendersCmd.Flags().StringVar(&rendersTitle, "title", "", "Filter by project title")
	rendersPruneCmd.Flags().IntVar(&rendersKeep, "keep", 1000, "Number of newest records to keep")
	rendersCmd.AddCommand(rendersPruneCmd)
	rootCmd.AddCommand(rendersCmd)
}

func rendersRun(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := getStore(ctx)
	if err != nil {
		return err
	}

	filter := store.RenderListFilter{
		Status: models.RenderStatus(rendersStatus),
		Title:  rendersTitle,
		Limit:  rendersLimit,
	}
	renders, err := s.ListRenders(ctx, filter)
	if err != nil {
		return err
	}

	if len(renders) == 0 {
		ui.Info("No renders recorded")
		return nil
	}

	table := ui.Table([]string{"Time", "Status", "Mode", "Title", "Duration", "URL"})
	for _, r := range renders {
		title := r.Title
		if title == "" {
			title = "-"
		}
		_ = table.Append([]string{
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			output.StatusColor(string(r.Status)),
			r.Mode,
			title,
			output.DurationColor(r.DurationMS),
			r.URL,
		})
	}
	_ = table.Render()

	for _, r := range renders {
		if r.Error != "" {
			ui.VerboseLog("%s %s: %s", r.ID, r.URL, r.Error)
		}
	}
	return nil
}

func rendersPruneRun(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if rendersKeep < 0 {
		return fmt.Errorf("--keep must not be negative")
	}

	s, err := getStore(ctx)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would delete all but the newest %d render records", rendersKeep)
		return nil
	}

	n, err := s.PruneRenders(ctx, rendersKeep)
	if err != nil {
		return err
	}
	ui.Success("Deleted %d render records", n)
	return nil
}
