package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/showcase/internal/health"
	"github.com/joescharf/showcase/internal/output"
)

var checkMin int

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Score manifest entries by how completely they render",
	Long: `Load the manifest, fetch every documentation fragment, and score each
entry out of 100 (documentation, repository link, description, version,
and whether the entry is reachable). Exits with an error when any entry
scores below --min.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return checkRun(cmd.Context())
	},
}

func init() {
	checkCmd.Flags().IntVar(&checkMin, "min", 0, "Fail when an entry scores below this")
	rootCmd.AddCommand(checkCmd)
}

func checkRun(ctx context.Context) error {
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

	reports, err := health.Check(ctx, pages, viper.GetInt("build.concurrency"))
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		ui.Info("No projects in %s", pages.Loader().Path())
		return nil
	}

	failing := 0
	table := ui.Table([]string{"Title", "Health", "Problems"})
	for _, r := range reports {
		if r.Score.Total < checkMin {
			failing++
		}
		problems := strings.Join(r.Problems, ", ")
		if problems == "" {
			problems = "-"
		}
		_ = table.Append([]string{
			output.Cyan(r.Project.Title),
			output.HealthColor(r.Score.Total),
			problems,
		})
	}
	_ = table.Render()

	if failing > 0 {
		return fmt.Errorf("%d of %d entries score below %d", failing, len(reports), checkMin)
	}
	return nil
}
