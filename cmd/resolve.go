package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joescharf/showcase/internal/output"
	"github.com/joescharf/showcase/internal/resolve"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <url>",
	Short: "Show which page a URL resolves to",
	Long: `Print the page mode, and for project pages the title, that a URL resolves
to under the configured resolver policy (resolver.policy).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return resolveRun(args[0])
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

func resolveRun(raw string) error {
	policy, err := resolverPolicy()
	if err != nil {
		return err
	}

	page, err := resolve.ResolveString(policy, raw)
	if err != nil {
		return err
	}

	ui.VerboseLog("policy: %s", policy.Name())
	switch page.Mode {
	case resolve.ModeProject:
		fmt.Fprintf(ui.Out, "%s %s\n", page.Mode, output.Cyan(page.Title))
	default:
		fmt.Fprintln(ui.Out, page.Mode)
	}
	return nil
}
