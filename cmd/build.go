package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/showcase/internal/build"
	"github.com/joescharf/showcase/internal/resolve"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Write a static copy of the showcase",
	Long: `Render index.html and one <title>.html page per project into the output
directory, and copy <site.dir>/share alongside them.

Static pages always link with the path policy, since a static host can not
vary a file by query string. A project whose documentation can not be
fetched is still built, with a warning.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return buildRun(cmd.Context())
	},
}

func init() {
	buildCmd.Flags().StringP("out", "o", "public", "output directory")
	buildCmd.Flags().IntP("concurrency", "c", 4, "pages rendered in parallel")
	_ = viper.BindPFlag("build.out", buildCmd.Flags().Lookup("out"))
	_ = viper.BindPFlag("build.concurrency", buildCmd.Flags().Lookup("concurrency"))
	rootCmd.AddCommand(buildCmd)
}

func buildRun(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	pages, err := newPages(resolve.PathPolicy{}, newLogger())
	if err != nil {
		return err
	}

	outDir, err := filepath.Abs(viper.GetString("build.out"))
	if err != nil {
		return fmt.Errorf("output directory: %w", err)
	}
	if !dryRun {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	osFs := afero.NewOsFs()
	opts := build.Options{
		Concurrency: viper.GetInt("build.concurrency"),
		DryRun:      dryRun,
		Assets:      afero.NewReadOnlyFs(afero.NewBasePathFs(osFs, siteDir())),
	}

	res, err := build.Run(ctx, pages, afero.NewBasePathFs(osFs, outDir), opts)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}

	for _, w := range res.Warnings {
		ui.Warning("%s: %v", w.Title, w.Err)
	}
	for _, title := range res.Skipped {
		ui.Warning("Skipped %q: title can not be a static page name", title)
	}

	if dryRun {
		for _, f := range res.Files {
			ui.DryRunMsg("Would write %s", filepath.Join(outDir, f))
		}
		return nil
	}

	for _, f := range res.Files {
		ui.VerboseLog("%s", filepath.Join(outDir, f))
	}
	ui.Success("Wrote %d files to %s", len(res.Files), outDir)
	return nil
}
