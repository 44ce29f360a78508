package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/showcase/internal/output"
	"github.com/joescharf/showcase/internal/resolve"
	"github.com/joescharf/showcase/internal/site"
	"github.com/joescharf/showcase/internal/source"
	"github.com/joescharf/showcase/internal/store"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui        *output.UI
	dataStore store.Store

	verbose bool
	dryRun  bool
)

var rootCmd = &cobra.Command{
	Use:   "showcase",
	Short: "Render a project showcase site from a JSON manifest",
	Long: `showcase renders the index and per-project pages of a small project site.

Pages are built from share/data/projects.json and per-project documentation
fragments. Serve them live with 'showcase serve', write a static copy with
'showcase build', or expose them to agents with 'showcase mcp'.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would happen without making changes")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/showcase/config.yaml)")
	rootCmd.PersistentFlags().String("site", "", "Site directory containing share/ (overrides site.dir)")
	_ = viper.BindPFlag("site.dir", rootCmd.PersistentFlags().Lookup("site"))
}

func initConfig() {
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot find home directory: %v\n", err)
			os.Exit(1)
		}

		viper.AddConfigPath(filepath.Join(home, ".config", "showcase"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("SHOWCASE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	home, _ := os.UserHomeDir()
	setDefaults(filepath.Join(home, ".config", "showcase"))

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

// setDefaults registers every config key with its default value.
func setDefaults(stateDir string) {
	defaults := site.DefaultConfig()

	viper.SetDefault("state_dir", stateDir)
	viper.SetDefault("db_path", filepath.Join(stateDir, "showcase.db"))
	viper.SetDefault("site.dir", ".")
	viper.SetDefault("site.base_url", "")
	viper.SetDefault("site.manifest_path", defaults.ManifestPath)
	viper.SetDefault("site.docs_path", defaults.DocsPath)
	viper.SetDefault("site.repository_icon", defaults.RepositoryIcon)
	viper.SetDefault("site.layout", "")
	viper.SetDefault("resolver.policy", resolve.PolicyQuery)
	viper.SetDefault("manifest.strict", false)
	viper.SetDefault("docs.format", string(site.DocsHTML))
	viper.SetDefault("docs.sanitize", false)
	viper.SetDefault("port", 8080)
	viper.SetDefault("build.out", "public")
	viper.SetDefault("build.concurrency", 4)
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
	ui.DryRun = dryRun

	// The render log is opened lazily, only by commands that need it.
}

// siteDir returns the absolute site root.
func siteDir() string {
	dir := viper.GetString("site.dir")
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}

// newLogger returns the structured logger used by the server and builder.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(ui.ErrOut, &slog.HandlerOptions{Level: level}))
}

// siteConfig builds the page builder configuration from viper.
func siteConfig() (site.Config, error) {
	cfg := site.DefaultConfig()
	cfg.ManifestPath = viper.GetString("site.manifest_path")
	cfg.DocsPath = viper.GetString("site.docs_path")
	cfg.RepositoryIcon = viper.GetString("site.repository_icon")
	cfg.Strict = viper.GetBool("manifest.strict")
	cfg.Sanitize = viper.GetBool("docs.sanitize")

	switch format := site.DocsFormat(viper.GetString("docs.format")); format {
	case site.DocsHTML, site.DocsMarkdown:
		cfg.DocsFormat = format
	default:
		return cfg, fmt.Errorf("docs.format: unknown format %q (want %q or %q)", format, site.DocsHTML, site.DocsMarkdown)
	}
	return cfg, nil
}

// resolverPolicy returns the configured resolver policy.
func resolverPolicy() (resolve.Policy, error) {
	return resolve.ParsePolicy(viper.GetString("resolver.policy"))
}

// newPages builds a page builder from config, linking with links.
func newPages(links resolve.Policy, logger *slog.Logger) (*site.Builder, error) {
	cfg, err := siteConfig()
	if err != nil {
		return nil, err
	}

	src, err := source.Open(viper.GetString("site.base_url"), siteDir())
	if err != nil {
		return nil, fmt.Errorf("open site source: %w", err)
	}

	opts := []site.Option{site.WithLinks(links), site.WithLogger(logger)}
	if layoutPath := viper.GetString("site.layout"); layoutPath != "" {
		layout, err := os.ReadFile(layoutPath)
		if err != nil {
			return nil, fmt.Errorf("read layout: %w", err)
		}
		opts = append(opts, site.WithLayout(layout))
	}
	return site.NewBuilder(src, cfg, opts...), nil
}

// getStore returns the shared render log, initializing it on first call.
func getStore(ctx context.Context) (store.Store, error) {
	if dataStore != nil {
		return dataStore, nil
	}

	dbPath := viper.GetString("db_path")
	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	dataStore = s
	return dataStore, nil
}
