package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"text/template"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configForce bool

// configDirFunc returns the config directory path, replaceable in tests.
var configDirFunc = defaultConfigDir

func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "showcase"), nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or manage configuration",
	Long: `Show or manage showcase configuration.

Running bare 'showcase config' is the same as 'showcase config show'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config file with commented defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configInitRun()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration with sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open config file in $EDITOR",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configEditRun()
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	rootCmd.AddCommand(configCmd)
}

// configTemplate is the template for generating config.yaml with comments.
const configTemplate = `# showcase configuration
# See: showcase config show (for effective values and sources)

# State/data directory (default: ~/.config/showcase)
# state_dir: {{ .StateDir }}

# Render log database path (default: ~/.config/showcase/showcase.db)
# db_path: {{ .DBPath }}

site:
  # Local site root holding share/
  dir: "{{ .SiteDir }}"

  # Fetch the manifest and docs over HTTP from this origin instead of site.dir
  base_url: "{{ .BaseURL }}"

  manifest_path: "{{ .ManifestPath }}"
  docs_path: "{{ .DocsPath }}"
  repository_icon: "{{ .RepositoryIcon }}"

  # Optional HTML layout file rendered around every page
  layout: "{{ .Layout }}"

resolver:
  # "query" (?title=foo) or "path" (/foo.html)
  policy: "{{ .Policy }}"

manifest:
  # Reject manifests with duplicate project titles (default: false)
  strict: {{ .Strict }}

docs:
  # "html" injects {title}.html raw, "markdown" renders {title}.md
  format: "{{ .DocsFormat }}"

  # Sanitize documentation fragments (default: false)
  sanitize: {{ .Sanitize }}

# HTTP port for 'showcase serve' (default: 8080)
port: {{ .Port }}

build:
  # Output directory for 'showcase build' (default: public)
  out: "{{ .BuildOut }}"

  # Pages rendered in parallel (default: 4)
  concurrency: {{ .BuildConcurrency }}
`

type configTemplateData struct {
	StateDir         string
	DBPath           string
	SiteDir          string
	BaseURL          string
	ManifestPath     string
	DocsPath         string
	RepositoryIcon   string
	Layout           string
	Policy           string
	Strict           bool
	DocsFormat       string
	Sanitize         bool
	Port             int
	BuildOut         string
	BuildConcurrency int
}

func configFilePath() (string, error) {
	dir, err := configDirFunc()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func configInitRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	// Check if file already exists
	if _, err := os.Stat(cfgPath); err == nil {
		if !configForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", cfgPath)
		}
		ui.Warning("Overwriting existing config file")
	}

	// Build template data from current viper values
	data := configTemplateData{
		StateDir:         viper.GetString("state_dir"),
		DBPath:           viper.GetString("db_path"),
		SiteDir:          viper.GetString("site.dir"),
		BaseURL:          viper.GetString("site.base_url"),
		ManifestPath:     viper.GetString("site.manifest_path"),
		DocsPath:         viper.GetString("site.docs_path"),
		RepositoryIcon:   viper.GetString("site.repository_icon"),
		Layout:           viper.GetString("site.layout"),
		Policy:           viper.GetString("resolver.policy"),
		Strict:           viper.GetBool("manifest.strict"),
		DocsFormat:       viper.GetString("docs.format"),
		Sanitize:         viper.GetBool("docs.sanitize"),
		Port:             viper.GetInt("port"),
		BuildOut:         viper.GetString("build.out"),
		BuildConcurrency: viper.GetInt("build.concurrency"),
	}

	tmpl, err := template.New("config").Parse(configTemplate)
	if err != nil {
		return fmt.Errorf("template parse error: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("template execute error: %w", err)
	}

	if dryRun {
		ui.DryRunMsg("Would create config file: %s", cfgPath)
		fmt.Fprintln(ui.Out)
		fmt.Fprint(ui.Out, buf.String())
		return nil
	}

	// Create config directory
	dir := filepath.Dir(cfgPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(cfgPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	ui.Success("Config file created: %s", cfgPath)
	fmt.Fprintln(ui.Out)
	fmt.Fprint(ui.Out, buf.String())
	return nil
}

// configKeyInfo describes a config key for display purposes.
type configKeyInfo struct {
	Key    string
	EnvVar string
}

var configKeys = []configKeyInfo{
	{Key: "state_dir", EnvVar: "SHOWCASE_STATE_DIR"},
	{Key: "db_path", EnvVar: "SHOWCASE_DB_PATH"},
	{Key: "site.dir", EnvVar: "SHOWCASE_SITE_DIR"},
	{Key: "site.base_url", EnvVar: "SHOWCASE_SITE_BASE_URL"},
	{Key: "site.manifest_path", EnvVar: "SHOWCASE_SITE_MANIFEST_PATH"},
	{Key: "site.docs_path", EnvVar: "SHOWCASE_SITE_DOCS_PATH"},
	{Key: "site.repository_icon", EnvVar: "SHOWCASE_SITE_REPOSITORY_ICON"},
	{Key: "site.layout", EnvVar: "SHOWCASE_SITE_LAYOUT"},
	{Key: "resolver.policy", EnvVar: "SHOWCASE_RESOLVER_POLICY"},
	{Key: "manifest.strict", EnvVar: "SHOWCASE_MANIFEST_STRICT"},
	{Key: "docs.format", EnvVar: "SHOWCASE_DOCS_FORMAT"},
	{Key: "docs.sanitize", EnvVar: "SHOWCASE_DOCS_SANITIZE"},
	{Key: "port", EnvVar: "SHOWCASE_PORT"},
	{Key: "build.out", EnvVar: "SHOWCASE_BUILD_OUT"},
	{Key: "build.concurrency", EnvVar: "SHOWCASE_BUILD_CONCURRENCY"},
}

func configShowRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	// Check if config file exists
	if _, err := os.Stat(cfgPath); err == nil {
		ui.Info("Config file: %s", cfgPath)
	} else {
		ui.Info("Config file: (none)")
	}
	fmt.Fprintln(ui.Out)

	// Read config file values to determine file source
	fileValues := readConfigFileValues(cfgPath)

	for _, k := range configKeys {
		val := viper.Get(k.Key)
		source := detectSource(k.Key, k.EnvVar, fileValues)
		fmt.Fprintf(ui.Out, "  %-22s %v  %s\n", k.Key, val, source)
	}

	return nil
}

// readConfigFileValues reads the raw YAML file and returns a flat map of keys present in it.
func readConfigFileValues(path string) map[string]bool {
	result := make(map[string]bool)

	data, err := os.ReadFile(path)
	if err != nil {
		return result
	}

	var parsed map[string]any
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return result
	}

	// Flatten nested keys with dot notation
	flattenKeys("", parsed, result)
	return result
}

// flattenKeys recursively flattens a nested map to dot-notation keys.
func flattenKeys(prefix string, m map[string]any, result map[string]bool) {
	for key, val := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		if nested, ok := val.(map[string]any); ok {
			flattenKeys(fullKey, nested, result)
		} else {
			result[fullKey] = true
		}
	}
}

// detectSource determines where a config value is coming from.
func detectSource(key, envVar string, fileValues map[string]bool) string {
	if _, ok := os.LookupEnv(envVar); ok {
		return fmt.Sprintf("(env: %s)", envVar)
	}
	if fileValues[key] {
		return "(file)"
	}
	return "(default)"
}

func configEditRun() error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		return fmt.Errorf("$EDITOR is not set; set it to your preferred editor (e.g. export EDITOR=vim)")
	}

	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s (run 'showcase config init' first)", cfgPath)
	}

	if dryRun {
		ui.DryRunMsg("Would open %s in %s", cfgPath, editor)
		return nil
	}

	editCmd := exec.Command(editor, cfgPath)
	editCmd.Stdin = os.Stdin
	editCmd.Stdout = os.Stdout
	editCmd.Stderr = os.Stderr
	return editCmd.Run()
}
