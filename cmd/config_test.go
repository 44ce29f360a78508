package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/showcase/internal/output"
	"github.com/joescharf/showcase/internal/resolve"
	"github.com/joescharf/showcase/internal/site"
)

// testEnv sets up isolated config dir, viper, and output for testing.
func testEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	// Override configDirFunc for tests
	origFunc := configDirFunc
	configDirFunc = func() (string, error) { return dir, nil }
	t.Cleanup(func() { configDirFunc = origFunc })

	// Reset viper
	viper.Reset()
	setDefaults(dir)
	viper.Set("site.dir", dir)

	// Drop any render log opened by an earlier test
	if dataStore != nil {
		_ = dataStore.Close()
		dataStore = nil
	}
	t.Cleanup(func() {
		if dataStore != nil {
			_ = dataStore.Close()
			dataStore = nil
		}
	})

	// Initialize output
	ui = output.New()

	return dir
}

func TestConfigInit_CreatesFile(t *testing.T) {
	dir := testEnv(t)

	err := configInitRun()
	require.NoError(t, err)

	cfgPath := filepath.Join(dir, "config.yaml")
	_, err = os.Stat(cfgPath)
	assert.NoError(t, err, "config file should exist")

	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "showcase configuration")
	assert.Contains(t, string(data), "resolver:")
	assert.Contains(t, string(data), `policy: "query"`)
}

func TestConfigInit_RefusesOverwrite(t *testing.T) {
	dir := testEnv(t)

	// Create existing file
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("existing"), 0644))

	configForce = false
	err := configInitRun()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestConfigInit_ForceOverwrite(t *testing.T) {
	dir := testEnv(t)

	// Create existing file
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("existing"), 0644))

	configForce = true
	err := configInitRun()
	require.NoError(t, err)

	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "showcase configuration")
}

func TestConfigShow_NoFile(t *testing.T) {
	testEnv(t)

	err := configShowRun()
	assert.NoError(t, err)
}

func TestConfigShow_WithFile(t *testing.T) {
	testEnv(t)

	// Create config first
	require.NoError(t, configInitRun())

	err := configShowRun()
	assert.NoError(t, err)
}

func TestConfigEdit_NoEditor(t *testing.T) {
	testEnv(t)

	// Unset EDITOR and VISUAL
	origEditor := os.Getenv("EDITOR")
	origVisual := os.Getenv("VISUAL")
	_ = os.Unsetenv("EDITOR")
	_ = os.Unsetenv("VISUAL")
	t.Cleanup(func() {
		if origEditor != "" {
			_ = os.Setenv("EDITOR", origEditor)
		}
		if origVisual != "" {
			_ = os.Setenv("VISUAL", origVisual)
		}
	})

	err := configEditRun()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "$EDITOR is not set")
}

func TestConfigEdit_NoConfigFile(t *testing.T) {
	testEnv(t)

	_ = os.Setenv("EDITOR", "echo") // harmless command
	t.Cleanup(func() { _ = os.Unsetenv("EDITOR") })

	err := configEditRun()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestDetectSource(t *testing.T) {
	fileValues := map[string]bool{"key_a": true}

	// From env
	os.Setenv("SHOWCASE_TEST_KEY", "val")
	defer os.Unsetenv("SHOWCASE_TEST_KEY")
	assert.Contains(t, detectSource("test_key", "SHOWCASE_TEST_KEY", fileValues), "env")

	// From file
	assert.Contains(t, detectSource("key_a", "SHOWCASE_KEY_A_NONEXISTENT", fileValues), "file")

	// Default
	assert.Contains(t, detectSource("key_b", "SHOWCASE_KEY_B_NONEXISTENT", fileValues), "default")
}

func TestFlattenKeys(t *testing.T) {
	input := map[string]any{
		"top": "val",
		"nested": map[string]any{
			"a": "1",
			"b": "2",
		},
	}

	result := make(map[string]bool)
	flattenKeys("", input, result)

	assert.True(t, result["top"])
	assert.True(t, result["nested.a"])
	assert.True(t, result["nested.b"])
	assert.False(t, result["nested"])
}

func TestConfigInit_DryRun(t *testing.T) {
	dir := testEnv(t)
	dryRun = true
	ui.DryRun = true
	defer func() { dryRun = false }()

	err := configInitRun()
	require.NoError(t, err)

	// File should NOT have been created
	cfgPath := filepath.Join(dir, "config.yaml")
	_, err = os.Stat(cfgPath)
	assert.True(t, os.IsNotExist(err), "config file should not exist in dry-run mode")
}

func TestConfigKeys_EnvNames(t *testing.T) {
	for _, k := range configKeys {
		want := "SHOWCASE_" + strings.ToUpper(strings.ReplaceAll(k.Key, ".", "_"))
		assert.Equal(t, want, k.EnvVar, k.Key)
	}
}

func TestSiteConfig_FromViper(t *testing.T) {
	testEnv(t)
	viper.Set("site.docs_path", "/docs")
	viper.Set("docs.format", "markdown")
	viper.Set("manifest.strict", true)

	cfg, err := siteConfig()
	require.NoError(t, err)
	assert.Equal(t, "/docs", cfg.DocsPath)
	assert.Equal(t, site.DocsMarkdown, cfg.DocsFormat)
	assert.True(t, cfg.Strict)
	assert.Equal(t, "/share/data/projects.json", cfg.ManifestPath)
}

func TestSiteConfig_UnknownDocsFormat(t *testing.T) {
	testEnv(t)
	viper.Set("docs.format", "rst")

	_, err := siteConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "docs.format")
}

func TestResolverPolicy_FromViper(t *testing.T) {
	testEnv(t)

	p, err := resolverPolicy()
	require.NoError(t, err)
	assert.Equal(t, resolve.PolicyQuery, p.Name())

	viper.Set("resolver.policy", "path")
	p, err = resolverPolicy()
	require.NoError(t, err)
	assert.Equal(t, resolve.PolicyPath, p.Name())

	viper.Set("resolver.policy", "cookie")
	_, err = resolverPolicy()
	assert.Error(t, err)
}
