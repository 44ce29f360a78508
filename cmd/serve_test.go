package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/showcase/internal/daemon"
	"github.com/joescharf/showcase/internal/store"
)

// writeSite lays out a minimal share/ tree under dir.
func writeSite(t *testing.T, dir string) {
	t.Helper()
	data := filepath.Join(dir, "share", "data")
	require.NoError(t, os.MkdirAll(filepath.Join(data, "docs"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "share", "images"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(data, "projects.json"), []byte(`[
		{"title":"zeta","repository":"https://example.com/zeta","description":"Last"},
		{"title":"alpha","repository":"https://example.com/alpha","description":"First","version":"1.0"}
	]`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(data, "docs", "alpha.html"), []byte("<p>Alpha docs</p>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "share", "images", "repository.png"), []byte("png"), 0o644))
}

func TestPidFile_Path(t *testing.T) {
	dir := testEnv(t)

	pf := pidFile()
	expected := filepath.Join(dir, "showcase-serve.pid")
	assert.Equal(t, expected, pf.Path)
}

func TestServeStatusRun_NotRunning(t *testing.T) {
	testEnv(t)

	// No PID file exists, so status should show "not running" without error.
	err := serveStatusRun()
	assert.NoError(t, err)
}

func TestServeStatusRun_Running(t *testing.T) {
	dir := testEnv(t)
	var out bytes.Buffer
	ui.Out = &out

	pf := daemon.NewPIDFile(filepath.Join(dir, "showcase-serve.pid"))
	require.NoError(t, pf.Write())

	require.NoError(t, serveStatusRun())
	assert.Contains(t, out.String(), "Server running")
}

func TestServeStopRun_NotRunning(t *testing.T) {
	testEnv(t)

	// No PID file exists, so stop should return an error.
	err := serveStopRun()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not running")
}

func TestServeStopRun_DryRun(t *testing.T) {
	dir := testEnv(t)
	dryRun = true
	ui.DryRun = true
	defer func() { dryRun = false }()

	pf := daemon.NewPIDFile(filepath.Join(dir, "showcase-serve.pid"))
	require.NoError(t, pf.Write())

	require.NoError(t, serveStopRun())
	_, err := os.Stat(pf.Path)
	assert.NoError(t, err, "dry run must leave the PID file alone")
}

func TestServeRun_AlreadyRunning(t *testing.T) {
	dir := testEnv(t)

	// The parent process (go test) is alive for the duration of the test.
	pf := daemon.NewPIDFile(filepath.Join(dir, "showcase-serve.pid"))
	require.NoError(t, pf.WritePID(os.Getppid()))

	err := serveRun(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")
}

func TestServeRun_DryRun(t *testing.T) {
	dir := testEnv(t)
	writeSite(t, dir)
	dryRun = true
	ui.DryRun = true
	defer func() { dryRun = false }()

	require.NoError(t, serveRun(context.Background()))
	_, err := os.Stat(filepath.Join(dir, "showcase-serve.pid"))
	assert.True(t, os.IsNotExist(err))
}

func TestNewHTTPServer_RendersAndRecords(t *testing.T) {
	dir := testEnv(t)
	writeSite(t, dir)
	ui.ErrOut = &bytes.Buffer{}

	ctx := context.Background()
	srv, err := newHTTPServer(ctx, newLogger())
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/index.html?title=alpha")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/share/images/repository.png")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/index.html?title=missing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	s, err := getStore(ctx)
	require.NoError(t, err)
	renders, err := s.ListRenders(ctx, store.RenderListFilter{})
	require.NoError(t, err)
	assert.Len(t, renders, 2)
}

func TestNewHTTPServer_PathPolicy(t *testing.T) {
	dir := testEnv(t)
	writeSite(t, dir)
	viper.Set("resolver.policy", "path")
	ui.ErrOut = &bytes.Buffer{}

	srv, err := newHTTPServer(context.Background(), newLogger())
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/alpha.html")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
