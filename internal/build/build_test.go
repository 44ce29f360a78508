package build

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/showcase/internal/models"
	"github.com/joescharf/showcase/internal/resolve"
	"github.com/joescharf/showcase/internal/site"
	"github.com/joescharf/showcase/internal/source"
)

func newSiteFs(t *testing.T, projects []models.Project, docs map[string]string) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	data, err := json.Marshal(projects)
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fsys, "/share/data/projects.json", data, 0o644))
	for name, body := range docs {
		require.NoError(t, afero.WriteFile(fsys, "/share/data/docs/"+name, []byte(body), 0o644))
	}
	require.NoError(t, afero.WriteFile(fsys, "/share/images/repository.png", []byte("PNG"), 0o644))
	return fsys
}

func newPages(fsys afero.Fs) *site.Builder {
	return site.NewBuilder(source.NewFSSource(fsys), site.DefaultConfig(), site.WithLinks(resolve.PathPolicy{}))
}

func TestRun_WritesAllPages(t *testing.T) {
	siteFs := newSiteFs(t, []models.Project{
		{Title: "beta", Repository: "https://example.com/beta"},
		{Title: "alpha", Repository: "https://example.com/alpha"},
	}, map[string]string{"alpha.html": "<p>alpha docs</p>", "beta.html": "<p>beta docs</p>"})
	out := afero.NewMemMapFs()

	res, err := Run(context.Background(), newPages(siteFs), out, Options{Concurrency: 4, Assets: siteFs})
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	assert.Empty(t, res.Skipped)

	for _, name := range []string{"index.html", "alpha.html", "beta.html"} {
		assert.Contains(t, res.Files, name)
	}
	assert.Contains(t, res.Files, filepath.Join("share", "data", "projects.json"))

	index, err := afero.ReadFile(out, "index.html")
	require.NoError(t, err)
	assert.Contains(t, string(index), `href="/alpha.html"`)
	assert.Contains(t, string(index), "<title>index</title>")

	alpha, err := afero.ReadFile(out, "alpha.html")
	require.NoError(t, err)
	assert.Contains(t, string(alpha), "<p>alpha docs</p>")

	png, err := afero.ReadFile(out, filepath.Join("share", "images", "repository.png"))
	require.NoError(t, err)
	assert.Equal(t, "PNG", string(png))
}

// manifestCounter counts manifest fetches and empties the manifest after the
// first one, like an edit landing mid-build.
type manifestCounter struct {
	mu    sync.Mutex
	src   source.Source
	fsys  afero.Fs
	count int
}

func (m *manifestCounter) Fetch(ctx context.Context, p string) ([]byte, error) {
	data, err := m.src.Fetch(ctx, p)
	if p == site.DefaultConfig().ManifestPath {
		m.mu.Lock()
		m.count++
		if m.count == 1 {
			_ = afero.WriteFile(m.fsys, p, []byte(`[]`), 0o644)
		}
		m.mu.Unlock()
	}
	return data, err
}

func TestRun_LoadsManifestOnce(t *testing.T) {
	siteFs := newSiteFs(t, []models.Project{
		{Title: "beta", Repository: "https://example.com/beta"},
		{Title: "alpha", Repository: "https://example.com/alpha"},
	}, map[string]string{"alpha.html": "<p>alpha docs</p>", "beta.html": "<p>beta docs</p>"})
	counter := &manifestCounter{src: source.NewFSSource(siteFs), fsys: siteFs}
	pages := site.NewBuilder(counter, site.DefaultConfig(), site.WithLinks(resolve.PathPolicy{}))

	res, err := Run(context.Background(), pages, afero.NewMemMapFs(), Options{Concurrency: 4})
	require.NoError(t, err)
	assert.Equal(t, 1, counter.count)
	assert.Contains(t, res.Files, "alpha.html")
	assert.Contains(t, res.Files, "beta.html")
}

func TestRun_MissingDocsIsWarning(t *testing.T) {
	siteFs := newSiteFs(t, []models.Project{{Title: "alpha"}, {Title: "beta"}},
		map[string]string{"alpha.html": "<p>docs</p>"})
	out := afero.NewMemMapFs()

	res, err := Run(context.Background(), newPages(siteFs), out, Options{Concurrency: 2})
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "beta", res.Warnings[0].Title)

	var docErr *site.DocFetchError
	assert.ErrorAs(t, res.Warnings[0].Err, &docErr)

	exists, err := afero.Exists(out, "beta.html")
	require.NoError(t, err)
	assert.True(t, exists, "degraded pages are still written")
}

func TestRun_ManifestMissingAborts(t *testing.T) {
	out := afero.NewMemMapFs()

	_, err := Run(context.Background(), newPages(afero.NewMemMapFs()), out, Options{})
	var loadErr *site.LoadError
	require.ErrorAs(t, err, &loadErr)

	exists, err := afero.Exists(out, "index.html")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRun_DryRun(t *testing.T) {
	siteFs := newSiteFs(t, []models.Project{{Title: "alpha"}}, nil)
	out := afero.NewMemMapFs()

	res, err := Run(context.Background(), newPages(siteFs), out, Options{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha.html", "index.html"}, res.Files)

	exists, err := afero.Exists(out, "index.html")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRun_SkipsUnlinkableTitles(t *testing.T) {
	siteFs := newSiteFs(t, []models.Project{
		{Title: "ok"}, {Title: "a/b"}, {Title: "reindex"}, {Title: "ok"},
	}, nil)

	res, err := Run(context.Background(), newPages(siteFs), afero.NewMemMapFs(), Options{DryRun: true})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a/b", "reindex"}, res.Skipped)
	assert.Equal(t, []string{"index.html", "ok.html"}, res.Files, "duplicates render once")
}
