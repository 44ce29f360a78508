package health

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/showcase/internal/models"
	"github.com/joescharf/showcase/internal/site"
	"github.com/joescharf/showcase/internal/source"
)

func TestScore_HealthyEntry(t *testing.T) {
	s := NewScorer()

	project := &models.Project{
		Title:       "alpha",
		Repository:  "https://github.com/example/alpha",
		Description: "A well described project",
		Version:     "1.2.0",
	}
	meta := &EntryMetadata{StaticPage: true}

	h := s.Score(project, meta)

	assert.Equal(t, 35, h.Documentation, "fetched docs should get full points")
	assert.Equal(t, 25, h.Repository, "https repository should get full points")
	assert.Equal(t, 15, h.Description)
	assert.Equal(t, 10, h.Version)
	assert.Equal(t, 15, h.Reachability)
	assert.Equal(t, 100, h.Total)
}

func TestScore_UnhealthyEntry(t *testing.T) {
	s := NewScorer()

	project := &models.Project{Title: "index-tools"}
	meta := &EntryMetadata{
		DocsErr:   errors.New("status 404"),
		Duplicate: true,
	}

	h := s.Score(project, meta)

	assert.Equal(t, 0, h.Documentation)
	assert.Equal(t, 0, h.Repository)
	assert.Equal(t, 0, h.Description)
	assert.Equal(t, 5, h.Version, "missing version only costs a little")
	assert.Equal(t, 0, h.Reachability)
	assert.True(t, h.Total < 50, "unhealthy entry should score below 50")
}

func TestScoreRepository(t *testing.T) {
	assert.Equal(t, 25, scoreRepository("https://example.com/x", 25))
	assert.Equal(t, 15, scoreRepository("http://example.com/x", 25))
	assert.Equal(t, 5, scoreRepository("example.com/x", 25))
	assert.Equal(t, 0, scoreRepository("", 25))
}

func TestScoreDescription(t *testing.T) {
	assert.Equal(t, 0, scoreDescription("   ", 15))
	assert.Equal(t, 7, scoreDescription("short", 15))
	assert.Equal(t, 15, scoreDescription("long enough to be useful", 15))
}

func TestCheck(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/share/data/projects.json", []byte(`[
		{"title":"zeta","repository":"https://example.com/zeta","description":"The last project listed"},
		{"title":"alpha","repository":"https://example.com/alpha","description":"The first project listed","version":"1.0"},
		{"title":"alpha","repository":"https://example.com/alpha2","description":"shadowed"}
	]`), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/share/data/docs/alpha.html", []byte("<p>docs</p>"), 0o644))

	pages := site.NewBuilder(source.NewFSSource(fsys), site.DefaultConfig())
	reports, err := Check(context.Background(), pages, 2)
	require.NoError(t, err)
	require.Len(t, reports, 3)

	assert.Equal(t, "zeta", reports[0].Project.Title)
	assert.Contains(t, reports[0].Problems, "documentation unavailable")

	assert.Equal(t, 100, reports[1].Score.Total)
	assert.Empty(t, reports[1].Problems)

	assert.Contains(t, reports[2].Problems, "duplicate title")
}

func TestCheck_LoadError(t *testing.T) {
	pages := site.NewBuilder(source.NewFSSource(afero.NewMemMapFs()), site.DefaultConfig())

	_, err := Check(context.Background(), pages, 1)
	var le *site.LoadError
	assert.ErrorAs(t, err, &le)
}
