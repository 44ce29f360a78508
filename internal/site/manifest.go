package site

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/joescharf/showcase/internal/models"
	"github.com/joescharf/showcase/internal/source"
)

// Loader fetches and decodes the project manifest.
type Loader struct {
	src    source.Source
	path   string
	strict bool
	logger *slog.Logger
}

// NewLoader creates a Loader for the manifest at path. A strict loader
// rejects manifests with duplicate titles; otherwise duplicates are logged
// and lookups take the first match.
func NewLoader(src source.Source, path string, strict bool, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{src: src, path: path, strict: strict, logger: logger}
}

// Path returns the site path of the manifest.
func (l *Loader) Path() string { return l.path }

// Load fetches the manifest once. Any failure is a *LoadError.
func (l *Loader) Load(ctx context.Context) ([]models.Project, error) {
	data, err := l.src.Fetch(ctx, l.path)
	if err != nil {
		return nil, &LoadError{Path: l.path, Err: err}
	}

	var projects []models.Project
	if err := json.Unmarshal(data, &projects); err != nil {
		return nil, &LoadError{Path: l.path, Err: fmt.Errorf("decode: %w", err)}
	}

	if dups := DuplicateTitles(projects); len(dups) > 0 {
		if l.strict {
			return nil, &LoadError{Path: l.path, Err: fmt.Errorf("%w: %s", ErrDuplicateTitle, strings.Join(dups, ", "))}
		}
		l.logger.Warn("manifest has duplicate titles; first match wins", "path", l.path, "titles", dups)
	}
	return projects, nil
}

// DuplicateTitles returns each title that appears more than once, in order
// of its second appearance.
func DuplicateTitles(projects []models.Project) []string {
	seen := make(map[string]int, len(projects))
	var dups []string
	for _, p := range projects {
		seen[p.Title]++
		if seen[p.Title] == 2 {
			dups = append(dups, p.Title)
		}
	}
	return dups
}

// SortByTitle returns a copy of projects ordered by byte-wise title comparison.
func SortByTitle(projects []models.Project) []models.Project {
	sorted := slices.Clone(projects)
	slices.SortStableFunc(sorted, func(a, b models.Project) int {
		return cmp.Compare(a.Title, b.Title)
	})
	return sorted
}

// Select returns the first project whose title matches. Later duplicates are
// ignored.
func Select(projects []models.Project, title string) (*models.Project, error) {
	i := slices.IndexFunc(projects, func(p models.Project) bool { return p.Title == title })
	if i < 0 {
		return nil, &NotFoundError{Title: title}
	}
	p := projects[i]
	return &p, nil
}
