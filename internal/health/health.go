// Package health scores manifest entries by how completely they render.
package health

import (
	"context"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/joescharf/showcase/internal/models"
	"github.com/joescharf/showcase/internal/resolve"
	"github.com/joescharf/showcase/internal/site"
)

// EntryMetadata holds live facts about one manifest entry used for scoring.
type EntryMetadata struct {
	DocsErr    error
	Duplicate  bool
	StaticPage bool
}

// HealthScore represents the computed health of a manifest entry.
type HealthScore struct {
	Total         int
	Documentation int // 0-35
	Repository    int // 0-25
	Description   int // 0-15
	Version       int // 0-10
	Reachability  int // 0-15
}

// Report is the score of one entry along with what cost it points.
type Report struct {
	Project  models.Project
	Score    *HealthScore
	Problems []string
}

// Scorer computes health scores for manifest entries.
type Scorer struct{}

// NewScorer returns a new health Scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score computes a health score (0-100) for an entry.
func (s *Scorer) Score(project *models.Project, meta *EntryMetadata) *HealthScore {
	h := &HealthScore{}

	// Documentation (35 pts) - the project page degrades without it
	if meta.DocsErr == nil {
		h.Documentation = 35
	}

	h.Repository = scoreRepository(project.Repository, 25)
	h.Description = scoreDescription(project.Description, 15)

	// Version (10 pts) - optional, so missing only costs a little
	if project.Version != "" {
		h.Version = 10
	} else {
		h.Version = 5
	}

	// Reachability (15 pts) - a duplicate is shadowed, a title without a
	// static page name is missing from builds
	h.Reachability = 15
	if meta.Duplicate {
		h.Reachability -= 10
	}
	if !meta.StaticPage {
		h.Reachability -= 5
	}

	h.Total = h.Documentation + h.Repository + h.Description + h.Version + h.Reachability
	return h
}

// scoreRepository rewards an absolute https link.
func scoreRepository(raw string, maxPoints int) int {
	if raw == "" {
		return 0
	}
	u, err := url.Parse(raw)
	if err != nil {
		return 0
	}
	switch {
	case u.Scheme == "https" && u.Host != "":
		return maxPoints
	case u.Scheme == "http" && u.Host != "":
		return maxPoints * 3 / 5
	default:
		return maxPoints / 5
	}
}

// scoreDescription penalizes missing or terse descriptions.
func scoreDescription(desc string, maxPoints int) int {
	n := len(strings.TrimSpace(desc))
	switch {
	case n == 0:
		return 0
	case n < 20:
		return maxPoints / 2
	default:
		return maxPoints
	}
}

// Check loads the manifest through pages and scores every entry, fetching
// documentation for up to concurrency entries at once. Reports keep the
// manifest order. A manifest that can not be loaded is returned as is.
func Check(ctx context.Context, pages *site.Builder, concurrency int) ([]Report, error) {
	projects, err := pages.Loader().Load(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(projects))
	metas := make([]EntryMetadata, len(projects))
	for i, p := range projects {
		_, static := resolve.PageFile(p.Title)
		metas[i] = EntryMetadata{Duplicate: seen[p.Title], StaticPage: static}
		seen[p.Title] = true
	}

	g, gctx := errgroup.WithContext(ctx)
	if concurrency < 1 {
		concurrency = 1
	}
	g.SetLimit(concurrency)
	for i, p := range projects {
		g.Go(func() error {
			_, err := pages.Documentation(gctx, p.Title)
			metas[i].DocsErr = err
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scorer := NewScorer()
	reports := make([]Report, len(projects))
	for i, p := range projects {
		meta := &metas[i]
		reports[i] = Report{Project: p, Score: scorer.Score(&p, meta), Problems: problems(&p, meta)}
	}
	return reports, nil
}

func problems(p *models.Project, meta *EntryMetadata) []string {
	var out []string
	if meta.DocsErr != nil {
		out = append(out, "documentation unavailable")
	}
	if meta.Duplicate {
		out = append(out, "duplicate title")
	}
	if !meta.StaticPage {
		out = append(out, "no static page name")
	}
	if p.Repository == "" {
		out = append(out, "no repository")
	}
	if strings.TrimSpace(p.Description) == "" {
		out = append(out, "no description")
	}
	return out
}
