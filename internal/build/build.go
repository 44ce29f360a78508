// Package build writes a static copy of the showcase: index.html, one page
// per project, and the share/ assets.
package build

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/joescharf/showcase/internal/resolve"
	"github.com/joescharf/showcase/internal/site"
)

// Options controls a static build.
type Options struct {
	// Concurrency bounds the number of pages rendered at once.
	Concurrency int
	// DryRun reports the files that would be written without writing them.
	DryRun bool
	// Assets, when set, is copied into the output as share/.
	Assets afero.Fs
}

// Warning is a page that was built without its documentation.
type Warning struct {
	Title string
	Err   error
}

// Result summarizes a build.
type Result struct {
	Files    []string
	Skipped  []string
	Warnings []Warning
}

// Run renders every page with pages and writes them to out. pages should
// link with resolve.PathPolicy, since a static host can not vary a file by
// query string. The manifest is loaded once and every page is rendered from
// that copy. A manifest that can not be loaded aborts the build.
func Run(ctx context.Context, pages *site.Builder, out afero.Fs, opts Options) (*Result, error) {
	projects, err := pages.Loader().Load(ctx)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	var mu sync.Mutex

	write := func(name string, data []byte) error {
		mu.Lock()
		res.Files = append(res.Files, name)
		mu.Unlock()
		if opts.DryRun {
			return nil
		}
		if err := out.MkdirAll(filepath.Dir(name), 0o755); err != nil {
			return fmt.Errorf("create %s: %w", filepath.Dir(name), err)
		}
		if err := afero.WriteFile(out, name, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		return nil
	}

	render := func(ctx context.Context, target resolve.Page, name string) error {
		page, err := pages.RenderFrom(ctx, projects, target)
		if err != nil {
			return fmt.Errorf("render %s: %w", name, err)
		}
		if page.DocErr != nil {
			mu.Lock()
			res.Warnings = append(res.Warnings, Warning{Title: page.Title, Err: page.DocErr})
			mu.Unlock()
		}
		var buf bytes.Buffer
		if err := page.Render(&buf); err != nil {
			return fmt.Errorf("serialize %s: %w", name, err)
		}
		return write(name, buf.Bytes())
	}

	g, gctx := errgroup.WithContext(ctx)
	limit := opts.Concurrency
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	g.Go(func() error { return render(gctx, resolve.Index(), "index.html") })

	seen := make(map[string]bool, len(projects))
	for _, p := range site.SortByTitle(projects) {
		if seen[p.Title] {
			continue
		}
		seen[p.Title] = true

		name, ok := resolve.PageFile(p.Title)
		if !ok {
			res.Skipped = append(res.Skipped, p.Title)
			continue
		}
		title := p.Title
		g.Go(func() error { return render(gctx, resolve.Project(title), name) })
	}

	if opts.Assets != nil {
		g.Go(func() error { return copyTree(opts.Assets, "/share", write) })
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.Sort(res.Files)
	slices.SortFunc(res.Warnings, func(a, b Warning) int { return strings.Compare(a.Title, b.Title) })
	return res, nil
}

// copyTree copies root from src into the output through write, keeping
// paths relative to the output root.
func copyTree(src afero.Fs, root string, write func(string, []byte) error) error {
	if _, err := src.Stat(root); os.IsNotExist(err) {
		return nil
	}
	return afero.Walk(src, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		data, err := afero.ReadFile(src, p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		return write(strings.TrimLeft(p, `/\`), data)
	})
}
