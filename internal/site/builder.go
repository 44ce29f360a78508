// Package site builds the index and project pages of a project showcase
// from a JSON manifest and per-project documentation fragments.
package site

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/joescharf/showcase/internal/models"
	"github.com/joescharf/showcase/internal/resolve"
	"github.com/joescharf/showcase/internal/source"
)

// Page is the result of one render.
type Page struct {
	Target resolve.Page
	Title  string
	Doc    *html.Node
	// DocErr is a *DocFetchError when a project page was built without its
	// documentation fragment.
	DocErr error
}

// Render writes the page as HTML.
func (p *Page) Render(w io.Writer) error {
	return RenderDocument(w, p.Doc)
}

// HTML returns the page serialized as a string.
func (p *Page) HTML() (string, error) {
	var buf bytes.Buffer
	if err := p.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Builder assembles pages. A Builder holds no per-render state and may be
// shared across goroutines; each render works on its own document.
type Builder struct {
	cfg      Config
	src      source.Source
	loader   *Loader
	links    resolve.Policy
	layout   []byte
	logger   *slog.Logger
	md       goldmark.Markdown
	sanitize *bluemonday.Policy
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used for manifest warnings.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// WithLayout sets an HTML document that every render starts from.
func WithLayout(layout []byte) Option {
	return func(b *Builder) { b.layout = layout }
}

// WithLinks sets the policy used to link entries to their project pages.
func WithLinks(p resolve.Policy) Option {
	return func(b *Builder) { b.links = p }
}

// NewBuilder creates a Builder reading resources from src.
func NewBuilder(src source.Source, cfg Config, opts ...Option) *Builder {
	b := &Builder{
		cfg:    cfg,
		src:    src,
		links:  resolve.QueryPolicy{},
		logger: slog.Default(),
		md:     goldmark.New(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if cfg.Sanitize {
		b.sanitize = bluemonday.UGCPolicy()
	}
	b.loader = NewLoader(src, cfg.ManifestPath, cfg.Strict, b.logger)
	return b
}

// Loader returns the manifest loader used by every render.
func (b *Builder) Loader() *Loader { return b.loader }

// Links returns the policy used for project links.
func (b *Builder) Links() resolve.Policy { return b.links }

// NewDocument returns a fresh document to render into: the parsed layout if
// one is configured, an empty document otherwise.
func (b *Builder) NewDocument() (*html.Node, error) {
	if len(b.layout) == 0 {
		return NewDocument(), nil
	}
	doc, err := ParseDocument(bytes.NewReader(b.layout))
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	return doc, nil
}

// Render builds target into a fresh document.
func (b *Builder) Render(ctx context.Context, target resolve.Page) (*Page, error) {
	doc, err := b.NewDocument()
	if err != nil {
		return nil, err
	}
	return b.Build(ctx, doc, target)
}

// Build renders target into doc. doc is left untouched when the manifest
// cannot be loaded or the project does not exist.
func (b *Builder) Build(ctx context.Context, doc *html.Node, target resolve.Page) (*Page, error) {
	switch target.Mode {
	case resolve.ModeIndex:
		return b.BuildIndex(ctx, doc)
	case resolve.ModeProject:
		return b.BuildProject(ctx, doc, target.Title)
	default:
		return nil, fmt.Errorf("unknown page mode %q", target.Mode)
	}
}

// RenderFrom builds target into a fresh document from an already loaded
// manifest. It lets a caller rendering many pages fetch the manifest once.
func (b *Builder) RenderFrom(ctx context.Context, projects []models.Project, target resolve.Page) (*Page, error) {
	doc, err := b.NewDocument()
	if err != nil {
		return nil, err
	}
	switch target.Mode {
	case resolve.ModeIndex:
		return b.index(doc, projects), nil
	case resolve.ModeProject:
		return b.project(ctx, doc, projects, target.Title)
	default:
		return nil, fmt.Errorf("unknown page mode %q", target.Mode)
	}
}

// BuildIndex appends an index container with one entry per project, sorted
// by title.
func (b *Builder) BuildIndex(ctx context.Context, doc *html.Node) (*Page, error) {
	projects, err := b.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	return b.index(doc, projects), nil
}

func (b *Builder) index(doc *html.Node, projects []models.Project) *Page {
	setTitle(doc, b.cfg.IndexTitle)
	container := appendElement(need(doc, atom.Body), atom.Div, attr("class", b.cfg.Classes.Index))
	for _, p := range SortByTitle(projects) {
		container.AppendChild(b.entry(p))
	}
	return &Page{Target: resolve.Index(), Title: b.cfg.IndexTitle, Doc: doc}
}

// BuildProject appends a project container holding the project's entry and
// its documentation. A documentation failure degrades to a placeholder and
// is reported in Page.DocErr.
func (b *Builder) BuildProject(ctx context.Context, doc *html.Node, title string) (*Page, error) {
	projects, err := b.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	return b.project(ctx, doc, projects, title)
}

func (b *Builder) project(ctx context.Context, doc *html.Node, projects []models.Project, title string) (*Page, error) {
	project, err := Select(projects, title)
	if err != nil {
		return nil, err
	}

	setTitle(doc, project.Title)
	container := appendElement(need(doc, atom.Body), atom.Div, attr("class", b.cfg.Classes.Project))
	container.AppendChild(b.entry(*project))
	docs := appendElement(container, atom.Div, attr("class", b.cfg.Classes.Documentation))

	page := &Page{Target: resolve.Project(project.Title), Title: project.Title, Doc: doc}

	fragment, err := b.documentation(ctx, project.Title)
	if err != nil {
		page.DocErr = err
		p := appendElement(docs, atom.P, attr("class", b.cfg.Classes.DocumentationUnavailable))
		appendText(p, "Documentation is unavailable.")
		return page, nil
	}
	docs.AppendChild(&html.Node{Type: html.RawNode, Data: fragment})
	return page, nil
}

// Documentation fetches and prepares the documentation fragment for title.
// Any failure is a *DocFetchError.
func (b *Builder) Documentation(ctx context.Context, title string) (string, error) {
	return b.documentation(ctx, title)
}

func (b *Builder) documentation(ctx context.Context, title string) (string, error) {
	p := b.cfg.docPath(title)
	data, err := b.src.Fetch(ctx, p)
	if err != nil {
		return "", &DocFetchError{Title: title, Path: p, Err: err}
	}

	if b.cfg.DocsFormat == DocsMarkdown {
		var buf bytes.Buffer
		if err := b.md.Convert(data, &buf); err != nil {
			return "", &DocFetchError{Title: title, Path: p, Err: fmt.Errorf("render markdown: %w", err)}
		}
		data = buf.Bytes()
	}
	if b.sanitize != nil {
		data = b.sanitize.SanitizeBytes(data)
	}
	return string(data), nil
}

// entry builds the markup shared by index and project pages:
//
//	<div class="index-entry" id="project-TITLE">
//	  <a class="title" href="LINK">TITLE</a>
//	  <a class="repository" href="REPOSITORY"><img src="ICON" alt="repository"></a>
//	  <span class="description">DESCRIPTION</span>
//	  <span class="version">VERSION</span>
//	</div>
func (b *Builder) entry(p models.Project) *html.Node {
	c := b.cfg.Classes
	e := newElement(atom.Div, attr("class", c.IndexEntry), attr("id", b.cfg.EntryIDPrefix+p.Title))

	title := appendElement(e, atom.A, attr("class", c.Title), attr("href", b.links.Link(p.Title)))
	appendText(title, p.Title)

	repo := appendElement(e, atom.A, attr("class", c.Repository), attr("href", p.Repository))
	appendElement(repo, atom.Img, attr("src", b.cfg.RepositoryIcon), attr("alt", "repository"))

	desc := appendElement(e, atom.Span, attr("class", c.Description))
	appendText(desc, p.Description)

	if p.Version != "" {
		v := appendElement(e, atom.Span, attr("class", c.Version))
		appendText(v, p.Version)
	}
	return e
}
