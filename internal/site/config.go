package site

// DocsFormat selects how documentation fragments are stored.
type DocsFormat string

const (
	// DocsHTML injects {docs}/{title}.html verbatim.
	DocsHTML DocsFormat = "html"
	// DocsMarkdown renders {docs}/{title}.md to HTML before injection.
	DocsMarkdown DocsFormat = "markdown"
)

// Classes holds the class names stamped on generated elements.
type Classes struct {
	Description              string
	Documentation            string
	DocumentationUnavailable string
	Index                    string
	IndexEntry               string
	Project                  string
	Repository               string
	Title                    string
	Version                  string
}

// Config describes where site resources live and how pages are marked up.
type Config struct {
	ManifestPath   string
	DocsPath       string
	RepositoryIcon string
	DocsFormat     DocsFormat
	Sanitize       bool
	Strict         bool

	// IndexTitle is the document title of the index page.
	IndexTitle string
	// EntryIDPrefix prefixes the project title to form each entry's id.
	EntryIDPrefix string
	Classes       Classes
}

// DefaultConfig returns the layout used by the shipped share/ directory.
func DefaultConfig() Config {
	return Config{
		ManifestPath:   "/share/data/projects.json",
		DocsPath:       "/share/data/docs",
		RepositoryIcon: "/share/images/repository.png",
		DocsFormat:     DocsHTML,
		IndexTitle:     "index",
		EntryIDPrefix:  "project-",
		Classes: Classes{
			Description:              "description",
			Documentation:            "documentation",
			DocumentationUnavailable: "documentation-unavailable",
			Index:                    "index",
			IndexEntry:               "index-entry",
			Project:                  "project",
			Repository:               "repository",
			Title:                    "title",
			Version:                  "version",
		},
	}
}

// docPath returns the site path of the documentation fragment for title.
func (c Config) docPath(title string) string {
	ext := ".html"
	if c.DocsFormat == DocsMarkdown {
		ext = ".md"
	}
	return c.DocsPath + "/" + title + ext
}
