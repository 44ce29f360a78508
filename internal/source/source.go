// Package source fetches site resources such as the project manifest and
// documentation fragments, either over HTTP or from a local site directory.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Source fetches a resource by its site-absolute path (e.g. /share/data/projects.json).
type Source interface {
	Fetch(ctx context.Context, p string) ([]byte, error)
}

// StatusError reports a resource that was reached but not served successfully.
type StatusError struct {
	Path       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: status %d %s", e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

// StatusCode returns the HTTP status carried by err, or 0 if there is none.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// HTTPSource fetches resources relative to a base URL. It makes one attempt
// per call: no retries and no caching.
type HTTPSource struct {
	base   *url.URL
	client *http.Client
}

// NewHTTPSource creates an HTTPSource. A nil client means http.DefaultClient.
func NewHTTPSource(baseURL string, client *http.Client) (*HTTPSource, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{base: u, client: client}, nil
}

// URL returns the absolute URL that Fetch requests for p. p is a literal
// path: characters such as % are escaped, never decoded.
func (s *HTTPSource) URL(p string) string {
	u := *s.base
	u.Path = path.Join("/", s.base.Path, p)
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

func (s *HTTPSource) Fetch(ctx context.Context, p string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL(p), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", p, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Path: p, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	return body, nil
}

// FSSource reads resources from a filesystem laid out like the served site.
// Missing files are reported as a 404 StatusError so callers see the same
// failure shape as with HTTPSource.
type FSSource struct {
	fs afero.Fs
}

// NewFSSource creates an FSSource over fsys.
func NewFSSource(fsys afero.Fs) *FSSource {
	return &FSSource{fs: fsys}
}

// NewDirSource creates an FSSource rooted at a directory on disk. Paths can
// not escape dir.
func NewDirSource(dir string) *FSSource {
	// BasePathFs compares cleaned prefixes, which never match a base of ".".
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return NewFSSource(afero.NewBasePathFs(afero.NewOsFs(), dir))
}

func (s *FSSource) Fetch(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := path.Clean("/" + strings.TrimPrefix(p, "/"))
	info, err := s.fs.Stat(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &StatusError{Path: p, StatusCode: http.StatusNotFound}
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", p, err)
	}
	if info.IsDir() {
		return nil, &StatusError{Path: p, StatusCode: http.StatusNotFound}
	}

	data, err := afero.ReadFile(s.fs, name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	return data, nil
}

// Open returns an HTTPSource when baseURL is set and a directory source
// rooted at dir otherwise.
func Open(baseURL, dir string) (Source, error) {
	if baseURL != "" {
		return NewHTTPSource(baseURL, nil)
	}
	if dir == "" {
		dir = "."
	}
	return NewDirSource(dir), nil
}
