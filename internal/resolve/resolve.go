// Package resolve decides which page a request URL refers to.
package resolve

import (
	"fmt"
	"net/url"
	"strings"
)

// Mode is the kind of page to render.
type Mode string

const (
	ModeIndex   Mode = "index"
	ModeProject Mode = "project"
)

// Page is a resolved render target. Title is empty in index mode.
type Page struct {
	Mode  Mode
	Title string
}

// Index returns the index page target.
func Index() Page { return Page{Mode: ModeIndex} }

// Project returns the page target for the project with the given title.
func Project(title string) Page { return Page{Mode: ModeProject, Title: title} }

// Policy maps URLs to pages and titles back to URLs. A deployment uses
// exactly one policy so that every generated link resolves to its page.
type Policy interface {
	Name() string
	Resolve(u *url.URL) Page
	Link(title string) string
}

const (
	PolicyQuery = "query"
	PolicyPath  = "path"
)

// ParsePolicy returns the policy registered under name.
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PolicyQuery:
		return QueryPolicy{}, nil
	case PolicyPath:
		return PathPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown resolver policy %q (want %q or %q)", name, PolicyQuery, PolicyPath)
	}
}

// ResolveString parses raw and resolves it with p.
func ResolveString(p Policy, raw string) (Page, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Page{}, fmt.Errorf("parse url: %w", err)
	}
	return p.Resolve(u), nil
}

// QueryPolicy selects a project with the "title" query parameter:
// /index.html?title=foo is the page for "foo", anything else is the index.
type QueryPolicy struct{}

func (QueryPolicy) Name() string { return PolicyQuery }

func (QueryPolicy) Resolve(u *url.URL) Page {
	if title := u.Query().Get("title"); title != "" {
		return Project(title)
	}
	return Index()
}

func (QueryPolicy) Link(title string) string {
	return "/index.html?" + url.Values{"title": {title}}.Encode()
}

// PathPolicy takes the title from the last path segment with its final
// extension stripped, so /foo.tar.gz is "foo.tar". Empty paths and paths
// containing "index" anywhere are the index; a project whose title contains
// "index" is therefore unreachable under this policy.
type PathPolicy struct{}

func (PathPolicy) Name() string { return PolicyPath }

func (PathPolicy) Resolve(u *url.URL) Page {
	p := u.Path
	if p == "" || strings.Contains(p, "index") {
		return Index()
	}

	seg := p[strings.LastIndex(p, "/")+1:]
	if i := strings.LastIndex(seg, "."); i >= 0 {
		seg = seg[:i]
	}
	if seg == "" {
		return Index()
	}
	return Project(seg)
}

func (PathPolicy) Link(title string) string {
	return "/" + url.PathEscape(title) + ".html"
}

// PageFile returns the static file that serves title under PathPolicy.
// Titles that can not be a single file name, or that Resolve would read as
// the index, have no such file.
func PageFile(title string) (string, bool) {
	if title == "" || title == "." || title == ".." ||
		strings.ContainsAny(title, `/\`) || strings.Contains(title, "index") {
		return "", false
	}
	return title + ".html", true
}
