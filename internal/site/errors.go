package site

import (
	"errors"
	"fmt"
)

// ErrDuplicateTitle is wrapped by a LoadError when a strict loader sees two
// records with the same title.
var ErrDuplicateTitle = errors.New("duplicate project title")

// LoadError means the manifest could not be fetched or decoded. Nothing can
// be rendered without it.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load manifest %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// NotFoundError means no manifest record has the requested title.
type NotFoundError struct {
	Title string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("project not found: %s", e.Title)
}

// DocFetchError means a project's documentation fragment could not be
// fetched or converted. It never aborts a render.
type DocFetchError struct {
	Title string
	Path  string
	Err   error
}

func (e *DocFetchError) Error() string {
	return fmt.Sprintf("fetch documentation for %s (%s): %v", e.Title, e.Path, e.Err)
}

func (e *DocFetchError) Unwrap() error { return e.Err }
