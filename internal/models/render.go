package models

import "time"

// RenderStatus is the outcome of a single page render.
type RenderStatus string

const (
	RenderStatusOK        RenderStatus = "ok"
	RenderStatusDegraded  RenderStatus = "degraded"
	RenderStatusNotFound  RenderStatus = "not_found"
	RenderStatusLoadError RenderStatus = "load_error"
	RenderStatusError     RenderStatus = "error"
)

// RenderRecord is one entry of the render log.
type RenderRecord struct {
	ID         string
	URL        string
	Mode       string
	Title      string
	Status     RenderStatus
	Error      string
	DurationMS int64
	CreatedAt  time.Time
}
