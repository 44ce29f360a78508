package site

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/joescharf/showcase/internal/models"
	"github.com/joescharf/showcase/internal/resolve"
)

// Recorder persists render outcomes.
type Recorder interface {
	CreateRender(ctx context.Context, r *models.RenderRecord) error
}

// Status classifies the outcome of a render.
func Status(page *Page, err error) models.RenderStatus {
	var (
		loadErr     *LoadError
		notFoundErr *NotFoundError
	)
	switch {
	case errors.As(err, &loadErr):
		return models.RenderStatusLoadError
	case errors.As(err, &notFoundErr):
		return models.RenderStatusNotFound
	case err != nil:
		return models.RenderStatusError
	case page != nil && page.DocErr != nil:
		return models.RenderStatusDegraded
	default:
		return models.RenderStatusOK
	}
}

// NewRenderRecord describes one render for the render log.
func NewRenderRecord(rawURL string, target resolve.Page, page *Page, err error, elapsed time.Duration) *models.RenderRecord {
	r := &models.RenderRecord{
		URL:        rawURL,
		Mode:       string(target.Mode),
		Title:      target.Title,
		Status:     Status(page, err),
		DurationMS: elapsed.Milliseconds(),
	}
	switch {
	case err != nil:
		r.Error = err.Error()
	case page != nil && page.DocErr != nil:
		r.Error = page.DocErr.Error()
	}
	return r
}

// Record writes r to rec. Recording is best-effort: failures are logged and
// dropped. A nil rec is a no-op.
func Record(ctx context.Context, rec Recorder, logger *slog.Logger, r *models.RenderRecord) {
	if rec == nil {
		return
	}
	if err := rec.CreateRender(ctx, r); err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("record render", "url", r.URL, "error", err)
	}
}
