package store

import (
	"context"

	"github.com/joescharf/showcase/internal/models"
)

// RenderListFilter specifies filters for listing render records.
type RenderListFilter struct {
	Status models.RenderStatus
	Title  string
	Limit  int
}

// Store defines the persistence interface for the render log.
type Store interface {
	CreateRender(ctx context.Context, r *models.RenderRecord) error
	GetRender(ctx context.Context, id string) (*models.RenderRecord, error)
	ListRenders(ctx context.Context, filter RenderListFilter) ([]*models.RenderRecord, error)
	PruneRenders(ctx context.Context, keep int) (int64, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
