// internal/handlers/interfaces.go
package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/javajoker/beycollection/internal/models"
	"github.com/javajoker/beycollection/internal/services"
	"github.com/javajoker/beycollection/internal/utils"
	"github.com/javajoker/beycollection/internal/wiki"
)

// Identifier is implemented by services.IdentificationService.
type Identifier interface {
	Search(ctx context.Context, query string) ([]wiki.SearchResult, error)
	IdentifyImage(ctx context.Context, image string) (*models.IdentificationResult, error)
	LookupBySlug(ctx context.Context, slug string) (*models.IdentificationResult, error)
}

// Reconciler is implemented by services.ReconciliationService.
type Reconciler interface {
	Confirm(ctx context.Context, userID uuid.UUID, req services.ConfirmRequest) (*services.ConfirmResult, error)
	AddExisting(ctx context.Context, userID, catalogID uuid.UUID, spin models.SpinDirection) (*services.ConfirmResult, error)
}

// Collection is implemented by services.CollectionService.
type Collection interface {
	List(ctx context.Context, userID uuid.UUID, params utils.PaginationParams) ([]services.CollectionItemView, int64, error)
	Grouped(ctx context.Context, userID uuid.UUID) ([]services.SeriesGroup, error)
	Delete(ctx context.Context, userID, itemID uuid.UUID) error
	UpdateSpinDirection(ctx context.Context, userID, itemID uuid.UUID, direction models.SpinDirection) (*services.CollectionItemView, error)
	UpdatePhoto(ctx context.Context, userID, itemID uuid.UUID, photo string) (*services.CollectionItemView, error)
}

// Catalog is implemented by services.CatalogService.
type Catalog interface {
	List(ctx context.Context, query services.CatalogQuery) ([]services.CatalogEntryView, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*services.CatalogEntryView, error)
	Filters(ctx context.Context) (*services.CatalogFilters, error)
	RenameSeries(ctx context.Context, from, to string) (int64, error)
	RenameGeneration(ctx context.Context, series, from, to string) (int64, error)
	Reassign(ctx context.Context, ids []uuid.UUID, series, generation string) (int64, error)
	Update(ctx context.Context, id uuid.UUID, update services.CatalogUpdate) (*services.CatalogEntryView, error)
}

// Statistics is implemented by services.StatsService.
type Statistics interface {
	ForUser(ctx context.Context, userID uuid.UUID) (*services.Stats, error)
	Components(ctx context.Context, userID uuid.UUID) ([]services.ComponentCategory, error)
}

// ImageProxy is implemented by services.ImageService.
type ImageProxy interface {
	Proxy(ctx context.Context, slug string, size int) (*services.ProxiedImage, error)
}
