// internal/services/interfaces.go
package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/javajoker/beycollection/internal/models"
	"github.com/javajoker/beycollection/internal/repository"
	"github.com/javajoker/beycollection/internal/utils"
	"github.com/javajoker/beycollection/internal/wiki"
)

// KnowledgeSource is the external wiki.
type KnowledgeSource interface {
	Search(ctx context.Context, query string) ([]wiki.SearchResult, error)
	FetchPage(ctx context.Context, slug string) (*wiki.Page, error)
	FetchPageImage(ctx context.Context, slug string, size int) (string, error)
	DownloadImage(ctx context.Context, imageURL string) (*wiki.Image, error)
	PageURL(slug string) string
}

type CatalogStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.CatalogEntry, error)
	FindByName(ctx context.Context, name string) (*models.CatalogEntry, error)
	Create(ctx context.Context, entry *models.CatalogEntry) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
	List(ctx context.Context, filter repository.CatalogFilter) ([]models.CatalogEntry, error)
	Count(ctx context.Context) (int64, error)
	CountByImage(ctx context.Context, imageURL string) (int64, error)
	DistinctSeriesGenerations(ctx context.Context) ([]repository.SeriesGeneration, error)
	RenameSeries(ctx context.Context, from []string, to string) (int64, error)
	RenameGeneration(ctx context.Context, series, from []string, to string) (int64, error)
	Reassign(ctx context.Context, ids []uuid.UUID, series, generation string) (int64, error)
}

type CollectionStore interface {
	Exists(ctx context.Context, userID, catalogEntryID uuid.UUID) (bool, error)
	Create(ctx context.Context, item *models.CollectionItem) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CollectionItem, error)
	ListPage(ctx context.Context, userID uuid.UUID, params utils.PaginationParams) ([]models.CollectionItem, int64, error)
	FindForUser(ctx context.Context, userID, itemID uuid.UUID) (*models.CollectionItem, error)
	Delete(ctx context.Context, userID, itemID uuid.UUID) error
	UpdateFields(ctx context.Context, userID, itemID uuid.UUID, updates map[string]interface{}) error
	CountByPhoto(ctx context.Context, photoURL string) (int64, error)
	CountsByUser(ctx context.Context) ([]repository.UserCount, error)
}
