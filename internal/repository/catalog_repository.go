// internal/repository/catalog_repository.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/javajoker/beycollection/internal/apperrors"
	"github.com/javajoker/beycollection/internal/models"
)

// ErrDuplicateName is returned when a catalog insert hits the unique name
// index.
var ErrDuplicateName = errors.New("catalog entry name already exists")

type CatalogFilter struct {
	Type   models.BeybladeType
	Search string
}

// SeriesGeneration is one distinct raw (series, generation) pair as stored.
type SeriesGeneration struct {
	Series     string
	Generation string
	Count      int64
}

type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.CatalogEntry, error) {
	var entry models.CatalogEntry
	if err := r.db.WithContext(ctx).First(&entry, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "beyblade.not_found", "Beyblade not found")
	}
	return &entry, nil
}

// FindByName matches the name exactly.
func (r *CatalogRepository) FindByName(ctx context.Context, name string) (*models.CatalogEntry, error) {
	var entry models.CatalogEntry
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&entry).Error; err != nil {
		return nil, notFoundOr(err, "beyblade.not_found", "Beyblade not found")
	}
	return &entry, nil
}

func (r *CatalogRepository) Create(ctx context.Context, entry *models.CatalogEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s", ErrDuplicateName, entry.Name)
		}
		return fmt.Errorf("failed to create catalog entry: %w", err)
	}
	return nil
}

func (r *CatalogRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&models.CatalogEntry{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %v", ErrDuplicateName, updates["name"])
		}
		return fmt.Errorf("failed to update catalog entry: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("beyblade.not_found", "Beyblade not found", nil)
	}
	return nil
}

func (r *CatalogRepository) CountByImage(ctx context.Context, imageURL string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CatalogEntry{}).
		Where("image_url = ?", imageURL).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count image references: %w", err)
	}
	return count, nil
}

// List returns every entry matching filter ordered by name. Series and
// generation filtering happens after normalization, in the service.
func (r *CatalogRepository) List(ctx context.Context, filter CatalogFilter) ([]models.CatalogEntry, error) {
	query := r.db.WithContext(ctx).Model(&models.CatalogEntry{})

	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}

	if filter.Search != "" {
		searchTerm := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(name_hasbro) LIKE ?", searchTerm, searchTerm)
	}

	var entries []models.CatalogEntry
	if err := query.Order("name asc").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list catalog: %w", err)
	}
	return entries, nil
}

func (r *CatalogRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.CatalogEntry{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count catalog: %w", err)
	}
	return total, nil
}

func (r *CatalogRepository) DistinctSeriesGenerations(ctx context.Context) ([]SeriesGeneration, error) {
	var rows []SeriesGeneration
	err := r.db.WithContext(ctx).Model(&models.CatalogEntry{}).
		Select("series, generation, COUNT(*) AS count").
		Group("series, generation").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list series: %w", err)
	}
	return rows, nil
}

// RenameSeries rewrites every raw series value in from to to.
func (r *CatalogRepository) RenameSeries(ctx context.Context, from []string, to string) (int64, error) {
	if len(from) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Model(&models.CatalogEntry{}).
		Where("series IN ?", from).
		Update("series", to)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to rename series: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// RenameGeneration rewrites generation values in from, limited to rows whose
// series is one of series.
func (r *CatalogRepository) RenameGeneration(ctx context.Context, series, from []string, to string) (int64, error) {
	if len(series) == 0 || len(from) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Model(&models.CatalogEntry{}).
		Where("series IN ? AND generation IN ?", series, from).
		Update("generation", to)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to rename generation: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Reassign moves the given entries to series and generation.
func (r *CatalogRepository) Reassign(ctx context.Context, ids []uuid.UUID, series, generation string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}
	result := r.db.WithContext(ctx).Model(&models.CatalogEntry{}).
		Where("id = ANY(?::uuid[])", pq.Array(raw)).
		Updates(map[string]interface{}{"series": series, "generation": generation})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to reassign catalog entries: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func notFoundOr(err error, key, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound(key, message, err)
	}
	return fmt.Errorf("database error: %w", err)
}
