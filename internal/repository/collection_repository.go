// internal/repository/collection_repository.go
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/beycollection/internal/apperrors"
	"github.com/javajoker/beycollection/internal/models"
	"github.com/javajoker/beycollection/internal/utils"
)

// ErrAlreadyOwned is returned when an insert hits the unique (user, entry)
// index.
var ErrAlreadyOwned = errors.New("collection item already exists")

// UserCount is the number of collection items one user owns.
type UserCount struct {
	UserID uuid.UUID
	Count  int64
}

type CollectionRepository struct {
	db *gorm.DB
}

func NewCollectionRepository(db *gorm.DB) *CollectionRepository {
	return &CollectionRepository{db: db}
}

func (r *CollectionRepository) Exists(ctx context.Context, userID, catalogEntryID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CollectionItem{}).
		Where("user_id = ? AND beyblade_id = ?", userID, catalogEntryID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check collection: %w", err)
	}
	return count > 0, nil
}

func (r *CollectionRepository) Create(ctx context.Context, item *models.CollectionItem) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s", ErrAlreadyOwned, item.CatalogEntryID)
		}
		return fmt.Errorf("failed to create collection item: %w", err)
	}
	return nil
}

// ListByUser returns all of a user's items, newest first, with their
// catalog entries.
func (r *CollectionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CollectionItem, error) {
	var items []models.CollectionItem
	err := r.db.WithContext(ctx).Preload("CatalogEntry").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list collection: %w", err)
	}
	return items, nil
}

// ListPage is ListByUser with pagination and a caller-chosen sort.
func (r *CollectionRepository) ListPage(ctx context.Context, userID uuid.UUID, params utils.PaginationParams) ([]models.CollectionItem, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.CollectionItem{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count collection: %w", err)
	}

	allowedSortFields := []string{"created_at", "acquired_at", "custom_name", "condition"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var items []models.CollectionItem
	if err := query.Preload("CatalogEntry").Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list collection: %w", err)
	}
	return items, total, nil
}

func (r *CollectionRepository) FindForUser(ctx context.Context, userID, itemID uuid.UUID) (*models.CollectionItem, error) {
	var item models.CollectionItem
	err := r.db.WithContext(ctx).Preload("CatalogEntry").
		Where("id = ? AND user_id = ?", itemID, userID).
		First(&item).Error
	if err != nil {
		return nil, notFoundOr(err, "collection.not_found", "Collection item not found")
	}
	return &item, nil
}

func (r *CollectionRepository) Delete(ctx context.Context, userID, itemID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", itemID, userID).
		Delete(&models.CollectionItem{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete collection item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("collection.not_found", "Collection item not found", nil)
	}
	return nil
}

func (r *CollectionRepository) UpdateFields(ctx context.Context, userID, itemID uuid.UUID, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.CollectionItem{}).
		Where("id = ? AND user_id = ?", itemID, userID).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update collection item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("collection.not_found", "Collection item not found", nil)
	}
	return nil
}

// CountByPhoto counts items of any user whose personal photo is photoURL.
func (r *CollectionRepository) CountByPhoto(ctx context.Context, photoURL string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CollectionItem{}).
		Where("photo_url = ?", photoURL).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count photo references: %w", err)
	}
	return count, nil
}

// CountsByUser returns the item count of every user owning at least one
// item.
func (r *CollectionRepository) CountsByUser(ctx context.Context) ([]UserCount, error) {
	var rows []UserCount
	err := r.db.WithContext(ctx).Model(&models.CollectionItem{}).
		Select("user_id, COUNT(*) AS count").
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count collections: %w", err)
	}
	return rows, nil
}
