// internal/services/collection_service.go
package services

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/beycollection/internal/apperrors"
	"github.com/javajoker/beycollection/internal/models"
	"github.com/javajoker/beycollection/internal/normalize"
	"github.com/javajoker/beycollection/internal/utils"
)

// unknownGroup labels items whose entry has no series or generation.
const unknownGroup = "Unknown"

// CollectionItemView is a collection item with the image the user sees.
type CollectionItemView struct {
	models.CollectionItem
	DisplayImageURL string `json:"display_image_url"`
}

type GenerationGroup struct {
	Generation string               `json:"generation"`
	Count      int                  `json:"count"`
	Items      []CollectionItemView `json:"items"`
}

type SeriesGroup struct {
	Series      string            `json:"series"`
	Count       int               `json:"count"`
	Generations []GenerationGroup `json:"generations"`
}

type CollectionService struct {
	collection  CollectionStore
	catalog     CatalogStore
	store       ObjectStore
	images      *ImageService
	photoPrefix string
}

func NewCollectionService(collection CollectionStore, catalog CatalogStore, store ObjectStore, images *ImageService, photoPrefix string) *CollectionService {
	return &CollectionService{
		collection:  collection,
		catalog:     catalog,
		store:       store,
		images:      images,
		photoPrefix: strings.Trim(photoPrefix, "/"),
	}
}

func (s *CollectionService) List(ctx context.Context, userID uuid.UUID, params utils.PaginationParams) ([]CollectionItemView, int64, error) {
	items, total, err := s.collection.ListPage(ctx, userID, params)
	if err != nil {
		return nil, 0, err
	}
	return s.views(items), total, nil
}

func (s *CollectionService) Delete(ctx context.Context, userID, itemID uuid.UUID) error {
	item, err := s.collection.FindForUser(ctx, userID, itemID)
	if err != nil {
		return err
	}
	if err := s.collection.Delete(ctx, userID, itemID); err != nil {
		return err
	}
	s.releasePhoto(ctx, item)
	return nil
}

func (s *CollectionService) UpdateSpinDirection(ctx context.Context, userID, itemID uuid.UUID, direction models.SpinDirection) (*CollectionItemView, error) {
	if !direction.Valid() {
		return nil, apperrors.Validation("collection.invalid_spin_direction", "Invalid spin direction")
	}

	if err := s.collection.UpdateFields(ctx, userID, itemID, map[string]interface{}{"spin_direction": direction}); err != nil {
		return nil, err
	}
	return s.get(ctx, userID, itemID)
}

// UpdatePhoto replaces the personal photo of an item. The previous photo is
// removed from storage when nothing else can reference it.
func (s *CollectionService) UpdatePhoto(ctx context.Context, userID, itemID uuid.UUID, photo string) (*CollectionItemView, error) {
	item, err := s.collection.FindForUser(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	url, _, err := uploadUserPhoto(ctx, s.store, s.photoPrefix, userID, photo)
	if err != nil {
		return nil, err
	}
	if url == item.PhotoURL {
		return s.view(item), nil
	}

	if err := s.collection.UpdateFields(ctx, userID, itemID, map[string]interface{}{"photo_url": url}); err != nil {
		return nil, err
	}

	s.releasePhoto(ctx, item)

	item.PhotoURL = url
	return s.view(item), nil
}

// Grouped partitions the collection into series and generation groups keyed
// by normalized names. Groups follow canonical rank; items within a
// generation are newest first.
func (s *CollectionService) Grouped(ctx context.Context, userID uuid.UUID) ([]SeriesGroup, error) {
	items, err := s.collection.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return GroupItems(s.views(items)), nil
}

func (s *CollectionService) DisplayImage(item *models.CollectionItem) string {
	return s.images.DisplayImage(item)
}

// GroupItems builds the series/generation hierarchy. Groups of equal rank
// keep the order in which their first item appears.
func GroupItems(items []CollectionItemView) []SeriesGroup {
	type bucket struct {
		series      string
		order       []string
		generations map[string][]CollectionItemView
	}

	var order []*bucket
	buckets := make(map[string]*bucket)
	for _, item := range items {
		series, generation := groupKeys(&item.CollectionItem)
		b, ok := buckets[series]
		if !ok {
			b = &bucket{series: series, generations: make(map[string][]CollectionItemView)}
			buckets[series] = b
			order = append(order, b)
		}
		if _, seen := b.generations[generation]; !seen {
			b.order = append(b.order, generation)
		}
		b.generations[generation] = append(b.generations[generation], item)
	}

	groups := make([]SeriesGroup, 0, len(order))
	for _, b := range order {
		group := SeriesGroup{Series: b.series}
		for _, generation := range b.order {
			members := b.generations[generation]
			sort.SliceStable(members, func(i, j int) bool {
				return members[i].SortTime().After(members[j].SortTime())
			})
			group.Generations = append(group.Generations, GenerationGroup{
				Generation: generation,
				Count:      len(members),
				Items:      members,
			})
			group.Count += len(members)
		}
		sort.SliceStable(group.Generations, func(i, j int) bool {
			return normalize.GenerationOrder(group.Generations[i].Generation) < normalize.GenerationOrder(group.Generations[j].Generation)
		})
		groups = append(groups, group)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return normalize.SeriesOrder(groups[i].Series) < normalize.SeriesOrder(groups[j].Series)
	})

	return groups
}

func groupKeys(item *models.CollectionItem) (string, string) {
	if item.CatalogEntry == nil {
		return unknownGroup, unknownGroup
	}
	series, generation := normalize.Pair(item.CatalogEntry.Series, item.CatalogEntry.Generation)
	if series == "" {
		series = unknownGroup
	}
	if generation == "" {
		generation = unknownGroup
	}
	return series, generation
}

func (s *CollectionService) get(ctx context.Context, userID, itemID uuid.UUID) (*CollectionItemView, error) {
	item, err := s.collection.FindForUser(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	return s.view(item), nil
}

func (s *CollectionService) view(item *models.CollectionItem) *CollectionItemView {
	return &CollectionItemView{CollectionItem: *item, DisplayImageURL: s.images.DisplayImage(item)}
}

func (s *CollectionService) views(items []models.CollectionItem) []CollectionItemView {
	out := make([]CollectionItemView, 0, len(items))
	for i := range items {
		out = append(out, *s.view(&items[i]))
	}
	return out
}

// releasePhoto deletes an item's previous photo once no collection item and
// no catalog entry references it. Photo keys are content addressed, so one
// object can back several items. Callers run it after the item stopped
// pointing at the photo.
func (s *CollectionService) releasePhoto(ctx context.Context, item *models.CollectionItem) {
	if item.PhotoURL == "" {
		return
	}
	logger := logrus.WithFields(logrus.Fields{"item_id": item.ID, "photo_url": item.PhotoURL})

	items, err := s.collection.CountByPhoto(ctx, item.PhotoURL)
	if err != nil {
		logger.WithError(err).Warn("Failed to check photo references, keeping photo")
		return
	}
	if items > 0 {
		logger.Debug("Photo still used by another item, keeping it")
		return
	}

	entries, err := s.catalog.CountByImage(ctx, item.PhotoURL)
	if err != nil {
		logger.WithError(err).Warn("Failed to check photo references, keeping photo")
		return
	}
	if entries > 0 {
		logger.Debug("Photo is a catalog image, keeping it")
		return
	}

	deleteOwnedPhoto(ctx, s.store, item.PhotoURL)
}
