// internal/services/catalog_service.go
package services

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/beycollection/internal/apperrors"
	"github.com/javajoker/beycollection/internal/models"
	"github.com/javajoker/beycollection/internal/normalize"
	"github.com/javajoker/beycollection/internal/repository"
	"github.com/javajoker/beycollection/internal/utils"
)

// CatalogQuery filters the catalog. Series and Generation are compared after
// normalization, so any alias of a canonical name matches.
type CatalogQuery struct {
	Series     string
	Generation string
	Type       string
	Pagination utils.PaginationParams
}

// CatalogEntryView is a catalog entry with its display image resolved.
type CatalogEntryView struct {
	models.CatalogEntry
	DisplayImageURL string `json:"display_image_url"`
}

type SeriesFilter struct {
	Series      string   `json:"series"`
	Count       int64    `json:"count"`
	Generations []string `json:"generations"`
}

type CatalogFilters struct {
	Series []SeriesFilter         `json:"series"`
	Types  []models.BeybladeType `json:"types"`
}

// CatalogUpdate is an admin edit. Nil fields are left untouched; set fields
// overwrite the stored value.
type CatalogUpdate struct {
	Name        *string `json:"name"`
	NameHasbro  *string `json:"name_hasbro"`
	Series      *string `json:"series"`
	Generation  *string `json:"generation"`
	Type        *string `json:"type"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url"`
	WikiURL     *string `json:"wiki_url"`
}

type CatalogService struct {
	catalog CatalogStore
	images  *ImageService
}

func NewCatalogService(catalog CatalogStore, images *ImageService) *CatalogService {
	return &CatalogService{catalog: catalog, images: images}
}

// List returns one page of the catalog ordered by series rank, generation
// rank and name.
func (s *CatalogService) List(ctx context.Context, query CatalogQuery) ([]CatalogEntryView, int64, error) {
	filter := repository.CatalogFilter{Search: strings.TrimSpace(query.Pagination.Search)}
	if query.Type != "" {
		t, ok := models.NormalizeType(query.Type)
		if !ok {
			return nil, 0, apperrors.Validation("validation.invalid", "Invalid Beyblade type")
		}
		filter.Type = t
	}

	entries, err := s.catalog.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	wantSeries, wantGeneration := normalize.Pair(strings.TrimSpace(query.Series), strings.TrimSpace(query.Generation))

	matched := make([]models.CatalogEntry, 0, len(entries))
	for _, entry := range entries {
		series, generation := normalize.Pair(entry.Series, entry.Generation)
		if wantSeries != "" && series != wantSeries {
			continue
		}
		if wantGeneration != "" && generation != wantGeneration {
			continue
		}
		matched = append(matched, entry)
	}

	SortCatalog(matched)

	page := utils.PaginateSlice(matched, query.Pagination)
	views := make([]CatalogEntryView, 0, len(page))
	for i := range page {
		views = append(views, s.view(&page[i]))
	}
	return views, int64(len(matched)), nil
}

func (s *CatalogService) Get(ctx context.Context, id uuid.UUID) (*CatalogEntryView, error) {
	entry, err := s.catalog.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := s.view(entry)
	return &view, nil
}

// Filters lists the normalized series present in the catalog with their
// generations, both in canonical order.
func (s *CatalogService) Filters(ctx context.Context) (*CatalogFilters, error) {
	rows, err := s.catalog.DistinctSeriesGenerations(ctx)
	if err != nil {
		return nil, err
	}

	index := make(map[string]*SeriesFilter)
	seen := make(map[string]map[string]bool)
	for _, row := range rows {
		series, generation := normalize.Pair(row.Series, row.Generation)
		if series == "" {
			continue
		}
		f, ok := index[series]
		if !ok {
			f = &SeriesFilter{Series: series}
			index[series] = f
			seen[series] = make(map[string]bool)
		}
		f.Count += row.Count
		if generation != "" && !seen[series][generation] {
			seen[series][generation] = true
			f.Generations = append(f.Generations, generation)
		}
	}

	filters := &CatalogFilters{Types: models.BeybladeTypes}
	for _, f := range index {
		sort.Slice(f.Generations, func(i, j int) bool {
			return rankLess(normalize.GenerationOrder(f.Generations[i]), f.Generations[i],
				normalize.GenerationOrder(f.Generations[j]), f.Generations[j])
		})
		filters.Series = append(filters.Series, *f)
	}
	sort.Slice(filters.Series, func(i, j int) bool {
		return rankLess(normalize.SeriesOrder(filters.Series[i].Series), filters.Series[i].Series,
			normalize.SeriesOrder(filters.Series[j].Series), filters.Series[j].Series)
	})
	return filters, nil
}

// RenameSeries renames every stored spelling of a series. from is matched
// after normalization.
func (s *CatalogService) RenameSeries(ctx context.Context, from, to string) (int64, error) {
	to = strings.TrimSpace(to)
	if strings.TrimSpace(from) == "" || to == "" {
		return 0, apperrors.Validation("validation.required", "Series names are required")
	}

	rows, err := s.catalog.DistinctSeriesGenerations(ctx)
	if err != nil {
		return 0, err
	}

	target := normalize.Series(strings.TrimSpace(from))
	raw := distinct(rows, func(row repository.SeriesGeneration) (string, bool) {
		return row.Series, normalize.Series(row.Series) == target
	})

	renamed, err := s.catalog.RenameSeries(ctx, raw, to)
	if err != nil {
		return 0, err
	}
	logrus.WithFields(logrus.Fields{"from": from, "to": to, "rows": renamed}).Info("Series renamed")
	return renamed, nil
}

// RenameGeneration renames a generation within one series.
func (s *CatalogService) RenameGeneration(ctx context.Context, series, from, to string) (int64, error) {
	to = strings.TrimSpace(to)
	if strings.TrimSpace(series) == "" || strings.TrimSpace(from) == "" || to == "" {
		return 0, apperrors.Validation("validation.required", "Series and generation names are required")
	}

	rows, err := s.catalog.DistinctSeriesGenerations(ctx)
	if err != nil {
		return 0, err
	}

	wantSeries, wantGeneration := normalize.Pair(strings.TrimSpace(series), strings.TrimSpace(from))
	matches := func(row repository.SeriesGeneration) bool {
		rowSeries, rowGeneration := normalize.Pair(row.Series, row.Generation)
		return rowSeries == wantSeries && rowGeneration == wantGeneration
	}

	rawSeries := distinct(rows, func(row repository.SeriesGeneration) (string, bool) {
		return row.Series, matches(row)
	})
	rawGenerations := distinct(rows, func(row repository.SeriesGeneration) (string, bool) {
		return row.Generation, matches(row)
	})

	renamed, err := s.catalog.RenameGeneration(ctx, rawSeries, rawGenerations, to)
	if err != nil {
		return 0, err
	}
	logrus.WithFields(logrus.Fields{"series": series, "from": from, "to": to, "rows": renamed}).Info("Generation renamed")
	return renamed, nil
}

func (s *CatalogService) Reassign(ctx context.Context, ids []uuid.UUID, series, generation string) (int64, error) {
	if len(ids) == 0 {
		return 0, apperrors.Validation("validation.required", "No Beyblades selected")
	}
	series = strings.TrimSpace(series)
	if series == "" {
		return 0, apperrors.Validation("validation.required", "Series is required")
	}
	return s.catalog.Reassign(ctx, ids, series, strings.TrimSpace(generation))
}

// Update applies an admin edit. Unlike reconciliation merges, set fields
// replace stored values even when they are not empty.
func (s *CatalogService) Update(ctx context.Context, id uuid.UUID, update CatalogUpdate) (*CatalogEntryView, error) {
	updates := make(map[string]interface{})

	set := func(column string, value *string) {
		if value != nil {
			updates[column] = strings.TrimSpace(*value)
		}
	}
	set("name_hasbro", update.NameHasbro)
	set("series", update.Series)
	set("generation", update.Generation)
	set("description", update.Description)
	set("image_url", update.ImageURL)
	set("wiki_url", update.WikiURL)

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, apperrors.Validation("beyblade.name_required", "Beyblade name is required")
		}
		updates["name"] = name
	}

	if update.Type != nil {
		t, ok := models.NormalizeType(*update.Type)
		if !ok {
			return nil, apperrors.Validation("validation.invalid", "Invalid Beyblade type")
		}
		updates["type"] = t
	}

	if len(updates) > 0 {
		if err := s.catalog.Update(ctx, id, updates); err != nil {
			if errors.Is(err, repository.ErrDuplicateName) {
				return nil, apperrors.Conflict("beyblade.duplicate_name", "Another Beyblade already has this name")
			}
			return nil, err
		}
	}

	return s.Get(ctx, id)
}

// SortCatalog orders entries by normalized series rank, generation rank and
// name.
func SortCatalog(entries []models.CatalogEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		si, gi := normalize.Pair(entries[i].Series, entries[i].Generation)
		sj, gj := normalize.Pair(entries[j].Series, entries[j].Generation)
		if ri, rj := normalize.SeriesOrder(si), normalize.SeriesOrder(sj); ri != rj {
			return ri < rj
		}
		if ri, rj := normalize.GenerationOrder(gi), normalize.GenerationOrder(gj); ri != rj {
			return ri < rj
		}
		return entries[i].Name < entries[j].Name
	})
}

func (s *CatalogService) view(entry *models.CatalogEntry) CatalogEntryView {
	return CatalogEntryView{
		CatalogEntry:    *entry,
		DisplayImageURL: s.images.resolver.Resolve(entry.ImageURL, entry.WikiURL),
	}
}

func distinct(rows []repository.SeriesGeneration, pick func(repository.SeriesGeneration) (string, bool)) []string {
	seen := make(map[string]bool)
	var out []string
	for _, row := range rows {
		value, ok := pick(row)
		if !ok || seen[value] {
			continue
		}
		seen[value] = true
		out = append(out, value)
	}
	return out
}

// rankLess orders by rank, then by name. Distinct rows come back from the
// database in no particular order.
func rankLess(rankA int, nameA string, rankB int, nameB string) bool {
	if rankA != rankB {
		return rankA < rankB
	}
	return nameA < nameB
}
