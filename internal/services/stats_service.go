// internal/services/stats_service.go
package services

import (
	"context"
	"math"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/javajoker/beycollection/internal/models"
	"github.com/javajoker/beycollection/internal/normalize"
)

// TopComponentsLimit caps the most-owned components list.
const TopComponentsLimit = 6

type NamedCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type TimelinePoint struct {
	Date       string `json:"date"`
	Count      int    `json:"count"`
	Cumulative int    `json:"cumulative"`
}

type ComponentCount struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Count    int    `json:"count"`
}

type CollectionGoal struct {
	UserCount    int   `json:"user_count"`
	TotalCatalog int64 `json:"total_catalog"`
	Percentage   int   `json:"percentage"`
}

type UserComparison struct {
	UserCount    int `json:"user_count"`
	AverageCount int `json:"average_count"`
	Percentile   int `json:"percentile"`
	TotalUsers   int `json:"total_users"`
}

type Stats struct {
	Total          int              `json:"total"`
	ByType         []NamedCount     `json:"by_type"`
	BySeries       []NamedCount     `json:"by_series"`
	ByGeneration   []NamedCount     `json:"by_generation"`
	Timeline       []TimelinePoint  `json:"timeline"`
	TopComponents  []ComponentCount `json:"top_components"`
	CollectionGoal CollectionGoal   `json:"collection_goal"`
	Comparison     UserComparison   `json:"user_comparison"`
}

// StatsInput is everything Compute needs. UserCounts holds the item count of
// every user owning at least one item, the requesting user included.
type StatsInput struct {
	UserID      uuid.UUID
	Items       []models.CollectionItem
	CatalogSize int64
	UserCounts  map[uuid.UUID]int64
}

type ComponentOwner struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type ComponentUsage struct {
	Name      string           `json:"name"`
	Slot      string           `json:"slot"`
	Count     int              `json:"count"`
	Beyblades []ComponentOwner `json:"beyblades"`
}

type ComponentCategory struct {
	Category   string           `json:"category"`
	Components []ComponentUsage `json:"components"`
}

var categoryOrder = []string{
	models.SlotBlade,
	models.SlotRatchet,
	models.SlotBit,
	models.SlotFaceBolt,
	models.SlotEnergyRing,
	models.SlotFusionWheel,
	models.SlotSpinTrack,
	models.SlotPerformanceTip,
}

type StatsService struct {
	catalog    CatalogStore
	collection CollectionStore
}

func NewStatsService(catalog CatalogStore, collection CollectionStore) *StatsService {
	return &StatsService{catalog: catalog, collection: collection}
}

// ForUser loads the collection, catalog size and per-user counts
// concurrently and computes the statistics.
func (s *StatsService) ForUser(ctx context.Context, userID uuid.UUID) (*Stats, error) {
	input := StatsInput{UserID: userID}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := s.collection.ListByUser(gctx, userID)
		input.Items = items
		return err
	})
	g.Go(func() error {
		size, err := s.catalog.Count(gctx)
		input.CatalogSize = size
		return err
	})
	g.Go(func() error {
		rows, err := s.collection.CountsByUser(gctx)
		if err != nil {
			return err
		}
		input.UserCounts = make(map[uuid.UUID]int64, len(rows))
		for _, row := range rows {
			input.UserCounts[row.UserID] = row.Count
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := Compute(input)
	return &stats, nil
}

// Components builds the user's component library grouped by slot category.
func (s *StatsService) Components(ctx context.Context, userID uuid.UUID) ([]ComponentCategory, error) {
	items, err := s.collection.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ComponentLibrary(items), nil
}

// Compute derives the statistics of one collection. It does no I/O.
func Compute(in StatsInput) Stats {
	stats := Stats{Total: len(in.Items)}

	byType := newCounter()
	bySeries := newCounter()
	byGeneration := newCounter()
	components := newCounter()
	componentCategory := make(map[string]string)
	perDay := make(map[string]int)

	for i := range in.Items {
		item := &in.Items[i]

		if date := item.AcquisitionDate(); date != "" {
			perDay[date]++
		}

		entry := item.CatalogEntry
		if entry == nil {
			continue
		}

		if t, ok := models.NormalizeType(string(entry.Type)); ok {
			byType.add(string(t))
		} else if entry.Type != "" {
			byType.add(string(entry.Type))
		}

		series, generation := normalize.Pair(entry.Series, entry.Generation)
		if series != "" {
			bySeries.add(series)
		}
		if generation != "" {
			byGeneration.add(generation)
		}

		for _, part := range entry.Components.Data().Parts() {
			if _, seen := componentCategory[part.Name]; !seen {
				componentCategory[part.Name] = models.SlotCategory(part.Slot)
			}
			components.add(part.Name)
		}
	}

	stats.ByType = byType.sorted()
	stats.BySeries = bySeries.sorted()
	stats.ByGeneration = byGeneration.sorted()
	stats.Timeline = timeline(perDay)

	top := components.sorted()
	if len(top) > TopComponentsLimit {
		top = top[:TopComponentsLimit]
	}
	stats.TopComponents = make([]ComponentCount, 0, len(top))
	for _, c := range top {
		stats.TopComponents = append(stats.TopComponents, ComponentCount{
			Name:     c.Name,
			Category: componentCategory[c.Name],
			Count:    c.Count,
		})
	}

	stats.CollectionGoal = CollectionGoal{
		UserCount:    stats.Total,
		TotalCatalog: in.CatalogSize,
		Percentage:   CompletionPercent(stats.Total, in.CatalogSize),
	}
	stats.Comparison = compare(in.UserID, int64(stats.Total), in.UserCounts)

	return stats
}

// CompletionPercent is owned/catalog as a rounded percentage, 0 for an
// empty catalog.
func CompletionPercent(owned int, catalogSize int64) int {
	if catalogSize <= 0 {
		return 0
	}
	return int(math.Round(float64(owned) / float64(catalogSize) * 100))
}

// Percentile is the share of other users owning strictly fewer items. With
// no one to compare against it is 100.
func Percentile(total int64, others []int64) int {
	if len(others) == 0 {
		return 100
	}
	below := 0
	for _, count := range others {
		if count < total {
			below++
		}
	}
	return int(math.Round(float64(below) / float64(len(others)) * 100))
}

func compare(userID uuid.UUID, total int64, counts map[uuid.UUID]int64) UserComparison {
	others := make([]int64, 0, len(counts))
	var sum int64
	users := 0
	for id, count := range counts {
		sum += count
		users++
		if id != userID {
			others = append(others, count)
		}
	}
	if _, listed := counts[userID]; !listed && total > 0 {
		sum += total
		users++
	}

	average := 0
	if users > 0 {
		average = int(math.Round(float64(sum) / float64(users)))
	}

	return UserComparison{
		UserCount:    int(total),
		AverageCount: average,
		Percentile:   Percentile(total, others),
		TotalUsers:   users,
	}
}

func timeline(perDay map[string]int) []TimelinePoint {
	dates := make([]string, 0, len(perDay))
	for date := range perDay {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	points := make([]TimelinePoint, 0, len(dates))
	cumulative := 0
	for _, date := range dates {
		cumulative += perDay[date]
		points = append(points, TimelinePoint{Date: date, Count: perDay[date], Cumulative: cumulative})
	}
	return points
}

// ComponentLibrary lists every owned component by slot category. Within a
// category components are ordered by owner count, then name.
func ComponentLibrary(items []models.CollectionItem) []ComponentCategory {
	type key struct{ category, name string }

	usage := make(map[key]*ComponentUsage)
	owners := make(map[key]map[uuid.UUID]bool)

	for i := range items {
		entry := items[i].CatalogEntry
		if entry == nil {
			continue
		}
		for _, part := range entry.Components.Data().Parts() {
			k := key{models.SlotCategory(part.Slot), part.Name}
			u, ok := usage[k]
			if !ok {
				u = &ComponentUsage{Name: part.Name, Slot: part.Slot}
				usage[k] = u
				owners[k] = make(map[uuid.UUID]bool)
			}
			if owners[k][entry.ID] {
				continue
			}
			owners[k][entry.ID] = true
			u.Count++
			u.Beyblades = append(u.Beyblades, ComponentOwner{ID: entry.ID, Name: entry.Name})
		}
	}

	byCategory := make(map[string][]ComponentUsage)
	for k, u := range usage {
		byCategory[k.category] = append(byCategory[k.category], *u)
	}

	var library []ComponentCategory
	for _, category := range categoryOrder {
		list, ok := byCategory[category]
		if !ok {
			continue
		}
		sort.Slice(list, func(i, j int) bool {
			if list[i].Count != list[j].Count {
				return list[i].Count > list[j].Count
			}
			return list[i].Name < list[j].Name
		})
		library = append(library, ComponentCategory{Category: category, Components: list})
	}
	return library
}

// counter counts names and remembers first-seen order for ties.
type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(name string) {
	if _, ok := c.counts[name]; !ok {
		c.order = append(c.order, name)
	}
	c.counts[name]++
}

// sorted returns counts in descending order; equal counts keep first-seen
// order.
func (c *counter) sorted() []NamedCount {
	out := make([]NamedCount, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, NamedCount{Name: name, Count: c.counts[name]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}
