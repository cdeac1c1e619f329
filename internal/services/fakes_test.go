package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/javajoker/beycollection/internal/apperrors"
	"github.com/javajoker/beycollection/internal/imageurl"
	"github.com/javajoker/beycollection/internal/llm"
	"github.com/javajoker/beycollection/internal/models"
	"github.com/javajoker/beycollection/internal/repository"
	"github.com/javajoker/beycollection/internal/utils"
	"github.com/javajoker/beycollection/internal/wiki"
)

var jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F'}

const jpegDataURL = "data:image/jpeg;base64,/9j/4AAQSkZJRg=="

type fakeSource struct {
	mu          sync.Mutex
	pages       map[string]*wiki.Page
	pageErrs    []error
	images      map[string]string
	imageErr    error
	downloads   map[string]*wiki.Image
	downloadErr error
	pageCalls   int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		pages:     make(map[string]*wiki.Page),
		images:    make(map[string]string),
		downloads: make(map[string]*wiki.Image),
	}
}

func (f *fakeSource) Search(ctx context.Context, query string) ([]wiki.SearchResult, error) {
	return []wiki.SearchResult{{Name: query, Slug: wiki.Slug(query)}}, nil
}

func (f *fakeSource) FetchPage(ctx context.Context, slug string) (*wiki.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pageCalls++
	if len(f.pageErrs) > 0 {
		err := f.pageErrs[0]
		f.pageErrs = f.pageErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	page, ok := f.pages[slug]
	if !ok {
		return nil, apperrors.NotFound("beyblade.not_found", "Beyblade page not found", nil)
	}
	return page, nil
}

func (f *fakeSource) FetchPageImage(ctx context.Context, slug string, size int) (string, error) {
	if f.imageErr != nil {
		return "", f.imageErr
	}
	url, ok := f.images[slug]
	if !ok {
		return "", apperrors.Upstream("image.not_found", "Image not found", nil)
	}
	return url, nil
}

func (f *fakeSource) DownloadImage(ctx context.Context, imageURL string) (*wiki.Image, error) {
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	image, ok := f.downloads[imageURL]
	if !ok {
		return nil, apperrors.Upstream("image.download_failed", "Failed to download image", nil)
	}
	return image, nil
}

func (f *fakeSource) PageURL(slug string) string {
	return "https://beyblade.fandom.com/wiki/" + slug
}

func (f *fakeSource) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pageCalls
}

type fakeProvider struct {
	mu       sync.Mutex
	text     string
	err      error
	requests []llm.CompletionRequest
}

func (f *fakeProvider) GetName() string { return "fake" }

func (f *fakeProvider) CompleteText(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Text: f.text}, nil
}

// memStore is an in-memory ObjectStore.
type memStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	types     map[string]string
	uploadErr error
	uploads   int
	deleted   []string
}

const memStoreURL = "https://cdn.example.com/beyblade-images"

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (m *memStore) Upload(ctx context.Context, key string, data []byte, contentType string) (*UploadResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.uploadErr != nil {
		return nil, m.uploadErr
	}
	m.uploads++
	m.objects[key] = data
	m.types[key] = contentType
	return &UploadResult{URL: m.PublicURL(key), Key: key, Size: int64(len(data)), MimeType: contentType}, nil
}

func (m *memStore) Download(ctx context.Context, key string) ([]byte, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, "", apperrors.NotFound("image.not_found", "Object not found", nil)
	}
	return data, m.types[key], nil
}

func (m *memStore) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *memStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *memStore) PublicURL(key string) string {
	return memStoreURL + "/" + key
}

func (m *memStore) KeyFromURL(url string) (string, bool) {
	if !strings.HasPrefix(url, memStoreURL+"/") {
		return "", false
	}
	return strings.TrimPrefix(url, memStoreURL+"/"), true
}

func (m *memStore) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

type fakeCatalog struct {
	mu        sync.Mutex
	entries   []*models.CatalogEntry
	raceEntry *models.CatalogEntry
	updates   []map[string]interface{}
}

func (f *fakeCatalog) FindByID(ctx context.Context, id uuid.UUID) (*models.CatalogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.ID == id {
			copied := *e
			return &copied, nil
		}
	}
	return nil, apperrors.NotFound("beyblade.not_found", "Beyblade not found", nil)
}

func (f *fakeCatalog) FindByName(ctx context.Context, name string) (*models.CatalogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.Name == name {
			copied := *e
			return &copied, nil
		}
	}
	return nil, apperrors.NotFound("beyblade.not_found", "Beyblade not found", nil)
}

// Create simulates the unique name index. raceEntry is inserted by "another
// user" right before this call.
func (f *fakeCatalog) Create(ctx context.Context, entry *models.CatalogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.raceEntry != nil {
		f.entries = append(f.entries, f.raceEntry)
		f.raceEntry = nil
	}
	for _, e := range f.entries {
		if e.Name == entry.Name {
			return fmt.Errorf("%w: %s", repository.ErrDuplicateName, entry.Name)
		}
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	copied := *entry
	f.entries = append(f.entries, &copied)
	return nil
}

func (f *fakeCatalog) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.ID != id {
			continue
		}
		if name, ok := updates["name"].(string); ok {
			for _, other := range f.entries {
				if other.ID != id && other.Name == name {
					return fmt.Errorf("%w: %s", repository.ErrDuplicateName, name)
				}
			}
			e.Name = name
		}
		for column, value := range updates {
			switch column {
			case "image_url":
				e.ImageURL = value.(string)
			case "series":
				e.Series = value.(string)
			case "generation":
				e.Generation = value.(string)
			case "description":
				e.Description = value.(string)
			case "type":
				e.Type = value.(models.BeybladeType)
			}
		}
		f.updates = append(f.updates, updates)
		return nil
	}
	return apperrors.NotFound("beyblade.not_found", "Beyblade not found", nil)
}

func (f *fakeCatalog) List(ctx context.Context, filter repository.CatalogFilter) ([]models.CatalogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.CatalogEntry
	for _, e := range f.entries {
		if filter.Type != "" && e.Type != filter.Type {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(e.Name), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

func (f *fakeCatalog) Count(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.entries)), nil
}

func (f *fakeCatalog) CountByImage(ctx context.Context, imageURL string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, e := range f.entries {
		if e.ImageURL == imageURL {
			n++
		}
	}
	return n, nil
}

func (f *fakeCatalog) DistinctSeriesGenerations(ctx context.Context) ([]repository.SeriesGeneration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	index := make(map[[2]string]int)
	var rows []repository.SeriesGeneration
	for _, e := range f.entries {
		k := [2]string{e.Series, e.Generation}
		if i, ok := index[k]; ok {
			rows[i].Count++
			continue
		}
		index[k] = len(rows)
		rows = append(rows, repository.SeriesGeneration{Series: e.Series, Generation: e.Generation, Count: 1})
	}
	return rows, nil
}

func (f *fakeCatalog) RenameSeries(ctx context.Context, from []string, to string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, e := range f.entries {
		if contains(from, e.Series) {
			e.Series = to
			n++
		}
	}
	return n, nil
}

func (f *fakeCatalog) RenameGeneration(ctx context.Context, series, from []string, to string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, e := range f.entries {
		if contains(series, e.Series) && contains(from, e.Generation) {
			e.Generation = to
			n++
		}
	}
	return n, nil
}

func (f *fakeCatalog) Reassign(ctx context.Context, ids []uuid.UUID, series, generation string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, e := range f.entries {
		for _, id := range ids {
			if e.ID == id {
				e.Series, e.Generation = series, generation
				n++
			}
		}
	}
	return n, nil
}

func (f *fakeCatalog) byName(name string) *models.CatalogEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.Name == name {
			return e
		}
	}
	return nil
}

type fakeCollection struct {
	mu        sync.Mutex
	items     []*models.CollectionItem
	catalog   *fakeCatalog
	createErr error
	counts    []repository.UserCount
	// concurrentInsert makes the next Create lose to an identical insert
	// committed just before it.
	concurrentInsert bool
}

func (f *fakeCollection) Exists(ctx context.Context, userID, catalogEntryID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range f.items {
		if item.UserID == userID && item.CatalogEntryID == catalogEntryID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCollection) Create(ctx context.Context, item *models.CollectionItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if f.concurrentInsert {
		f.concurrentInsert = false
		winner := *item
		winner.ID = uuid.New()
		f.items = append(f.items, &winner)
	}
	for _, existing := range f.items {
		if existing.UserID == item.UserID && existing.CatalogEntryID == item.CatalogEntryID {
			return fmt.Errorf("%w: %s", repository.ErrAlreadyOwned, item.CatalogEntryID)
		}
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	copied := *item
	f.items = append(f.items, &copied)
	return nil
}

func (f *fakeCollection) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CollectionItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.CollectionItem
	for _, item := range f.items {
		if item.UserID == userID {
			out = append(out, f.withEntry(item))
		}
	}
	return out, nil
}

func (f *fakeCollection) ListPage(ctx context.Context, userID uuid.UUID, params utils.PaginationParams) ([]models.CollectionItem, int64, error) {
	items, _ := f.ListByUser(ctx, userID)
	return utils.PaginateSlice(items, params), int64(len(items)), nil
}

func (f *fakeCollection) FindForUser(ctx context.Context, userID, itemID uuid.UUID) (*models.CollectionItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range f.items {
		if item.ID == itemID && item.UserID == userID {
			found := f.withEntry(item)
			return &found, nil
		}
	}
	return nil, apperrors.NotFound("collection.not_found", "Collection item not found", nil)
}

func (f *fakeCollection) Delete(ctx context.Context, userID, itemID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, item := range f.items {
		if item.ID == itemID && item.UserID == userID {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return apperrors.NotFound("collection.not_found", "Collection item not found", nil)
}

func (f *fakeCollection) UpdateFields(ctx context.Context, userID, itemID uuid.UUID, updates map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range f.items {
		if item.ID != itemID || item.UserID != userID {
			continue
		}
		if v, ok := updates["spin_direction"]; ok {
			item.SpinDirection = v.(models.SpinDirection)
		}
		if v, ok := updates["photo_url"]; ok {
			item.PhotoURL = v.(string)
		}
		return nil
	}
	return apperrors.NotFound("collection.not_found", "Collection item not found", nil)
}

func (f *fakeCollection) CountByPhoto(ctx context.Context, photoURL string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, item := range f.items {
		if item.PhotoURL == photoURL {
			n++
		}
	}
	return n, nil
}

func (f *fakeCollection) CountsByUser(ctx context.Context) ([]repository.UserCount, error) {
	return f.counts, nil
}

func (f *fakeCollection) withEntry(item *models.CollectionItem) models.CollectionItem {
	out := *item
	if f.catalog != nil && out.CatalogEntry == nil {
		for _, e := range f.catalog.entries {
			if e.ID == item.CatalogEntryID {
				copied := *e
				out.CatalogEntry = &copied
			}
		}
	}
	return out
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

func newTestResolver() *imageurl.Resolver {
	return imageurl.NewResolver("https://api.example.com/v1/images/wiki", 400,
		[]string{"cdn.example.com"}, []string{"static.wikia.nocookie.net"})
}

func newTestImageService(source KnowledgeSource, store ObjectStore) *ImageService {
	return NewImageService(source, store, newTestResolver(), "wiki-cache", 400)
}

func entry(name, series, generation string, t models.BeybladeType) *models.CatalogEntry {
	e := &models.CatalogEntry{Name: name, Series: series, Generation: generation, Type: t}
	e.ID = uuid.New()
	return e
}
