// internal/services/image_service.go
package services

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/beycollection/internal/apperrors"
	"github.com/javajoker/beycollection/internal/imageurl"
	"github.com/javajoker/beycollection/internal/models"
)

var unsafeSlugChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// backgroundStoreTimeout bounds a fire-and-forget cache write.
const backgroundStoreTimeout = 30 * time.Second

// ProxiedImage is an image served by the proxy.
type ProxiedImage struct {
	Data        []byte
	ContentType string
	Cached      bool
}

// ImageService keeps copies of wiki images in the object store and serves
// them through the image proxy.
type ImageService struct {
	source      KnowledgeSource
	store       ObjectStore
	resolver    *imageurl.Resolver
	cachePrefix string
	defaultSize int

	pending sync.WaitGroup
}

func NewImageService(source KnowledgeSource, store ObjectStore, resolver *imageurl.Resolver, cachePrefix string, defaultSize int) *ImageService {
	if defaultSize <= 0 {
		defaultSize = 400
	}
	return &ImageService{
		source:      source,
		store:       store,
		resolver:    resolver,
		cachePrefix: strings.Trim(cachePrefix, "/"),
		defaultSize: defaultSize,
	}
}

// SanitizeSlug replaces every character outside [a-zA-Z0-9_-] with "_".
func SanitizeSlug(slug string) string {
	return unsafeSlugChars.ReplaceAllString(slug, "_")
}

// CacheKey is the object key of a cached wiki image.
func (s *ImageService) CacheKey(slug string, size int) string {
	return fmt.Sprintf("%s/%s-%d.jpg", s.cachePrefix, SanitizeSlug(slug), size)
}

func (s *ImageService) DefaultSize() int {
	return s.defaultSize
}

// CacheExternalImage copies externalURL into owned storage and returns the
// owned URL. Any failure falls back to externalURL itself; an empty input
// yields "".
func (s *ImageService) CacheExternalImage(ctx context.Context, slug, externalURL string) string {
	if externalURL == "" {
		return ""
	}

	logger := logrus.WithFields(logrus.Fields{"slug": slug, "url": externalURL})

	image, err := s.source.DownloadImage(ctx, externalURL)
	if err != nil {
		logger.WithError(err).Warn("Image download failed, keeping external URL")
		return externalURL
	}

	result, err := s.store.Upload(ctx, s.CacheKey(slug, s.defaultSize), image.Data, image.ContentType)
	if err != nil {
		logger.WithError(err).Warn("Image upload failed, keeping external URL")
		return externalURL
	}

	return result.URL
}

// Proxy returns the thumbnail of a wiki page. A cached copy is served when
// present; otherwise the image is fetched from the wiki and stored in the
// background without delaying the response.
func (s *ImageService) Proxy(ctx context.Context, slug string, size int) (*ProxiedImage, error) {
	if strings.TrimSpace(slug) == "" {
		return nil, apperrors.Validation("image.slug_required", "Missing slug parameter")
	}
	if size <= 0 {
		size = s.defaultSize
	}

	key := s.CacheKey(slug, size)
	logger := logrus.WithFields(logrus.Fields{"slug": slug, "size": size})

	if data, contentType, err := s.store.Download(ctx, key); err == nil {
		logger.Debug("Serving cached image")
		return &ProxiedImage{Data: data, ContentType: imageContentType(contentType, data), Cached: true}, nil
	} else if !apperrors.IsNotFound(err) {
		logger.WithError(err).Warn("Image cache read failed")
	}

	imageURL, err := s.source.FetchPageImage(ctx, slug, size)
	if err != nil {
		return nil, asImageNotFound(err)
	}

	image, err := s.source.DownloadImage(ctx, imageURL)
	if err != nil {
		return nil, asImageNotFound(err)
	}

	s.storeInBackground(key, image.Data, image.ContentType)

	return &ProxiedImage{Data: image.Data, ContentType: imageContentType(image.ContentType, image.Data)}, nil
}

// Wait blocks until background cache writes have finished.
func (s *ImageService) Wait() {
	s.pending.Wait()
}

func (s *ImageService) storeInBackground(key string, data []byte, contentType string) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		ctx, cancel := context.WithTimeout(context.Background(), backgroundStoreTimeout)
		defer cancel()

		if _, err := s.store.Upload(ctx, key, data, contentType); err != nil {
			logrus.WithError(err).WithField("key", key).Warn("Failed to cache image")
			return
		}
		logrus.WithField("key", key).Debug("Cached image")
	}()
}

// DisplayImage is the image shown for a collection item: the personal
// photo when present, else the resolved catalog image.
func (s *ImageService) DisplayImage(item *models.CollectionItem) string {
	if item.PhotoURL != "" {
		return item.PhotoURL
	}
	if item.CatalogEntry == nil {
		return ""
	}
	return s.resolver.Resolve(item.CatalogEntry.ImageURL, item.CatalogEntry.WikiURL)
}

// asImageNotFound reports upstream wiki failures as a missing image.
// Timeouts keep their type.
func asImageNotFound(err error) error {
	if apperrors.Is(err, apperrors.TypeUpstream) {
		appErr, _ := apperrors.As(err)
		return apperrors.NotFound(appErr.Key, appErr.Message, err)
	}
	return err
}

func imageContentType(contentType string, data []byte) string {
	if strings.HasPrefix(contentType, "image/") {
		return contentType
	}
	if detected := http.DetectContentType(data); strings.HasPrefix(detected, "image/") {
		return detected
	}
	return "image/jpeg"
}
