// internal/services/identification_service.go
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/beycollection/internal/apperrors"
	"github.com/javajoker/beycollection/internal/identify"
	"github.com/javajoker/beycollection/internal/llm"
	"github.com/javajoker/beycollection/internal/models"
	"github.com/javajoker/beycollection/internal/wiki"
)

type IdentificationOptions struct {
	Model           string
	ImageMaxTokens  int
	LookupMaxTokens int
	DefaultSize     int
	Attempts        int
	RetryBackoff    time.Duration
}

type IdentificationService struct {
	source   KnowledgeSource
	provider llm.Provider
	images   *ImageService
	opts     IdentificationOptions
}

func NewIdentificationService(source KnowledgeSource, provider llm.Provider, images *ImageService, opts IdentificationOptions) *IdentificationService {
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}
	if opts.DefaultSize <= 0 {
		opts.DefaultSize = images.DefaultSize()
	}
	return &IdentificationService{
		source:   source,
		provider: provider,
		images:   images,
		opts:     opts,
	}
}

func (s *IdentificationService) Search(ctx context.Context, query string) ([]wiki.SearchResult, error) {
	return s.source.Search(ctx, query)
}

// IdentifyImage asks the model to recognize the product in a photo. Output
// that cannot be parsed is reported as an unidentified result, not an error.
func (s *IdentificationService) IdentifyImage(ctx context.Context, image string) (*models.IdentificationResult, error) {
	if strings.TrimSpace(image) == "" {
		return nil, apperrors.Validation("identify.image_required", "No image provided")
	}

	resp, err := s.provider.CompleteText(ctx, llm.CompletionRequest{
		SystemPrompt: identify.ImagePrompt,
		Prompt:       identify.ImageUserText,
		ImageURL:     identify.ImageDataURL(image),
		Model:        s.opts.Model,
		MaxTokens:    s.opts.ImageMaxTokens,
	})
	if err != nil {
		return nil, err
	}

	result, err := identify.Parse(resp.Text)
	if err != nil {
		logrus.WithError(err).WithField("provider", s.provider.GetName()).Warn("Failed to parse image identification")
		return identify.ParseFailure(), nil
	}

	result.Classify()
	return result, nil
}

// LookupBySlug builds a result from a wiki page chosen by the user. The whole
// lookup is retried on timeouts and upstream failures; once the attempts run
// out the caller gets a server_slow error.
func (s *IdentificationService) LookupBySlug(ctx context.Context, slug string) (*models.IdentificationResult, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, apperrors.Validation("identify.slug_required", "No slug provided")
	}

	attempt := 0
	operation := func() (*models.IdentificationResult, error) {
		attempt++
		result, err := s.lookupOnce(ctx, slug)
		if err == nil {
			return result, nil
		}
		logrus.WithError(err).WithFields(logrus.Fields{"slug": slug, "attempt": attempt}).Warn("Lookup attempt failed")
		if !retryable(err) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	result, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(s.opts.RetryBackoff)),
		backoff.WithMaxTries(uint(s.opts.Attempts)),
	)
	if err != nil {
		if ctx.Err() != nil || !retryable(err) {
			return nil, err
		}
		return nil, apperrors.New(apperrors.TypeServerSlow, "identify.server_slow",
			"The server is taking too long to respond, please try again", err)
	}
	return result, nil
}

func (s *IdentificationService) lookupOnce(ctx context.Context, slug string) (*models.IdentificationResult, error) {
	page, err := s.source.FetchPage(ctx, slug)
	if err != nil {
		return nil, err
	}

	imageURL, err := s.source.FetchPageImage(ctx, slug, s.opts.DefaultSize)
	if err != nil {
		logrus.WithError(err).WithField("slug", slug).Debug("No page image")
		imageURL = ""
	}
	imageURL = s.images.CacheExternalImage(ctx, slug, imageURL)

	wikiURL := s.source.PageURL(slug)

	resp, err := s.provider.CompleteText(ctx, llm.CompletionRequest{
		SystemPrompt: identify.LookupPrompt,
		Prompt:       identify.LookupMessage(page.Title, page.Categories, page.HTML),
		Model:        s.opts.Model,
		MaxTokens:    s.opts.LookupMaxTokens,
	})
	if err != nil {
		return nil, err
	}

	result, err := identify.Parse(resp.Text)
	if err != nil {
		logrus.WithError(err).WithField("slug", slug).Warn("Failed to parse lookup, using page metadata")
		result = identify.Degraded(page.Title, page.Categories, wikiURL)
	}

	result.Identified = true
	result.Name = page.Title
	result.WikiURL = wikiURL
	result.Categories = page.Categories
	result.ImageURL = imageURL
	result.ErrorMessage = ""
	result.Classify()

	return result, nil
}

// retryable reports whether another lookup attempt could succeed.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	switch apperrors.TypeOf(err) {
	case apperrors.TypeTimeout, apperrors.TypeUpstream, apperrors.TypeMalformedResponse, apperrors.TypeInternal:
		return true
	}
	return apperrors.IsDeadline(err)
}
