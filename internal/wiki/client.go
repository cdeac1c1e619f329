// internal/wiki/client.go
package wiki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/javajoker/beycollection/internal/apperrors"
)

const (
	DefaultBaseURL          = "https://beyblade.fandom.com"
	DefaultUserAgent        = "BeyCollection/1.0"
	DefaultBrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	DefaultMaxImageBytes = 10 << 20
)

// Titles with these prefixes are wiki meta pages, not products.
var excludedPrefixes = []string{"category:", "template:", "user:", "file:"}

type Options struct {
	BaseURL          string
	UserAgent        string
	BrowserUserAgent string
	SearchTimeout    time.Duration
	PageTimeout      time.Duration
	ImageTimeout     time.Duration
	DownloadTimeout  time.Duration
	SearchLimit      int
	MinQueryLength   int
	RequestsPerSec   float64
	Burst            int
	MaxImageBytes    int64
}

func DefaultOptions() Options {
	return Options{
		BaseURL:          DefaultBaseURL,
		UserAgent:        DefaultUserAgent,
		BrowserUserAgent: DefaultBrowserUserAgent,
		SearchTimeout:    5 * time.Second,
		PageTimeout:      8 * time.Second,
		ImageTimeout:     5 * time.Second,
		DownloadTimeout:  10 * time.Second,
		SearchLimit:      15,
		MinQueryLength:   2,
		RequestsPerSec:   5,
		Burst:            10,
		MaxImageBytes:    DefaultMaxImageBytes,
	}
}

type SearchResult struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Slug string `json:"slug"`
}

type Page struct {
	Title      string   `json:"title"`
	Slug       string   `json:"slug"`
	URL        string   `json:"url"`
	HTML       string   `json:"-"`
	Categories []string `json:"categories"`
}

type Image struct {
	Data        []byte
	ContentType string
}

// Client talks to the MediaWiki API of the Beyblade wiki. Every call runs
// under its own deadline.
type Client struct {
	opts       Options
	httpClient *http.Client
	limiter    *rate.Limiter
	tracer     trace.Tracer
}

func NewClient(opts Options, httpClient *http.Client) *Client {
	defaults := DefaultOptions()
	if opts.BaseURL == "" {
		opts.BaseURL = defaults.BaseURL
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.UserAgent == "" {
		opts.UserAgent = defaults.UserAgent
	}
	if opts.BrowserUserAgent == "" {
		opts.BrowserUserAgent = defaults.BrowserUserAgent
	}
	if opts.MaxImageBytes <= 0 {
		opts.MaxImageBytes = defaults.MaxImageBytes
	}
	if opts.SearchTimeout <= 0 {
		opts.SearchTimeout = defaults.SearchTimeout
	}
	if opts.PageTimeout <= 0 {
		opts.PageTimeout = defaults.PageTimeout
	}
	if opts.ImageTimeout <= 0 {
		opts.ImageTimeout = defaults.ImageTimeout
	}
	if opts.DownloadTimeout <= 0 {
		opts.DownloadTimeout = defaults.DownloadTimeout
	}
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = defaults.SearchLimit
	}
	if opts.MinQueryLength <= 0 {
		opts.MinQueryLength = defaults.MinQueryLength
	}

	limit := rate.Inf
	if opts.RequestsPerSec > 0 {
		limit = rate.Limit(opts.RequestsPerSec)
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}

	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		opts:       opts,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, opts.Burst),
		tracer:     otel.Tracer("beycollection/wiki"),
	}
}

func (c *Client) MinQueryLength() int {
	return c.opts.MinQueryLength
}

// PageURL returns the public page address for slug.
func (c *Client) PageURL(slug string) string {
	return c.opts.BaseURL + "/wiki/" + slug
}

// Search runs an opensearch query. Queries shorter than the minimum length
// return an empty list without touching the network.
func (c *Client) Search(ctx context.Context, query string) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < c.opts.MinQueryLength {
		return []SearchResult{}, nil
	}

	ctx, span := c.tracer.Start(ctx, "wiki.search",
		trace.WithAttributes(attribute.String("wiki.query", query)),
	)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.opts.SearchTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("action", "opensearch")
	params.Set("search", query)
	params.Set("limit", strconv.Itoa(c.opts.SearchLimit))
	params.Set("format", "json")

	var payload []json.RawMessage
	err := c.getJSON(ctx, c.apiURL(params), c.opts.UserAgent, "application/json", &payload)
	if err != nil {
		err = c.classify(err, "search.timeout", "Search timed out - try again", "search.failed", "Failed to search the wiki")
		recordError(span, err)
		return nil, err
	}

	// opensearch: [term, [titles], [descriptions], [urls]]
	var titles, urls []string
	if len(payload) > 1 {
		_ = json.Unmarshal(payload[1], &titles)
	}
	if len(payload) > 3 {
		_ = json.Unmarshal(payload[3], &urls)
	}

	results := make([]SearchResult, 0, len(titles))
	for i, title := range titles {
		if isMetaPage(title) {
			continue
		}
		result := SearchResult{
			Name: title,
			Slug: Slug(title),
		}
		if i < len(urls) {
			result.URL = urls[i]
		} else {
			result.URL = c.PageURL(result.Slug)
		}
		results = append(results, result)
	}

	span.SetAttributes(attribute.Int("wiki.results", len(results)))
	return results, nil
}

type parseResponse struct {
	Parse *struct {
		Title string `json:"title"`
		Text  struct {
			Content string `json:"*"`
		} `json:"text"`
		Categories []struct {
			Name string `json:"*"`
		} `json:"categories"`
	} `json:"parse"`
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

// FetchPage loads the rendered page and its categories. Metadata is required
// by the lookup flow, so a timeout fails the whole call.
func (c *Client) FetchPage(ctx context.Context, slug string) (*Page, error) {
	ctx, span := c.tracer.Start(ctx, "wiki.fetch_page",
		trace.WithAttributes(attribute.String("wiki.slug", slug)),
	)
	defer span.End()

	if strings.TrimSpace(slug) == "" {
		return nil, apperrors.Validation("validation.slug_required", "No slug provided")
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.PageTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("action", "parse")
	params.Set("page", slug)
	params.Set("format", "json")
	params.Set("prop", "text|categories")

	var payload parseResponse
	if err := c.getJSON(ctx, c.apiURL(params), c.opts.UserAgent, "application/json", &payload); err != nil {
		err = c.classify(err, "request.timeout", "Request timed out", "beyblade.fetch_failed", "Failed to fetch Beyblade page")
		recordError(span, err)
		return nil, err
	}

	if payload.Error != nil || payload.Parse == nil {
		var cause error
		if payload.Error != nil {
			cause = fmt.Errorf("%s: %s", payload.Error.Code, payload.Error.Info)
		}
		err := apperrors.NotFound("beyblade.not_found", "Beyblade page not found", cause)
		recordError(span, err)
		return nil, err
	}

	page := &Page{
		Title: payload.Parse.Title,
		Slug:  slug,
		URL:   c.PageURL(slug),
		HTML:  payload.Parse.Text.Content,
	}
	if page.Title == "" {
		page.Title = slug
	}
	for _, category := range payload.Parse.Categories {
		if name := strings.ReplaceAll(category.Name, "_", " "); name != "" {
			page.Categories = append(page.Categories, name)
		}
	}

	span.SetAttributes(attribute.Int("wiki.categories", len(page.Categories)))
	return page, nil
}

type pageImagesResponse struct {
	Query *struct {
		Pages map[string]struct {
			Thumbnail *struct {
				Source string `json:"source"`
			} `json:"thumbnail"`
		} `json:"pages"`
	} `json:"query"`
}

// FetchPageImage resolves the lead thumbnail of a page at the given width.
// Callers treat any error as "no image".
func (c *Client) FetchPageImage(ctx context.Context, slug string, size int) (string, error) {
	ctx, span := c.tracer.Start(ctx, "wiki.fetch_page_image",
		trace.WithAttributes(attribute.String("wiki.slug", slug), attribute.Int("wiki.size", size)),
	)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.opts.ImageTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("action", "query")
	params.Set("titles", slug)
	params.Set("prop", "pageimages")
	params.Set("pithumbsize", strconv.Itoa(size))
	params.Set("format", "json")
	params.Set("redirects", "1")

	var payload pageImagesResponse
	if err := c.getJSON(ctx, c.apiURL(params), c.opts.BrowserUserAgent, "application/json", &payload); err != nil {
		err = c.classify(err, "request.timeout", "Request timed out", "image.fetch_failed", "Failed to fetch from wiki")
		recordError(span, err)
		return "", err
	}

	if payload.Query == nil || len(payload.Query.Pages) == 0 {
		return "", apperrors.NotFound("image.not_found", "No pages found", nil)
	}

	ids := make([]string, 0, len(payload.Query.Pages))
	for id := range payload.Query.Pages {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if thumb := payload.Query.Pages[id].Thumbnail; thumb != nil && thumb.Source != "" {
			return thumb.Source, nil
		}
	}

	return "", apperrors.NotFound("image.not_found", "No image available", nil)
}

// DownloadImage fetches image bytes with browser headers; the media host
// rejects requests without a wiki referer.
func (c *Client) DownloadImage(ctx context.Context, imageURL string) (*Image, error) {
	ctx, span := c.tracer.Start(ctx, "wiki.download_image")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.opts.DownloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, apperrors.Validation("image.invalid_url", "Invalid image URL")
	}
	req.Header.Set("User-Agent", c.opts.BrowserUserAgent)
	req.Header.Set("Accept", "image/webp,image/apng,image/*,*/*;q=0.8")
	req.Header.Set("Referer", c.opts.BaseURL+"/")

	resp, err := c.do(ctx, req)
	if err != nil {
		err = c.classify(err, "request.timeout", "Request timed out", "image.download_failed", "Failed to download image")
		recordError(span, err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := apperrors.Upstream("image.download_failed", "Failed to download image", fmt.Errorf("status %d", resp.StatusCode))
		recordError(span, err)
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.opts.MaxImageBytes+1))
	if err != nil {
		err = c.classify(err, "request.timeout", "Request timed out", "image.download_failed", "Failed to download image")
		recordError(span, err)
		return nil, err
	}
	if int64(len(data)) > c.opts.MaxImageBytes {
		err := apperrors.Upstream("file.too_large", "Image is too large", fmt.Errorf("image exceeds %d bytes", c.opts.MaxImageBytes))
		recordError(span, err)
		return nil, err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	span.SetAttributes(attribute.Int("wiki.image_bytes", len(data)))
	return &Image{Data: data, ContentType: contentType}, nil
}

func (c *Client) apiURL(params url.Values) string {
	return c.opts.BaseURL + "/api.php?" + params.Encode()
}

func (c *Client) getJSON(ctx context.Context, endpoint, userAgent, accept string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", accept)

	resp, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("wiki api status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode wiki response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Wait fails early when the deadline cannot be met.
		return nil, context.DeadlineExceeded
	}
	return c.httpClient.Do(req)
}

// classify turns transport errors into typed errors. A cancellation by the
// caller is passed through untouched so superseded searches stay quiet.
func (c *Client) classify(err error, timeoutKey, timeoutMsg, failKey, failMsg string) error {
	if _, ok := apperrors.As(err); ok {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if apperrors.IsDeadline(err) {
		logrus.WithError(err).Warn("Wiki request timed out")
		return apperrors.Timeout(timeoutKey, timeoutMsg, err)
	}
	logrus.WithError(err).Warn("Wiki request failed")
	return apperrors.Upstream(failKey, failMsg, err)
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func isMetaPage(title string) bool {
	lower := strings.ToLower(title)
	for _, prefix := range excludedPrefixes {
		if strings.Contains(lower, prefix) {
			return true
		}
	}
	return false
}

// Slug turns a page title into the form used in wiki URLs.
func Slug(title string) string {
	return strings.ReplaceAll(title, " ", "_")
}
