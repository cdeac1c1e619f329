// internal/imageurl/imageurl.go
package imageurl

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var (
	wikiPagePattern  = regexp.MustCompile(`/wiki/([^?#]+)`)
	wikiImagePattern = regexp.MustCompile(`(?i)/beyblade/images/[a-f0-9]/[a-f0-9]{2}/([^./]+)\.[a-zA-Z]+`)
)

// Resolver rewrites hot-link protected wiki image URLs to the image proxy.
// An empty string stands for "no image" on both sides.
type Resolver struct {
	ProxyURL          string
	DefaultSize       int
	OwnStorageMarkers []string
	WikiHosts         []string
}

// NewResolver falls back to a 400px default size.
func NewResolver(proxyURL string, defaultSize int, ownStorageMarkers, wikiHosts []string) *Resolver {
	if defaultSize <= 0 {
		defaultSize = 400
	}
	return &Resolver{
		ProxyURL:          proxyURL,
		DefaultSize:       defaultSize,
		OwnStorageMarkers: ownStorageMarkers,
		WikiHosts:         wikiHosts,
	}
}

// Resolve is ResolveSize at the default size.
func (r *Resolver) Resolve(imageURL, wikiURL string) string {
	return r.ResolveSize(imageURL, wikiURL, r.DefaultSize)
}

// ResolveSize returns the URL a client can load for imageURL. Wiki media is
// routed through the proxy by page slug, falling back to the file name.
func (r *Resolver) ResolveSize(imageURL, wikiURL string, size int) string {
	if imageURL == "" {
		return ""
	}

	if r.IsOwnStorage(imageURL) {
		return imageURL
	}

	if !r.isWikiMedia(imageURL) {
		return imageURL
	}

	slug := SlugFromPageURL(wikiURL)
	if slug == "" {
		slug = SlugFromImageURL(imageURL)
	}
	if slug == "" || r.ProxyURL == "" {
		return imageURL
	}

	if size <= 0 {
		size = r.DefaultSize
	}

	return r.ProxyURL + "?slug=" + url.QueryEscape(slug) + "&size=" + strconv.Itoa(size)
}

// IsOwnStorage reports whether imageURL points at our object storage.
func (r *Resolver) IsOwnStorage(imageURL string) bool {
	for _, marker := range r.OwnStorageMarkers {
		if marker != "" && strings.Contains(imageURL, marker) {
			return true
		}
	}
	return false
}

func (r *Resolver) isWikiMedia(imageURL string) bool {
	for _, host := range r.WikiHosts {
		if host != "" && strings.Contains(imageURL, host) {
			return true
		}
	}
	return false
}

// SlugFromPageURL returns the page slug of a ".../wiki/<slug>" URL.
func SlugFromPageURL(wikiURL string) string {
	if wikiURL == "" {
		return ""
	}
	match := wikiPagePattern.FindStringSubmatch(wikiURL)
	if len(match) < 2 {
		return ""
	}
	return match[1]
}

// SlugFromImageURL returns the file name stem of a wiki media URL such as
// ".../beyblade/images/a/b3/DranSword.png/revision/latest".
func SlugFromImageURL(imageURL string) string {
	match := wikiImagePattern.FindStringSubmatch(imageURL)
	if len(match) < 2 {
		return ""
	}
	return match[1]
}
