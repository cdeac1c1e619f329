package wiki

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/beycollection/internal/apperrors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate func(*Options)) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts := DefaultOptions()
	opts.BaseURL = server.URL
	opts.RequestsPerSec = 0
	if mutate != nil {
		mutate(&opts)
	}
	return NewClient(opts, server.Client())
}

func TestSearchShortQuerySkipsNetwork(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}, nil)

	results, err := client.Search(context.Background(), "D")
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.NotNil(t, results)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestSearchFiltersMetaPages(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api.php", r.URL.Path)
		assert.Equal(t, "opensearch", r.URL.Query().Get("action"))
		assert.Equal(t, "15", r.URL.Query().Get("limit"))
		assert.Equal(t, "Dran", r.URL.Query().Get("search"))
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`["Dran",
			["DranSword","Category:Dran","Dran Buster","File:DranSword.png"],
			["","","",""],
			["https://beyblade.fandom.com/wiki/DranSword","https://beyblade.fandom.com/wiki/Category:Dran","https://beyblade.fandom.com/wiki/Dran_Buster","https://beyblade.fandom.com/wiki/File:DranSword.png"]]`))
	}, nil)

	results, err := client.Search(context.Background(), "Dran")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, SearchResult{Name: "DranSword", Slug: "DranSword", URL: "https://beyblade.fandom.com/wiki/DranSword"}, results[0])
	assert.Equal(t, "Dran_Buster", results[1].Slug)
}

func TestSearchTimeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, func(o *Options) { o.SearchTimeout = 50 * time.Millisecond })

	_, err := client.Search(context.Background(), "Dran")
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.TypeTimeout, appErr.Type)
	assert.Equal(t, "search.timeout", appErr.Key)
	assert.Equal(t, "Search timed out - try again", appErr.Message)
}

func TestSearchCallerCancellationIsNotTyped(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := client.Search(ctx, "Dran")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	_, typed := apperrors.As(err)
	assert.False(t, typed)
}

func TestFetchPage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "parse", q.Get("action"))
		assert.Equal(t, "DranSword", q.Get("page"))
		assert.Equal(t, "text|categories", q.Get("prop"))
		w.Write([]byte(`{"parse":{"title":"DranSword","text":{"*":"<p>Dran Sword 3-60F</p>"},
			"categories":[{"*":"Beyblade_X"},{"*":"Attack_Type"}]}}`))
	}, nil)

	page, err := client.FetchPage(context.Background(), "DranSword")
	require.NoError(t, err)
	assert.Equal(t, "DranSword", page.Title)
	assert.Equal(t, "<p>Dran Sword 3-60F</p>", page.HTML)
	assert.Equal(t, []string{"Beyblade X", "Attack Type"}, page.Categories)
	assert.Equal(t, client.PageURL("DranSword"), page.URL)
}

func TestFetchPageNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"code":"missingtitle","info":"The page you specified doesn't exist."}}`))
	}, nil)

	_, err := client.FetchPage(context.Background(), "Nope")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestFetchPageTimeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}, func(o *Options) { o.PageTimeout = 30 * time.Millisecond })

	_, err := client.FetchPage(context.Background(), "DranSword")
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "request.timeout", appErr.Key)
}

func TestFetchPageImage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "pageimages", q.Get("prop"))
		assert.Equal(t, "200", q.Get("pithumbsize"))
		assert.Equal(t, "1", q.Get("redirects"))
		w.Write([]byte(`{"query":{"pages":{"4242":{"thumbnail":{"source":"https://static.wikia.nocookie.net/beyblade/images/a/b3/DranSword.png"}}}}}`))
	}, nil)

	src, err := client.FetchPageImage(context.Background(), "DranSword", 200)
	require.NoError(t, err)
	assert.Equal(t, "https://static.wikia.nocookie.net/beyblade/images/a/b3/DranSword.png", src)
}

func TestFetchPageImageMissing(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"query":{"pages":{"-1":{"missing":""}}}}`))
	}, nil)

	_, err := client.FetchPageImage(context.Background(), "Nope", 400)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestDownloadImageSendsReferer(t *testing.T) {
	var referer string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		referer = r.Header.Get("Referer")
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte{0x89, 'P', 'N', 'G'})
	}, nil)

	img, err := client.DownloadImage(context.Background(), client.opts.BaseURL+"/img.png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Len(t, img.Data, 4)
	assert.Equal(t, client.opts.BaseURL+"/", referer)
}

func TestDownloadImageUpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}, nil)

	_, err := client.DownloadImage(context.Background(), client.opts.BaseURL+"/img.png")
	assert.Equal(t, apperrors.TypeUpstream, apperrors.TypeOf(err))
}

func TestDownloadImageRejectsOversizedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(make([]byte, 65))
	}, func(opts *Options) {
		opts.MaxImageBytes = 64
	})

	_, err := client.DownloadImage(context.Background(), client.opts.BaseURL+"/big.jpg")
	require.Error(t, err)
	assert.Equal(t, apperrors.TypeUpstream, apperrors.TypeOf(err))

	client = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(make([]byte, 64))
	}, func(opts *Options) {
		opts.MaxImageBytes = 64
	})

	img, err := client.DownloadImage(context.Background(), client.opts.BaseURL+"/edge.jpg")
	require.NoError(t, err)
	assert.Len(t, img.Data, 64)
}
