// internal/search/session.go
package search

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/beycollection/internal/apperrors"
	"github.com/javajoker/beycollection/internal/wiki"
)

// Searcher is the knowledge-source search a session drives.
type Searcher interface {
	Search(ctx context.Context, query string) ([]wiki.SearchResult, error)
}

// Update is one message pushed to the session owner.
type Update struct {
	Query   string              `json:"query"`
	Results []wiki.SearchResult `json:"results"`
	Error   string              `json:"error,omitempty"`
	Cleared bool                `json:"cleared,omitempty"`
}

// Session debounces the queries typed by one client. Only the most recent
// query can deliver: each Submit cancels the previous request and bumps the
// generation, and delivery re-checks both under the session lock.
type Session struct {
	searcher  Searcher
	delay     time.Duration
	minLength int
	deliver   func(Update)

	mu         sync.Mutex
	generation uint64
	timer      *time.Timer
	cancel     context.CancelFunc
	closed     bool
}

func NewSession(searcher Searcher, delay time.Duration, minLength int, deliver func(Update)) *Session {
	if minLength <= 0 {
		minLength = 2
	}
	return &Session{
		searcher:  searcher,
		delay:     delay,
		minLength: minLength,
		deliver:   deliver,
	}
}

// Submit replaces the pending query. Input shorter than the minimum length
// clears the results immediately without a search.
func (s *Session) Submit(query string) {
	query = strings.TrimSpace(query)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.stopLocked()
	s.generation++
	generation := s.generation

	if utf8.RuneCountInString(query) < s.minLength {
		s.deliver(Update{Query: query, Results: []wiki.SearchResult{}, Cleared: true})
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.timer = time.AfterFunc(s.delay, func() {
		s.run(ctx, generation, query)
	})
}

// Close cancels any pending or in-flight search. Nothing is delivered after
// Close returns.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	s.closed = true
}

func (s *Session) run(ctx context.Context, generation uint64, query string) {
	results, err := s.searcher.Search(ctx, query)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || generation != s.generation || ctx.Err() != nil {
		logrus.WithFields(logrus.Fields{
			"query":      query,
			"generation": generation,
		}).Debug("Discarding stale search result")
		return
	}

	update := Update{Query: query, Results: results}
	if err != nil {
		update.Results = []wiki.SearchResult{}
		update.Error = userMessage(err)
	}
	if update.Results == nil {
		update.Results = []wiki.SearchResult{}
	}
	s.deliver(update)
}

func userMessage(err error) string {
	if appErr, ok := apperrors.As(err); ok && appErr.Message != "" {
		return appErr.Message
	}
	return "Search failed"
}

func (s *Session) stopLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
