// internal/handlers/search.go
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/beycollection/internal/search"
	"github.com/javajoker/beycollection/internal/utils"
)

const (
	searchReadLimit    = 4096
	searchWriteTimeout = 10 * time.Second
)

type SearchHandler struct {
	identifier Identifier
	debounce   time.Duration
	minLength  int
	upgrader   websocket.Upgrader
}

// NewSearchHandler accepts websocket upgrades only from the allowed origins.
// A "*" entry allows every origin.
func NewSearchHandler(identifier Identifier, debounce time.Duration, minLength int, allowedOrigins []string) *SearchHandler {
	return &SearchHandler{
		identifier: identifier,
		debounce:   debounce,
		minLength:  minLength,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// GET /search?q=
func (h *SearchHandler) Search(c *gin.Context) {
	results, err := h.identifier.Search(c.Request.Context(), strings.TrimSpace(c.Query("q")))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"results": results,
	})
}

type searchMessage struct {
	Query string `json:"query"`
}

// GET /search/ws
func (h *SearchHandler) SearchSession(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Debug("Search websocket upgrade failed")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(searchReadLimit)

	outbox := newLatestUpdate()
	session := search.NewSession(h.identifier, h.debounce, h.minLength, outbox.put)

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			case <-outbox.ready:
				update, ok := outbox.take()
				if !ok {
					continue
				}
				conn.SetWriteDeadline(time.Now().Add(searchWriteTimeout))
				if err := conn.WriteJSON(update); err != nil {
					logrus.WithError(err).Debug("Search websocket write failed")
					conn.Close()
					return
				}
			}
		}
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var msg searchMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			continue
		}
		session.Submit(msg.Query)
	}

	session.Close()
	close(stop)
	<-done
}

// latestUpdate keeps only the newest undelivered update. put never blocks,
// so it is safe to call under the session lock.
type latestUpdate struct {
	mu      sync.Mutex
	update  search.Update
	pending bool
	ready   chan struct{}
}

func newLatestUpdate() *latestUpdate {
	return &latestUpdate{ready: make(chan struct{}, 1)}
}

func (l *latestUpdate) put(update search.Update) {
	l.mu.Lock()
	l.update = update
	l.pending = true
	l.mu.Unlock()

	select {
	case l.ready <- struct{}{}:
	default:
	}
}

func (l *latestUpdate) take() (search.Update, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.pending {
		return search.Update{}, false
	}
	l.pending = false
	return l.update, true
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}
