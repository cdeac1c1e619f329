// internal/middleware/rate_limit.go
package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/javajoker/beycollection/internal/config"
	"github.com/javajoker/beycollection/internal/utils"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type RateLimiter struct {
	visitors  map[string]*visitor
	mtx       sync.Mutex
	rate      rate.Limit
	burst     int
	retention time.Duration
	stop      chan struct{}
	stopOnce  sync.Once
}

func NewRateLimiter(r rate.Limit, b int, cleanupInterval, retention time.Duration) *RateLimiter {
	rl := &RateLimiter{
		visitors:  make(map[string]*visitor),
		rate:      r,
		burst:     b,
		retention: retention,
		stop:      make(chan struct{}),
	}

	go rl.cleanupVisitors(cleanupInterval)

	return rl
}

func (rl *RateLimiter) cleanupVisitors(interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.mtx.Lock()
			for ip, v := range rl.visitors {
				if time.Since(v.lastSeen) > rl.retention {
					delete(rl.visitors, ip)
				}
			}
			rl.mtx.Unlock()
		}
	}
}

// Stop ends the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) getVisitor(ip string) *rate.Limiter {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		limiter := rate.NewLimiter(rl.rate, rl.burst)
		rl.visitors[ip] = &visitor{limiter, time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.getVisitor(c.ClientIP()).Allow() {
			utils.TooManyRequestsResponse(c)
			c.Abort()
			return
		}

		c.Next()
	}
}

// RateLimiters holds the per-IP buckets of the API: general traffic, AI
// identification calls and photo uploads.
type RateLimiters struct {
	General  *RateLimiter
	Identify *RateLimiter
	Upload   *RateLimiter
}

func NewRateLimiters(cfg config.RateLimitConfig) *RateLimiters {
	cleanup := time.Duration(cfg.CleanupInterval) * time.Second
	retention := time.Duration(cfg.VisitorRetention) * time.Second

	return &RateLimiters{
		General:  NewRateLimiter(rate.Limit(cfg.GeneralPerSec), cfg.GeneralBurst, cleanup, retention),
		Identify: NewRateLimiter(perMinute(cfg.IdentifyPerMin), cfg.IdentifyBurst, cleanup, retention),
		Upload:   NewRateLimiter(perMinute(cfg.UploadPerMin), cfg.UploadBurst, cleanup, retention),
	}
}

func (r *RateLimiters) Stop() {
	r.General.Stop()
	r.Identify.Stop()
	r.Upload.Stop()
}

func perMinute(n int) rate.Limit {
	if n <= 0 {
		return rate.Inf
	}
	return rate.Every(time.Minute / time.Duration(n))
}
