package middleware

import (
	"net/http"
	"sync"
	"time"

	"eventpay/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// slidingWindow counts hits per client IP in fixed windows. Idle IPs are
// purged in the background so the map stays bounded under churn.
type slidingWindow struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	clients map[string]*windowState
}

type windowState struct {
	hits    int
	resetAt time.Time
}

func newSlidingWindow(limit int, window time.Duration) *slidingWindow {
	sw := &slidingWindow{
		limit:   limit,
		window:  window,
		clients: make(map[string]*windowState),
	}
	go sw.purgeLoop()
	return sw
}

// allow records one hit for ip and reports whether it stayed under the
// limit, plus when the current window resets.
func (sw *slidingWindow) allow(ip string) (bool, time.Time) {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := time.Now()
	st, ok := sw.clients[ip]
	if !ok || now.After(st.resetAt) {
		st = &windowState{resetAt: now.Add(sw.window)}
		sw.clients[ip] = st
	}
	st.hits++
	return st.hits <= sw.limit, st.resetAt
}

func (sw *slidingWindow) purgeLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		sw.mu.Lock()
		purged := 0
		for ip, st := range sw.clients {
			if now.After(st.resetAt) {
				delete(sw.clients, ip)
				purged++
			}
		}
		remaining := len(sw.clients)
		sw.mu.Unlock()

		if purged > 0 {
			log.Debug().
				Int("purged", purged).
				Int("remaining", remaining).
				Msg("rate limiter map purged")
		}
	}
}

// LoginRateLimiter throttles login attempts to 20 per minute per IP.
func LoginRateLimiter() gin.HandlerFunc {
	sw := newSlidingWindow(20, time.Minute)
	return func(c *gin.Context) {
		if ok, _ := sw.allow(c.ClientIP()); !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				apierror.New("Too many login attempts. Try again in a minute."))
			return
		}
		c.Next()
	}
}

// RateLimiter throttles general API traffic per IP.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	sw := newSlidingWindow(limit, window)
	return func(c *gin.Context) {
		ok, resetAt := sw.allow(c.ClientIP())
		if !ok {
			c.Header("Retry-After", resetAt.Format(time.RFC1123))
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				apierror.New("Too many requests. Try again shortly."))
			return
		}
		c.Next()
	}
}
