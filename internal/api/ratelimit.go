package api

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// rateLimiter counts requests per client over a fixed window. Stale windows
// are evicted lazily once the client map grows past evictThreshold.
type rateLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	max     int
	clients map[string]*clientWindow
}

type clientWindow struct {
	start time.Time
	count int
}

const evictThreshold = 1024

func newRateLimiter(window time.Duration, max int) *rateLimiter {
	return &rateLimiter{window: window, max: max, clients: make(map[string]*clientWindow)}
}

func (rl *rateLimiter) allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cw, ok := rl.clients[client]
	if !ok || now.Sub(cw.start) >= rl.window {
		if len(rl.clients) >= evictThreshold {
			rl.evict(now)
		}
		rl.clients[client] = &clientWindow{start: now, count: 1}
		return true
	}
	if cw.count >= rl.max {
		return false
	}
	cw.count++
	return true
}

// evict drops expired windows; callers must hold mu.
func (rl *rateLimiter) evict(now time.Time) {
	for client, cw := range rl.clients {
		if now.Sub(cw.start) >= rl.window {
			delete(rl.clients, client)
		}
	}
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	if rl.max <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if !rl.allow(host) {
			respondError(w, http.StatusTooManyRequests, "Too many requests from this IP, please try again later.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
