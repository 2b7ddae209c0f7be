package api

import (
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := newRateLimiter(50*time.Millisecond, 2)

	assert.True(t, rl.allow("10.0.0.1"))
	assert.True(t, rl.allow("10.0.0.1"))
	assert.False(t, rl.allow("10.0.0.1"))

	// Other clients get their own window.
	assert.True(t, rl.allow("10.0.0.2"))

	time.Sleep(60 * time.Millisecond)
	assert.True(t, rl.allow("10.0.0.1"))
}

func TestRateLimiterEvictsStaleWindows(t *testing.T) {
	rl := newRateLimiter(time.Nanosecond, 1)
	for i := 0; i < evictThreshold+10; i++ {
		rl.allow("client-" + strconv.Itoa(i))
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.LessOrEqual(t, len(rl.clients), evictThreshold+1)
}

func TestRateLimitMiddleware(t *testing.T) {
	h := newTestHandler(t)
	// Rebuild with a tight limit; httptest requests share one RemoteAddr.
	limited := New(h.db, "test-secret", time.Minute, 3)
	router := limited.Router()

	for i := 0; i < 3; i++ {
		rec := doRequest(t, router, http.MethodGet, "/health", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := doRequest(t, router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.False(t, decodeEnvelope(t, rec).Success)
}
