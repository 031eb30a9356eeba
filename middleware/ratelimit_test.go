package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_PerKey(t *testing.T) {
	rl := NewRateLimiter(2)
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return fixed }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))

	// one token refills every 30s at 2/min
	fixed = fixed.Add(31 * time.Second)
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
}

func TestRateLimiter_EvictsIdleClients(t *testing.T) {
	rl := NewRateLimiter(1)
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return fixed }

	rl.Allow("a")
	fixed = fixed.Add(idleTTL + time.Second)
	rl.Allow("b")

	_, ok := rl.clients["a"]
	assert.False(t, ok)
}

func TestRateLimiter_SweepsAtMostOncePerInterval(t *testing.T) {
	rl := NewRateLimiter(1)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fixed := start
	rl.now = func() time.Time { return fixed }

	rl.Allow("a")
	fixed = start.Add(idleTTL - 10*time.Second)
	rl.Allow("b")
	lastSweep := fixed

	// "a" is idle past the TTL, but the last sweep was only 11s ago
	fixed = start.Add(idleTTL + time.Second)
	rl.Allow("c")
	_, ok := rl.clients["a"]
	assert.True(t, ok)

	fixed = lastSweep.Add(sweepInterval + time.Second)
	rl.Allow("d")
	_, ok = rl.clients["a"]
	assert.False(t, ok)
	assert.Len(t, rl.clients, 3)
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimitMiddleware(1))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "Rate limit exceeded")
}
