package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func allowed(rl *RateLimiter, key string) bool {
	ok, _ := rl.Allow(key)
	return ok
}

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		assert.True(t, allowed(rl, "10.0.0.1"), "request %d should be allowed", i)
	}
	assert.False(t, allowed(rl, "10.0.0.1"))

	// Other clients have their own budget
	assert.True(t, allowed(rl, "10.0.0.2"))

	// One request refills every window/limit
	now = now.Add(20 * time.Second)
	assert.True(t, allowed(rl, "10.0.0.1"))
	assert.False(t, allowed(rl, "10.0.0.1"))
}

func TestRateLimiterReportsWait(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		ok, wait := rl.Allow("10.0.0.1")
		assert.True(t, ok)
		assert.Zero(t, wait)
	}

	ok, wait := rl.Allow("10.0.0.1")
	assert.False(t, ok)
	assert.InDelta(t, 20, wait.Seconds(), 0.001)

	// Rejected requests do not push the next token further out
	now = now.Add(5 * time.Second)
	ok, wait = rl.Allow("10.0.0.1")
	assert.False(t, ok)
	assert.InDelta(t, 15, wait.Seconds(), 0.001)

	now = now.Add(16 * time.Second)
	ok, _ = rl.Allow("10.0.0.1")
	assert.True(t, ok)
}

func TestRateLimiterForgetsIdleVisitors(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow("10.0.0.1")
	now = now.Add(2 * idleTTL)
	rl.Allow("10.0.0.2")

	assert.Len(t, rl.visitors, 1)
	assert.Contains(t, rl.visitors, "10.0.0.2")
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimitMiddleware(2, 15*time.Minute))
	router.GET("/graph", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/graph", nil)
		req.RemoteAddr = "192.0.2.10:1234"
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimitMiddlewareRetryAfter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimitMiddleware(2, 15*time.Minute))
	router.POST("/report", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	var w *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		w = httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/report", nil)
		req.RemoteAddr = "192.0.2.20:1234"
		router.ServeHTTP(w, req)
	}

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	var resp struct {
		Error      string `json:"error"`
		RetryAfter int    `json:"retry_after"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Rate limit exceeded", resp.Error)

	// One token refills every 450s; a little of that has already passed
	assert.Greater(t, resp.RetryAfter, 0)
	assert.LessOrEqual(t, resp.RetryAfter, 450)
	assert.Equal(t, strconv.Itoa(resp.RetryAfter), w.Header().Get("Retry-After"))
}
