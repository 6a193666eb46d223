//go:build unit

package middleware_test

import (
	"net/http"
	nethttptest "net/http/httptest"
	"testing"

	"mechanic-booking/internal/handler/middleware"
	"mechanic-booking/internal/pkg/config"
	"mechanic-booking/tests/common/httptest"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newLimitedRouter(burst int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	limiter := middleware.NewRateLimiter(config.RateLimitConfig{RequestsPerMinute: 1, Burst: burst})
	router.GET("/limited", limiter.Middleware(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router
}

func hit(router *gin.Engine, remoteAddr string) *nethttptest.ResponseRecorder {
	req := nethttptest.NewRequest(http.MethodGet, "/limited", nil)
	req.RemoteAddr = remoteAddr
	rec := nethttptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter(t *testing.T) {
	t.Run("error: burst exhausted", func(t *testing.T) {
		router := newLimitedRouter(3)

		for i := 0; i < 3; i++ {
			assert.Equal(t, http.StatusNoContent, hit(router, "203.0.113.7:5000").Code, "request %d", i)
		}
		rec := hit(router, "203.0.113.7:5001")

		httptest.AssertErrorResponse(t, rec, http.StatusTooManyRequests, "Too many requests")
	})

	t.Run("success: buckets are per client", func(t *testing.T) {
		router := newLimitedRouter(1)

		assert.Equal(t, http.StatusNoContent, hit(router, "203.0.113.7:5000").Code)
		assert.Equal(t, http.StatusTooManyRequests, hit(router, "203.0.113.7:5000").Code)
		assert.Equal(t, http.StatusNoContent, hit(router, "198.51.100.2:5000").Code)
	})
}
