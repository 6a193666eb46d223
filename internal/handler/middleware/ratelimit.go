package middleware

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"mechanic-booking/internal/handler/httperr"
	"mechanic-booking/internal/pkg/config"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	perMinute := cfg.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = 1
	}
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    cfg.Burst,
		now:      time.Now,
	}
}

func (r *RateLimiter) getLimiter(ip string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if now.Sub(r.lastSweep) > limiterIdleTTL {
		for key, v := range r.visitors {
			if now.Sub(v.lastSeen) > limiterIdleTTL {
				delete(r.visitors, key)
			}
		}
		r.lastSweep = now
	}

	v, exists := r.visitors[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !r.getLimiter(ip).Allow() {
			slog.Warn("rate limit exceeded", slog.String("ip", ip), slog.String("path", c.Request.URL.Path))
			httperr.AbortWithError(c, http.StatusTooManyRequests, nil, "Too many requests, try again later", nil)
			return
		}
		c.Next()
	}
}
