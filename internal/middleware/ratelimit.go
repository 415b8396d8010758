package middleware

import (
	"net/http"
	"sync"

	"github.com/alizeeshan1234/beethoven-trade/internal/model"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// LimiterPool hands out one token bucket per caller address.
type LimiterPool struct {
	mu       sync.Mutex
	limiters map[model.Address]*rate.Limiter
	rate     rate.Limit
	burst    int
}

func NewLimiterPool(perSecond float64, burst int) *LimiterPool {
	if perSecond <= 0 {
		perSecond = 10
	}
	if burst <= 0 {
		burst = 20
	}
	return &LimiterPool{
		limiters: make(map[model.Address]*rate.Limiter),
		rate:     rate.Limit(perSecond),
		burst:    burst,
	}
}

func (p *LimiterPool) limiterFor(caller model.Address) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.limiters[caller]
	if !ok {
		l = rate.NewLimiter(p.rate, p.burst)
		p.limiters[caller] = l
	}
	return l
}

// RateLimitMiddleware throttles per caller. Must run after AuthMiddleware.
func RateLimitMiddleware(pool *LimiterPool) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := Caller(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		if !pool.limiterFor(caller).Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": "1s",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
