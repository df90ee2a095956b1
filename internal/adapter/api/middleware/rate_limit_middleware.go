package middleware

import (
	"fmt"
	"math"
	"strconv"

	"github.com/labstack/echo/v4"

	"campusmart/internal/infrastructure/ratelimit"
	"campusmart/pkg/errors"
	"campusmart/pkg/logger"
	"campusmart/pkg/response"
)

// ActionHTTPRequest is the rate limiter action charged per API request.
const ActionHTTPRequest = "http_request"

type RateLimitMiddleware struct {
	limiter *ratelimit.RateLimiter
	action  string
}

// NewRateLimitMiddleware throttles requests per client IP under action.
func NewRateLimitMiddleware(limiter *ratelimit.RateLimiter, action string) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
		action:  action,
	}
}

func (m *RateLimitMiddleware) Limit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ip := c.RealIP()

		if allowed, wait := m.limiter.Allow(ip, m.action); !allowed {
			retryAfter := int(math.Ceil(wait.Seconds()))
			logger.Warn("RATE LIMIT: Blocked request from IP %s (retry in %ds)", ip, retryAfter)

			c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
			return response.Error(c, errors.TooManyRequests(fmt.Sprintf("Rate limit exceeded, retry in %ds", retryAfter)))
		}

		return next(c)
	}
}
