package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/lyzr/vidgrab/common/ratelimit"
)

// Limiter is the subset of ratelimit.RateLimiter the middleware needs
type Limiter interface {
	Limits() ratelimit.Limits
	CheckGlobalLimit(ctx context.Context) (*ratelimit.RateLimitResult, error)
	CheckClientLimit(ctx context.Context, clientID string) (*ratelimit.RateLimitResult, error)
}

// GlobalRateLimitMiddleware checks the service-wide limit.
// Redis errors let the request through (fail open).
func GlobalRateLimitMiddleware(limiter Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			result, err := limiter.CheckGlobalLimit(c.Request().Context())
			if err != nil {
				return next(c)
			}

			if !result.Allowed {
				return tooManyRequests(c, limiter, result,
					"global_rate_limit_exceeded",
					"Service is experiencing high load. Please try again later.")
			}

			return next(c)
		}
	}
}

// ClientRateLimitMiddleware checks the per-client limit, keyed by remote IP
func ClientRateLimitMiddleware(limiter Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			clientID := c.RealIP()
			if clientID == "" {
				return next(c)
			}

			result, err := limiter.CheckClientLimit(c.Request().Context(), clientID)
			if err != nil {
				return next(c)
			}

			if !result.Allowed {
				return tooManyRequests(c, limiter, result,
					"client_rate_limit_exceeded",
					"You have exceeded your download quota. Please wait before trying again.")
			}

			return next(c)
		}
	}
}

func tooManyRequests(c echo.Context, limiter Limiter, result *ratelimit.RateLimitResult, code, message string) error {
	c.Response().Header().Set("Retry-After", strconv.FormatInt(result.RetryAfterSeconds, 10))
	return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
		"error":   code,
		"message": message,
		"details": map[string]interface{}{
			"limit":               result.Limit,
			"window":              fmt.Sprintf("%d seconds", limiter.Limits().WindowSeconds),
			"current_count":       result.CurrentCount,
			"retry_after_seconds": result.RetryAfterSeconds,
		},
	})
}
