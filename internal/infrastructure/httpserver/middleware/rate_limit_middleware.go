package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/parkscope/analysis-api/internal/core/ports"
)

type RateLimitMiddleware struct {
	rateLimiter ports.RateLimiterService
	denied      *prometheus.CounterVec
	logger      *logrus.Logger
}

func NewRateLimitMiddleware(rateLimiter ports.RateLimiterService, denied *prometheus.CounterVec, logger *logrus.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{rateLimiter: rateLimiter, denied: denied, logger: logger}
}

// Handler admits or denies a request by client IP. Denials carry
// Retry-After alongside the quota headers; the limiter itself fails open on
// store trouble, so this middleware never rejects on infrastructure errors.
func (r *RateLimitMiddleware) Handler() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			clientID := c.RealIP()

			decision, err := r.rateLimiter.Admit(c.Request().Context(), clientID)
			if err != nil {
				// Admit absorbs store failures; anything else is unexpected.
				if r.logger != nil {
					r.logger.WithError(err).WithField("client_id", clientID).Warn("rate limiter error; allowing request")
				}
				return next(c)
			}

			c.Response().Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", decision.Remaining))
			c.Response().Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", decision.Reset.Unix()))

			if !decision.Allowed {
				retryAfter := int(time.Until(decision.Reset).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				c.Response().Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
				if r.denied != nil {
					r.denied.WithLabelValues(c.Path()).Inc()
				}
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
