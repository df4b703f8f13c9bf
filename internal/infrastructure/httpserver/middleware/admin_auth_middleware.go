package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// AdminAuthMiddleware guards the administrative surface. Two credential
// modes are accepted, matching how operators deploy the service:
//
//   - X-Admin-Key: a static key compared against a bcrypt hash from config.
//   - Authorization: Bearer <jwt>: an HS256 token validated against the
//     configured secret.
//
// Either mode alone is sufficient; unconfigured modes are rejected.
type AdminAuthMiddleware struct {
	apiKeyHash []byte
	jwtSecret  []byte
	logger     *logrus.Logger
}

func NewAdminAuthMiddleware(apiKeyHash, jwtSecret string, logger *logrus.Logger) *AdminAuthMiddleware {
	return &AdminAuthMiddleware{
		apiKeyHash: []byte(apiKeyHash),
		jwtSecret:  []byte(jwtSecret),
		logger:     logger,
	}
}

func (m *AdminAuthMiddleware) RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if key := c.Request().Header.Get("X-Admin-Key"); key != "" && len(m.apiKeyHash) > 0 {
				if err := bcrypt.CompareHashAndPassword(m.apiKeyHash, []byte(key)); err == nil {
					return next(c)
				}
				m.logDenied(c, "bad admin key")
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid admin credentials")
			}

			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if strings.HasPrefix(auth, "Bearer ") && len(m.jwtSecret) > 0 {
				token := strings.TrimPrefix(auth, "Bearer ")
				if err := m.validateJWT(token); err == nil {
					return next(c)
				}
				m.logDenied(c, "bad admin token")
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid admin credentials")
			}

			m.logDenied(c, "missing credentials")
			return echo.NewHTTPError(http.StatusUnauthorized, "admin credentials required")
		}
	}
}

func (m *AdminAuthMiddleware) validateJWT(token string) error {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.jwtSecret, nil
	})
	if err != nil {
		return err
	}
	if !parsed.Valid {
		return fmt.Errorf("invalid token")
	}
	return nil
}

func (m *AdminAuthMiddleware) logDenied(c echo.Context, reason string) {
	if m.logger != nil {
		m.logger.WithFields(logrus.Fields{
			"remote": c.RealIP(),
			"path":   c.Path(),
			"reason": reason,
		}).Warn("admin request denied")
	}
}
