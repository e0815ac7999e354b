package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/ledger/internal/core/domain/auth"
	"github.com/avatarctic/ledger/internal/core/ports"
	"github.com/avatarctic/ledger/internal/infrastructure/httpserver/helpers"
)

type JWTMiddleware struct {
	authService ports.AuthService
	logger      *logrus.Logger
}

func NewJWTMiddleware(authService ports.AuthService, logger *logrus.Logger) *JWTMiddleware {
	return &JWTMiddleware{authService: authService, logger: logger}
}

// RequireJWT validates the bearer token and stores its subject on the
// context. It is a no-op when authentication is disabled.
func (m *JWTMiddleware) RequireJWT() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m.authService == nil || !m.authService.Enabled() {
				return next(c)
			}
			tokenString, err := helpers.GetJWTTokenFromContext(c)
			if err != nil {
				return err
			}

			claims, err := m.authService.ValidateToken(c.Request().Context(), tokenString)
			if err != nil {
				if m.logger != nil {
					m.logger.WithFields(logrus.Fields{"ip": c.RealIP(), "path": c.Request().URL.Path, "error": err.Error()}).Warn("JWT validation failed")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}
			if claims.Scope != auth.ScopeLedger {
				if m.logger != nil {
					m.logger.WithFields(logrus.Fields{"subject": claims.Subject, "scope": claims.Scope}).Warn("token scope rejected")
				}
				return echo.NewHTTPError(http.StatusForbidden, "token scope does not grant ledger access")
			}

			helpers.SetSubject(c, claims.Subject)
			if m.logger != nil {
				m.logger.WithFields(logrus.Fields{"subject": claims.Subject}).Debug("jwt validated")
			}
			return next(c)
		}
	}
}
