package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

func (s *Server) healthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	deps := make(map[string]string)
	overall := "healthy"
	for _, hc := range s.healthCheckers {
		if hc == nil {
			continue
		}
		if err := hc.Check(ctx); err != nil {
			deps[hc.Name()] = "unhealthy"
			overall = "degraded"
			if s.logger != nil {
				s.logger.WithError(err).WithField("dependency", hc.Name()).Warn("health check failed")
			}
		} else {
			deps[hc.Name()] = "healthy"
		}
	}
	health := map[string]interface{}{
		"status":       overall,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"service":      "ledger",
		"dependencies": deps,
	}
	code := http.StatusOK
	if overall != "healthy" {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, health)
}

// configCheck reports which optional integrations are usable without exposing secrets.
func (s *Server) configCheck(c echo.Context) error {
	aiConfigured := s.speechSvc != nil && s.speechSvc.Configured()
	msg := "AI_API_KEY is configured; speech and image recognition are available"
	if !aiConfigured {
		msg = "AI_API_KEY is not configured; speech and image recognition are unavailable"
	}
	return success(c, map[string]interface{}{
		"aiApiKeyConfigured":    aiConfigured,
		"objectStorageEnabled":  s.uploadSvc != nil && s.uploadSvc.HasObjectStorage(),
		"authenticationEnabled": s.authSvc != nil && s.authSvc.Enabled(),
		"message":               msg,
	})
}
