package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"recoverycoach/internal/utility"
)

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"https://*", "http://*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	e.Use(LoggerMiddleware)

	// Liveness and health
	e.GET("/", s.rootHandler)
	e.GET("/api/health", s.healthHandler)

	// OAuth flow with the wearable provider
	e.GET("/oauth/start", s.auth.StartHandler)
	e.GET("/oauth/callback", s.auth.CallbackHandler)

	// Oura metric passthrough
	e.GET("/api/oura/sleep/:date", s.oura.GetSleepHandler)
	e.GET("/api/oura/readiness/:date", s.oura.GetReadinessHandler)
	e.GET("/api/oura/activity/:date", s.oura.GetActivityHandler)
	e.GET("/api/oura/activity-scan", s.oura.ScanActivityHandler)
	e.GET("/api/oura/personal-info", s.oura.GetPersonalInfoHandler)

	// Recommendation pipeline
	e.POST("/api/recommendations/:date", s.coach.GenerateRecommendationHandler)

	return e
}

// LoggerMiddleware attaches a request-scoped child logger keyed by a
// request id, generating one when the caller did not supply it.
func LoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Request().Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Response().Header().Set("X-Request-ID", requestID)

		logger := log.With().
			Str("request_id", requestID).
			Str("ip", utility.GetRealIP(c)).
			Logger()

		c.Set("logger", &logger)

		return next(c)
	}
}
