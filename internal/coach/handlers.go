package coach

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"recoverycoach/internal/models"
	"recoverycoach/internal/oura"
)

// Handler serves the recommendation endpoint. Both collaborators are
// injected at startup and shared across requests.
type Handler struct {
	oura  *oura.Client
	coach *Coach
}

func NewHandler(ouraClient *oura.Client, coach *Coach) *Handler {
	return &Handler{oura: ouraClient, coach: coach}
}

// GenerateRecommendationHandler serves POST /api/recommendations/:date.
// It fetches the three metric records concurrently, then runs the
// synthesis pipeline.
func (h *Handler) GenerateRecommendationHandler(c echo.Context) error {
	day, err := models.ParseDate(c.Param("date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid date format. Use YYYY-MM-DD"})
	}

	ctx := c.Request().Context()
	log.Info().Str("date", day.String()).Msg("Processing recommendation request")

	sleep, readiness, activity, err := h.oura.FetchAll(ctx, day)
	if err != nil {
		var apiErr *oura.APIError
		if errors.As(err, &apiErr) {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"error": "Oura API error: " + apiErr.Message,
			})
		}
		log.Error().Err(err).Msg("Unexpected error fetching Oura data")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal error: " + err.Error()})
	}

	log.Info().
		Int("sleep_score", sleep.SleepScore).
		Int("readiness_score", readiness.ReadinessScore).
		Int("activity_score", activity.ActivityScore).
		Msg("Fetched all Oura records, running analysis")

	recommendation, err := h.coach.AnalyzeRecovery(ctx, sleep, readiness, activity)
	if err != nil {
		var coachErr *CoachError
		if errors.As(err, &coachErr) {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"error": "AI Coach error: " + coachErr.Message,
			})
		}
		log.Error().Err(err).Msg("Unexpected error generating recommendation")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal error: " + err.Error()})
	}

	log.Info().
		Str("type", string(recommendation.RecommendationType)).
		Float64("confidence", recommendation.Confidence).
		Msg("Generated recommendation")

	return c.JSON(http.StatusOK, recommendation)
}
