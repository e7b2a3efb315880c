package oura

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"recoverycoach/internal/models"
)

// nowFunc is swappable in tests.
var nowFunc = time.Now

// Handler exposes the Oura metric endpoints. The client is injected at
// startup so there is no hidden global state.
type Handler struct {
	client *Client
}

func NewHandler(client *Client) *Handler {
	return &Handler{client: client}
}

// Client returns the underlying provider client for composition with
// other services (the recommendation pipeline reuses it).
func (h *Handler) Client() *Client {
	return h.client
}

// writeError maps the provider error taxonomy onto HTTP statuses:
// every typed provider failure is a 503 upstream-dependency error,
// anything else is an unexpected 500.
func writeError(c echo.Context, err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"error": "Oura API error: " + apiErr.Message,
		})
	}
	log.Error().Err(err).Msg("Unexpected error in Oura handler")
	return c.JSON(http.StatusInternalServerError, map[string]string{
		"error": "Internal error: " + err.Error(),
	})
}

func parseDateParam(c echo.Context) (models.Date, bool) {
	day, err := models.ParseDate(c.Param("date"))
	if err != nil {
		return models.Date{}, false
	}
	return day, true
}

// GetSleepHandler serves GET /api/oura/sleep/:date.
func (h *Handler) GetSleepHandler(c echo.Context) error {
	day, ok := parseDateParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid date format. Use YYYY-MM-DD"})
	}

	record, err := h.client.GetSleepData(c.Request().Context(), day)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, record)
}

// GetReadinessHandler serves GET /api/oura/readiness/:date.
func (h *Handler) GetReadinessHandler(c echo.Context) error {
	day, ok := parseDateParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid date format. Use YYYY-MM-DD"})
	}

	record, err := h.client.GetReadinessData(c.Request().Context(), day)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, record)
}

// GetActivityHandler serves GET /api/oura/activity/:date.
func (h *Handler) GetActivityHandler(c echo.Context) error {
	day, ok := parseDateParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid date format. Use YYYY-MM-DD"})
	}

	record, err := h.client.GetActivityData(c.Request().Context(), day)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, record)
}

// GetPersonalInfoHandler serves GET /api/oura/personal-info.
func (h *Handler) GetPersonalInfoHandler(c echo.Context) error {
	info, err := h.client.GetPersonalInfo(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, info)
}

// ScanActivityHandler serves GET /api/oura/activity-scan. It walks the
// trailing 30-day window and reports which dates have activity records.
func (h *Handler) ScanActivityHandler(c echo.Context) error {
	today := models.Date{Time: nowFunc()}
	result, err := h.client.ScanActivityWindow(c.Request().Context(), today, 30)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}
