package oura

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func newHandlerContext(t *testing.T, path, dateParam string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if dateParam != "" {
		c.SetParamNames("date")
		c.SetParamValues(dateParam)
	}
	return c, rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestGetSleepHandlerBadDate(t *testing.T) {
	h := NewHandler(NewClient(ClientOptions{AccessToken: "test-token"}))
	c, rec := newHandlerContext(t, "/api/oura/sleep/not-a-date", "not-a-date")

	require.NoError(t, h.GetSleepHandler(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Invalid date format. Use YYYY-MM-DD", decodeError(t, rec))
}

func TestGetReadinessHandlerProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	h := NewHandler(NewClient(ClientOptions{AccessToken: "test-token", BaseURL: srv.URL}))

	c, rec := newHandlerContext(t, "/api/oura/readiness/2024-01-15", "2024-01-15")
	require.NoError(t, h.GetReadinessHandler(c))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, decodeError(t, rec), "Oura API error: ")
}

func TestGetActivityHandlerSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(activityBody))
	}))
	defer srv.Close()
	h := NewHandler(NewClient(ClientOptions{AccessToken: "test-token", BaseURL: srv.URL}))

	c, rec := newHandlerContext(t, "/api/oura/activity/2024-01-15", "2024-01-15")
	require.NoError(t, h.GetActivityHandler(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, float64(9200), body["steps"])
	require.Equal(t, "2024-01-15", body["date"])
}

func TestGetSleepHandlerNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(emptyBody))
	}))
	defer srv.Close()
	h := NewHandler(NewClient(ClientOptions{AccessToken: "test-token", BaseURL: srv.URL}))

	c, rec := newHandlerContext(t, "/api/oura/sleep/2024-01-15", "2024-01-15")
	require.NoError(t, h.GetSleepHandler(c))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, decodeError(t, rec), "2024-01-15")
}

func TestScanActivityHandlerWindow(t *testing.T) {
	restore := nowFunc
	nowFunc = func() time.Time { return time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC) }
	defer func() { nowFunc = restore }()

	var gotStart string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotStart = r.URL.Query().Get("start_date")
		w.Write([]byte(activityBody))
	}))
	defer srv.Close()
	h := NewHandler(NewClient(ClientOptions{AccessToken: "test-token", BaseURL: srv.URL}))

	c, rec := newHandlerContext(t, "/api/oura/activity-scan", "")
	require.NoError(t, h.ScanActivityHandler(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "2023-12-16", gotStart)

	var result ActivityScanResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Equal(t, 1, result.TotalRecords)
}
