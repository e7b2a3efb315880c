package coach

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"recoverycoach/internal/models"
)

func newTestGenerative(t *testing.T, handler http.HandlerFunc) *GenerativeClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewGenerativeClient(GenerativeOptions{
		APIKey:  "test-key",
		BaseURL: srv.URL,
	})
}

func completionHandler(t *testing.T, text string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, messagesPath, r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("x-api-key"))
		require.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var req anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotEmpty(t, req.Messages)
		require.Equal(t, "user", req.Messages[0].Role)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"content": []map[string]string{{"type": "text", "text": text}},
		})
	}
}

func TestCompleteSuccess(t *testing.T) {
	client := newTestGenerative(t, completionHandler(t, "hello"))

	text, err := client.Complete(context.Background(), "prompt", 64)
	require.NoError(t, err)
	require.Equal(t, "hello", text)
}

func TestCompleteMissingKey(t *testing.T) {
	client := NewGenerativeClient(GenerativeOptions{})

	_, err := client.Complete(context.Background(), "prompt", 64)
	var coachErr *CoachError
	require.ErrorAs(t, err, &coachErr)
}

func TestCompleteRejectedKey(t *testing.T) {
	client := newTestGenerative(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.Complete(context.Background(), "prompt", 64)
	var coachErr *CoachError
	require.ErrorAs(t, err, &coachErr)
}

func TestAnalyzeRecoveryParsesReply(t *testing.T) {
	sleep, readiness, activity := testRecords(t)
	client := newTestGenerative(t, completionHandler(t, wellFormedReply))
	co := NewCoach(client)

	rec, err := co.AnalyzeRecovery(context.Background(), sleep, readiness, activity)
	require.NoError(t, err)
	require.Equal(t, models.TypeTrainingReady, rec.RecommendationType)
	require.InDelta(t, 0.92, rec.Confidence, 1e-9)
}

func TestAnalyzeRecoveryRecoverableFailureFallsBack(t *testing.T) {
	sleep, readiness, activity := testRecords(t)
	readiness.ReadinessScore = 90

	// A non-retryable 4xx surfaces as a plain error the coach absorbs.
	client := newTestGenerative(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	co := NewCoach(client)

	rec, err := co.AnalyzeRecovery(context.Background(), sleep, readiness, activity)
	require.NoError(t, err)
	require.Equal(t, models.TypePeakPerformance, rec.RecommendationType)
	require.InDelta(t, 0.7, rec.Confidence, 1e-9)
	require.Equal(t, apologyMessage, rec.Message)
}

func TestAnalyzeRecoveryNonRecoverablePropagates(t *testing.T) {
	sleep, readiness, activity := testRecords(t)
	co := NewCoach(NewGenerativeClient(GenerativeOptions{})) // no API key

	_, err := co.AnalyzeRecovery(context.Background(), sleep, readiness, activity)
	var coachErr *CoachError
	require.ErrorAs(t, err, &coachErr)
}
