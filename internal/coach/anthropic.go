package coach

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

// --- Anthropic API configuration ---
const (
	defaultAnthropicBaseURL = "https://api.anthropic.com"
	messagesPath            = "/v1/messages"
	anthropicVersion        = "2023-06-01"
	defaultModel            = "claude-3-haiku-20240307"

	maxRetries     = 3
	initialBackoff = 1 * time.Second
	requestTimeout = 30 * time.Second

	// Upper bound on concurrent in-flight completions.
	maxConcurrentCalls = 10
)

// CoachError marks a non-recoverable generative-service failure (missing
// or rejected credential). Unlike transient transport errors it is never
// absorbed into a fallback recommendation.
type CoachError struct {
	Message string
}

func (e *CoachError) Error() string {
	return "ai coach: " + e.Message
}

// --- Structs for the messages API request/response ---

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// GenerativeClient is a small REST client for the Anthropic messages API.
// One instance is shared across requests; a weighted semaphore bounds the
// number of concurrent upstream calls.
type GenerativeClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	sem        *semaphore.Weighted
}

// GenerativeOptions configures a GenerativeClient. Zero values fall back
// to the production endpoint, the default model and a 30 second timeout.
type GenerativeOptions struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// NewGenerativeClient builds the generative-service client.
func NewGenerativeClient(opts GenerativeOptions) *GenerativeClient {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultAnthropicBaseURL
	}
	model := opts.Model
	if model == "" {
		model = defaultModel
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = requestTimeout
	}
	return &GenerativeClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     opts.APIKey,
		model:      model,
		sem:        semaphore.NewWeighted(maxConcurrentCalls),
	}
}

// Complete sends one prompt and returns the raw text completion.
// Transient failures (network errors, 5xx, 429) are retried with
// exponential backoff and surface as plain errors the caller may absorb;
// credential failures surface as *CoachError and must propagate.
func (g *GenerativeClient) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if g.apiKey == "" {
		return "", &CoachError{Message: "ANTHROPIC_API_KEY is not configured"}
	}

	payload := anthropicRequest{
		Model:     g.model,
		MaxTokens: maxTokens,
		Messages:  []anthropicMessage{{Role: "user", Content: prompt}},
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	if err := g.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("failed to acquire completion slot: %w", err)
	}
	defer g.sem.Release(1)

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+messagesPath, bytes.NewBuffer(payloadBytes))
		if err != nil {
			return "", fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", g.apiKey)
		req.Header.Set("anthropic-version", anthropicVersion)

		resp, err := g.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			log.Warn().Err(lastErr).Msgf("Attempt %d calling generative service failed", i+1)
			sleepBackoff(i)
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("failed to read response: %w", readErr)
			sleepBackoff(i)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return "", &CoachError{Message: fmt.Sprintf("API key rejected (status %d)", resp.StatusCode)}
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			lastErr = fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
			log.Warn().Err(lastErr).Msgf("Attempt %d calling generative service failed", i+1)
			sleepBackoff(i)
			continue
		case resp.StatusCode != http.StatusOK:
			return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}

		var parsed anthropicResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return "", fmt.Errorf("failed to decode response: %w", err)
		}
		if len(parsed.Content) == 0 {
			return "", fmt.Errorf("no content found in response")
		}
		return parsed.Content[0].Text, nil
	}

	return "", fmt.Errorf("generative service call failed after %d attempts: %w", maxRetries, lastErr)
}

func sleepBackoff(attempt int) {
	time.Sleep(initialBackoff * time.Duration(math.Pow(2, float64(attempt))))
}
