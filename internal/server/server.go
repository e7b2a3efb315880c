/*
Package server implements the application's network transport layer.
It initializes the HTTP server, configures timeouts, and wires the
external service clients into the request handlers.
*/
package server

import (
	"fmt"
	"net/http"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"recoverycoach/internal/auth"
	"recoverycoach/internal/coach"
	"recoverycoach/internal/config"
	"recoverycoach/internal/oura"
)

// Server holds the configuration and the dependency-injected handlers
// for the HTTP service. The external clients behind them are constructed
// once here and shared across concurrent requests.
type Server struct {
	cfg config.Config

	oura  *oura.Handler
	coach *coach.Handler
	auth  *auth.Handler
}

// NewServer initializes a new Server instance and returns a configured
// *http.Server. It reads configuration from environment variables and
// sets production-ready network timeouts.
func NewServer() *http.Server {
	cfg := config.Load()

	ouraClient := oura.NewClient(oura.ClientOptions{
		AccessToken: cfg.OuraAccessToken,
		BaseURL:     cfg.OuraBaseURL,
		Timeout:     cfg.UpstreamTimeout,
	})
	generative := coach.NewGenerativeClient(coach.GenerativeOptions{
		APIKey:  cfg.AnthropicAPIKey,
		BaseURL: cfg.AnthropicBaseURL,
		Model:   cfg.AnthropicModel,
		Timeout: cfg.UpstreamTimeout,
	})

	newApp := &Server{
		cfg:   cfg,
		oura:  oura.NewHandler(ouraClient),
		coach: coach.NewHandler(ouraClient, coach.NewCoach(generative)),
		auth:  auth.NewHandler(auth.NewOuraOAuthConfig(cfg)),
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      newApp.RegisterRoutes(), // Injected from routes.go
		IdleTimeout:  time.Minute,             // Time to wait for the next request on keep-alive connections.
		ReadTimeout:  10 * time.Second,        // Maximum duration for reading the entire request.
		WriteTimeout: 30 * time.Second,        // Maximum duration before timing out writes of the response.
	}

	return server
}
