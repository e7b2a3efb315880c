// Package auth implements the Oura OAuth2 authorization-code flow: a
// redirect to the provider's consent page and a single code-for-token
// exchange. Tokens are returned raw to the caller; nothing is persisted.
package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"recoverycoach/internal/config"
)

const (
	ouraAuthURL  = "https://cloud.ouraring.com/oauth/authorize"
	ouraTokenURL = "https://api.ouraring.com/oauth/token"
)

// NewOuraOAuthConfig builds the oauth2.Config for the Oura cloud from the
// application configuration.
func NewOuraOAuthConfig(cfg config.Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.OuraClientID,
		ClientSecret: cfg.OuraClientSecret,
		RedirectURL:  cfg.OuraRedirectURI,
		Scopes:       []string{"daily", "personal", "heartrate", "sleep"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  ouraAuthURL,
			TokenURL: ouraTokenURL,
		},
	}
}

// Handler serves the two OAuth endpoints.
type Handler struct {
	config *oauth2.Config
}

func NewHandler(oauthConfig *oauth2.Config) *Handler {
	return &Handler{config: oauthConfig}
}

// StartHandler serves GET /oauth/start and redirects the browser to the
// provider's authorization page.
func (h *Handler) StartHandler(c echo.Context) error {
	if h.config.ClientID == "" {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "OURA_CLIENT_ID not configured. Add it to the .env file.",
		})
	}
	return c.Redirect(http.StatusTemporaryRedirect, h.config.AuthCodeURL(""))
}

// CallbackHandler serves GET /oauth/callback. It exchanges the
// authorization code for access and refresh tokens and returns them raw.
func (h *Handler) CallbackHandler(c echo.Context) error {
	code := c.QueryParam("code")
	if code == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing authorization code"})
	}

	token, err := h.config.Exchange(c.Request().Context(), code)
	if err != nil {
		log.Error().Err(err).Msg("OAuth token exchange failed")
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "Token exchange failed: " + err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message":       "Success!",
		"access_token":  token.AccessToken,
		"refresh_token": token.RefreshToken,
	})
}
