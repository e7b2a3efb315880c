package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"recoverycoach/internal/config"
)

func newOAuthContext(t *testing.T, target string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestNewOuraOAuthConfig(t *testing.T) {
	cfg := config.Config{
		OuraClientID:     "client-id",
		OuraClientSecret: "client-secret",
		OuraRedirectURI:  "http://localhost:8080/oauth/callback",
	}

	oc := NewOuraOAuthConfig(cfg)
	require.Equal(t, "client-id", oc.ClientID)
	require.Equal(t, ouraAuthURL, oc.Endpoint.AuthURL)
	require.Equal(t, ouraTokenURL, oc.Endpoint.TokenURL)
	require.Contains(t, oc.Scopes, "sleep")
}

func TestStartHandlerRedirects(t *testing.T) {
	h := NewHandler(&oauth2.Config{
		ClientID:    "client-id",
		RedirectURL: "http://localhost:8080/oauth/callback",
		Endpoint:    oauth2.Endpoint{AuthURL: ouraAuthURL},
	})

	c, rec := newOAuthContext(t, "/oauth/start")
	require.NoError(t, h.StartHandler(c))
	require.Equal(t, http.StatusTemporaryRedirect, rec.Code)

	location := rec.Header().Get(echo.HeaderLocation)
	require.Contains(t, location, ouraAuthURL)
	require.Contains(t, location, "client_id=client-id")
}

func TestStartHandlerUnconfigured(t *testing.T) {
	h := NewHandler(&oauth2.Config{})

	c, rec := newOAuthContext(t, "/oauth/start")
	require.NoError(t, h.StartHandler(c))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCallbackHandlerMissingCode(t *testing.T) {
	h := NewHandler(&oauth2.Config{ClientID: "client-id"})

	c, rec := newOAuthContext(t, "/oauth/callback")
	require.NoError(t, h.CallbackHandler(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCallbackHandlerExchangesCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.FormValue("code") != "auth-code" {
			t.Errorf("unexpected code %q", r.FormValue("code"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"access-123","refresh_token":"refresh-456","token_type":"Bearer"}`))
	}))
	defer srv.Close()

	h := NewHandler(&oauth2.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Endpoint:     oauth2.Endpoint{TokenURL: srv.URL},
	})

	c, rec := newOAuthContext(t, "/oauth/callback?code=auth-code")
	require.NoError(t, h.CallbackHandler(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "access-123", body["access_token"])
	require.Equal(t, "refresh-456", body["refresh_token"])
}

func TestCallbackHandlerExchangeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	h := NewHandler(&oauth2.Config{
		ClientID: "client-id",
		Endpoint: oauth2.Endpoint{TokenURL: srv.URL},
	})

	c, rec := newOAuthContext(t, "/oauth/callback?code=auth-code")
	require.NoError(t, h.CallbackHandler(c))
	require.Equal(t, http.StatusBadGateway, rec.Code)
}
