// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"messenger/internal/domain"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
)

const stateCookie = "oauth_state"

// OIDCConfig enables login through an OpenID Connect provider.
type OIDCConfig struct {
	Provider     *oidc.Provider
	OAuth2Config oauth2.Config
}

// NewOIDCConfig discovers issuer and prepares the authorization code flow.
func NewOIDCConfig(ctx context.Context, issuer, clientID, clientSecret, redirectURL string) (*OIDCConfig, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}
	return &OIDCConfig{
		Provider: provider,
		OAuth2Config: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
	}, nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}

	token, user, err := s.identity.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	s.setSessionCookie(c, token)
	c.JSON(http.StatusOK, user)
}

func (s *Server) handleLogout(c *gin.Context) {
	if err := s.identity.Revoke(c.Request.Context(), sessionToken(c)); err != nil {
		writeError(c, err)
		return
	}
	s.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (s *Server) handleProfile(c *gin.Context) {
	c.JSON(http.StatusOK, s.identity.Sanitize(currentUser(c)))
}

func (s *Server) handleSSOLogin(c *gin.Context) {
	if s.opts.SSO == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "sso disabled"})
		return
	}
	state := generateState()
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Request.TLS != nil,
		SameSite: http.SameSiteLaxMode, // Lax required for cross-site redirect returns
		MaxAge:   300,
	})
	c.Redirect(http.StatusFound, s.opts.SSO.OAuth2Config.AuthCodeURL(state))
}

func (s *Server) handleSSOCallback(c *gin.Context) {
	sso := s.opts.SSO
	if sso == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "sso disabled"})
		return
	}

	state, err := c.Cookie(stateCookie)
	if err != nil || state == "" || c.Query("state") != state {
		badRequest(c, "invalid state")
		return
	}
	http.SetCookie(c.Writer, &http.Cookie{Name: stateCookie, MaxAge: -1, Path: "/"})

	ctx := c.Request.Context()
	token, err := sso.OAuth2Config.Exchange(ctx, c.Query("code"))
	if err != nil {
		s.log.Warn().Err(err).Msg("sso token exchange")
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to exchange token"})
		return
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		c.JSON(http.StatusBadGateway, gin.H{"error": "no id_token"})
		return
	}

	idToken, err := sso.Provider.Verifier(&oidc.Config{ClientID: sso.OAuth2Config.ClientID}).Verify(ctx, rawIDToken)
	if err != nil {
		s.log.Warn().Err(err).Msg("sso token verification")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "failed to verify token"})
		return
	}

	var claims struct {
		PreferredUsername string `json:"preferred_username"`
		Sub               string `json:"sub"`
	}
	if err := idToken.Claims(&claims); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to parse claims"})
		return
	}

	username := claims.PreferredUsername
	if username == "" {
		username = claims.Sub
	}

	// Only users that already exist may sign in this way.
	sessionToken, _, err := s.identity.AuthenticateExternal(ctx, username)
	if errors.Is(err, domain.ErrInvalidCredentials) {
		c.JSON(http.StatusForbidden, gin.H{"error": "unknown user"})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}

	s.setSessionCookie(c, sessionToken)
	c.Redirect(http.StatusFound, "/")
}

func (s *Server) setSessionCookie(c *gin.Context, token string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func generateState() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
