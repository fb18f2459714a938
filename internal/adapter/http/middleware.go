package adapthttp

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"messenger/internal/domain"

	"github.com/gin-gonic/gin"
)

const userContextKey = "user"

const remoteUserHeader = "Remote-User"

// authMiddleware resolves the session token from the sessionId cookie or a
// bearer Authorization header and stores the user in the gin context. With
// forward auth enabled the Remote-User header is checked first.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.opts.ForwardAuth {
			if remote := c.GetHeader(remoteUserHeader); remote != "" {
				if user, err := s.identity.ForwardedUser(remote); err == nil {
					c.Set(userContextKey, user)
					c.Next()
					return
				}
				s.log.Warn().Str("remote_user", remote).Msg("unknown forwarded user")
			}
		}

		token := sessionToken(c)
		user, err := s.identity.CurrentUser(token)
		if err != nil {
			if !errors.Is(err, domain.ErrNotAuthenticated) {
				s.log.Error().Stack().Err(err).Msg("resolve session")
			}
			abortWithError(c, err)
			return
		}
		c.Set(userContextKey, user)
		c.Next()
	}
}

func sessionToken(c *gin.Context) string {
	if v, err := c.Cookie(sessionCookie); err == nil && v != "" {
		return v
	}
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// currentUser returns the user stored by authMiddleware.
func currentUser(c *gin.Context) *domain.User {
	v, _ := c.Get(userContextKey)
	u, _ := v.(*domain.User)
	return u
}

// loggingMiddleware writes one line per request.
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		evt := s.log.Info()
		if status >= http.StatusInternalServerError {
			evt = s.log.Error()
		}
		evt.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}

// corsMiddleware echoes whitelisted origins with credentials allowed.
func (s *Server) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && s.allowedOrigin(origin) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func noCache() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}
