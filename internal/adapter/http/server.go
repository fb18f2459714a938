package adapthttp

import (
	"net/http"
	"slices"

	"messenger/internal/app"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// sessionCookie carries the session token for browser clients.
const sessionCookie = "sessionId"

// Options tunes the transport. Zero values are usable.
type Options struct {
	CookieSecure bool
	CORSOrigins  []string
	SSO          *OIDCConfig

	// ForwardAuth trusts the Remote-User header set by an authenticating
	// reverse proxy. Enable only behind such a proxy.
	ForwardAuth bool
}

// PushServer attaches an authenticated websocket to the push hub.
type PushServer interface {
	Serve(conn *websocket.Conn, userID string)
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	identity  *app.IdentityService
	contacts  *app.ContactService
	messaging *app.MessagingService
	push      PushServer
	opts      Options
	log       zerolog.Logger
	upgrader  websocket.Upgrader
}

// New creates a Server wired to the given application services. push may be
// nil, in which case /api/events is not served.
func New(identity *app.IdentityService, contacts *app.ContactService, messaging *app.MessagingService, push PushServer, opts Options, log zerolog.Logger) *Server {
	s := &Server{
		identity:  identity,
		contacts:  contacts,
		messaging: messaging,
		push:      push,
		opts:      opts,
		log:       log,
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || s.allowedOrigin(origin)
		},
	}
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	engine := gin.New()
	engine.Use(gin.Recovery(), s.loggingMiddleware(), s.corsMiddleware(), noCache())

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	api := engine.Group("/api")
	api.POST("/login", s.handleLogin)
	api.GET("/sso/login", s.handleSSOLogin)
	api.GET("/sso/callback", s.handleSSOCallback)

	authed := api.Group("", s.authMiddleware())
	authed.POST("/logout", s.handleLogout)
	authed.GET("/profile", s.handleProfile)
	authed.GET("/contacts", s.handleListContacts)
	authed.GET("/contacts/:contactId", s.handleGetContact)
	authed.GET("/contacts/:contactId/history", s.handleHistory)
	authed.POST("/contacts/:contactId/send", s.handleSend)
	if s.push != nil {
		authed.GET("/events", s.handleEvents)
	}

	return engine
}

func (s *Server) allowedOrigin(origin string) bool {
	return slices.Contains(s.opts.CORSOrigins, origin)
}
