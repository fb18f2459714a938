package adapthttp

import (
	"net/http"

	"messenger/internal/domain"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleListContacts(c *gin.Context) {
	contacts, err := s.contacts.ListContacts(currentUser(c), c.Query("name"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, contacts)
}

func (s *Server) handleGetContact(c *gin.Context) {
	contact, err := s.contacts.GetContact(currentUser(c), c.Param("contactId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, contact)
}

func (s *Server) handleHistory(c *gin.Context) {
	view, err := s.contacts.GetHistory(c.Request.Context(), currentUser(c), c.Param("contactId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) handleSend(c *gin.Context) {
	data, err := c.GetRawData()
	if err != nil {
		badRequest(c, "unreadable body")
		return
	}
	in, err := domain.ParseOutgoingMessage(data)
	if err != nil {
		writeError(c, err)
		return
	}

	msg, err := s.messaging.Send(c.Request.Context(), currentUser(c), c.Param("contactId"), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

// handleEvents upgrades to a websocket that receives message events for the
// authenticated user.
func (s *Server) handleEvents(c *gin.Context) {
	user := currentUser(c)
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("websocket upgrade")
		return
	}
	s.push.Serve(conn, user.ID)
}
