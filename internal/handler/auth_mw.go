package handler

import (
	"net/http"
	"strings"

	"github.com/PhotoSocial/feed-client/internal/dto"
	"github.com/gin-gonic/gin"
)

// authMiddleware requires a signed-in session. A bearer token, when sent, must be the session's own.
func (h *Handler) authMiddleware(c *gin.Context) {
	session, ok := h.services.Session.Current()
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.NewBasicResponse(false, errNotAuthorized.Error()))
		c.Abort()
		return
	}

	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token != session.IDToken {
			c.JSON(http.StatusUnauthorized, dto.NewBasicResponse(false, errSessionMismatch.Error()))
			c.Abort()
			return
		}
	}

	c.Set("session", *session)

	c.Next()
}
