package handler

import (
	"net/http"

	"github.com/PhotoSocial/feed-client/internal/dto"
	"github.com/gin-gonic/gin"
)

func (h *Handler) authSignIn(c *gin.Context) {
	var input dto.SignInRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, err.Error()))
		return
	}

	session, err := h.services.Session.SignIn(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (h *Handler) authSignUp(c *gin.Context) {
	var input dto.SignUpRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, err.Error()))
		return
	}

	session, err := h.services.Session.SignUp(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

func (h *Handler) authFederated(c *gin.Context) {
	var input dto.FederatedSignInRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, err.Error()))
		return
	}

	session, err := h.services.Session.SignInWithFederatedProvider(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (h *Handler) authSignOut(c *gin.Context) {
	if err := h.services.Session.SignOut(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewBasicResponse(true, ""))
}

func (h *Handler) authSession(c *gin.Context) {
	c.JSON(http.StatusOK, h.getSessionFromRequest(c))
}

func (h *Handler) authRefreshProfile(c *gin.Context) {
	session, err := h.services.Session.RefreshProfile(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}
