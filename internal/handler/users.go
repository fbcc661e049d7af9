package handler

import (
	"net/http"
	"strings"

	"github.com/PhotoSocial/feed-client/internal/dto"
	"github.com/gin-gonic/gin"
)

func (h *Handler) usersGet(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	profile, err := h.services.Profile.FindByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (h *Handler) usersPosts(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	posts, err := h.services.Feed.FindAuthorPosts(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, posts)
}

func (h *Handler) usersUpdateMe(c *gin.Context) {
	session := h.getSessionFromRequest(c)

	var input dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, err.Error()))
		return
	}

	if err := h.services.Profile.Update(c.Request.Context(), session.UserID, input.Updates()); err != nil {
		respondError(c, err)
		return
	}

	refreshed, err := h.services.Session.RefreshProfile(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, refreshed)
}

func (h *Handler) usersFollow(c *gin.Context) {
	session := h.getSessionFromRequest(c)

	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	if err := h.services.Follow.Follow(c.Request.Context(), session.UserID, userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewBasicResponse(true, ""))
}

func (h *Handler) usersUnfollow(c *gin.Context) {
	session := h.getSessionFromRequest(c)

	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	if err := h.services.Follow.Unfollow(c.Request.Context(), session.UserID, userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewBasicResponse(true, ""))
}

func (h *Handler) usersIsFollowing(c *gin.Context) {
	session := h.getSessionFromRequest(c)

	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	isFollowing, err := h.services.Follow.IsFollowing(c.Request.Context(), session.UserID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"isFollowing": isFollowing})
}

func userIDParam(c *gin.Context) (string, bool) {
	userID := strings.TrimSpace(c.Param("userID"))
	if userID == "" {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidUserID.Error()))
		return "", false
	}
	return userID, true
}
