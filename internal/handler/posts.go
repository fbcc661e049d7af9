package handler

import (
	"net/http"
	"strings"

	"github.com/PhotoSocial/feed-client/internal/dto"
	"github.com/PhotoSocial/feed-client/internal/model"
	"github.com/gin-gonic/gin"
)

func (h *Handler) postsCreate(c *gin.Context) {
	session := h.getSessionFromRequest(c)

	var input dto.CreatePostRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, err.Error()))
		return
	}

	createdPost, err := h.services.Feed.CreatePost(c.Request.Context(), input.Caption, input.ImageURL, session.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, *createdPost)
}

func (h *Handler) postsDelete(c *gin.Context) {
	session := h.getSessionFromRequest(c)

	postID, ok := postIDParam(c)
	if !ok {
		return
	}

	if err := h.services.Feed.RemovePost(c.Request.Context(), postID, session.UserID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewBasicResponse(true, ""))
}

func (h *Handler) postsState(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, dto.InteractionResponse{PostID: postID, State: h.services.Post.State(postID)})
}

func (h *Handler) postsHover(c *gin.Context) {
	h.postsTransition(c, h.services.Post.Hover)
}

func (h *Handler) postsLeave(c *gin.Context) {
	h.postsTransition(c, h.services.Post.Leave)
}

func (h *Handler) postsCancelDelete(c *gin.Context) {
	h.postsTransition(c, h.services.Post.CancelDelete)
}

func (h *Handler) postsRequestDelete(c *gin.Context) {
	session := h.getSessionFromRequest(c)

	h.postsTransition(c, func(postID string) (model.InteractionState, error) {
		return h.services.Post.RequestDelete(c.Request.Context(), postID, session.UserID)
	})
}

func (h *Handler) postsTransition(c *gin.Context, transition func(postID string) (model.InteractionState, error)) {
	postID, ok := postIDParam(c)
	if !ok {
		return
	}

	state, err := transition(postID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.InteractionResponse{PostID: postID, State: state})
}

func (h *Handler) postsConfirmDelete(c *gin.Context) {
	session := h.getSessionFromRequest(c)

	postID, ok := postIDParam(c)
	if !ok {
		return
	}

	if err := h.services.Post.ConfirmDelete(c.Request.Context(), postID, session.UserID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.InteractionResponse{PostID: postID, State: model.Idle})
}

func (h *Handler) postsRelease(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		return
	}

	h.services.Post.Release(postID)

	c.JSON(http.StatusOK, dto.InteractionResponse{PostID: postID, State: model.Idle})
}

func (h *Handler) postsLike(c *gin.Context) {
	session := h.getSessionFromRequest(c)

	postID, ok := postIDParam(c)
	if !ok {
		return
	}

	likeCount, err := h.services.Post.Like(c.Request.Context(), postID, session.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.LikeResponse{PostID: postID, LikeCount: likeCount})
}

func (h *Handler) postsUnlike(c *gin.Context) {
	session := h.getSessionFromRequest(c)

	postID, ok := postIDParam(c)
	if !ok {
		return
	}

	likeCount, err := h.services.Post.Unlike(c.Request.Context(), postID, session.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.LikeResponse{PostID: postID, LikeCount: likeCount})
}

func (h *Handler) commentsCreate(c *gin.Context) {
	session := h.getSessionFromRequest(c)

	postID, ok := postIDParam(c)
	if !ok {
		return
	}

	var input dto.CreateCommentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, err.Error()))
		return
	}

	createdComment, err := h.services.Post.Comment(c.Request.Context(), postID, session.UserID, input.Text)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, createdComment)
}

func postIDParam(c *gin.Context) (string, bool) {
	postID := strings.TrimSpace(c.Param("postID"))
	if postID == "" {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidPostID.Error()))
		return "", false
	}
	return postID, true
}
