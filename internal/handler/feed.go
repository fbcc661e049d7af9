package handler

import (
	"io"
	"net/http"

	"github.com/PhotoSocial/feed-client/internal/model"
	"github.com/gin-gonic/gin"
)

func (h *Handler) feedLoad(c *gin.Context) {
	posts, err := h.services.Feed.Load(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, posts)
}

func (h *Handler) feedSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Feed.Snapshot())
}

// feedLive streams the full ordered feed as server-sent events, once now and again after every remote change.
func (h *Handler) feedLive(c *gin.Context) {
	ctx := c.Request.Context()

	// a slow reader only ever needs the latest feed
	updates := make(chan []model.Post, 1)
	deliver := func(posts []model.Post) {
		for {
			select {
			case updates <- posts:
				return
			default:
			}
			select {
			case <-updates:
			default:
			}
		}
	}

	if err := h.services.Feed.Subscribe(ctx, deliver); err != nil {
		respondError(c, err)
		return
	}

	c.Stream(func(w io.Writer) bool {
		select {
		case posts := <-updates:
			c.SSEvent("feed", posts)
			return true
		case <-ctx.Done():
			return false
		}
	})
}
