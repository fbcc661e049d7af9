package handler

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/PhotoSocial/feed-client/internal/dto"
	"github.com/PhotoSocial/feed-client/internal/model"
	"github.com/gin-gonic/gin"
)

func (h *Handler) uploadsSelect(c *gin.Context) {
	file, fileHeader, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(errImageRequired.Error(), "image", ""))
		return
	}
	defer file.Close()

	job, err := h.services.Upload.Select(c.Request.Context(), fileHeader.Filename, file)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, job)
}

// replaceEditor stands in for an external editing surface that has already produced the edited image.
type replaceEditor struct {
	filename string
	data     []byte
}

func (e replaceEditor) Edit(ctx context.Context, image model.Image) (model.Image, error) {
	filename := e.filename
	if filename == "" {
		filename = image.Filename
	}
	return model.Image{Filename: filename, Data: e.data}, nil
}

func (h *Handler) uploadsEdit(c *gin.Context) {
	file, fileHeader, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(errImageRequired.Error(), "image", ""))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(err.Error(), "image", ""))
		return
	}

	editor := replaceEditor{filename: fileHeader.Filename, data: data}

	job, err := h.services.Upload.Edit(c.Request.Context(), jobIDParam(c), editor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

func (h *Handler) uploadsCommit(c *gin.Context) {
	jobID := jobIDParam(c)

	url, err := h.services.Upload.Commit(c.Request.Context(), jobID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.UploadCommitResponse{JobID: jobID, URL: url})
}

func (h *Handler) uploadsCancel(c *gin.Context) {
	if err := h.services.Upload.Cancel(jobIDParam(c)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewBasicResponse(true, ""))
}

func jobIDParam(c *gin.Context) string {
	return strings.TrimSpace(c.Param("jobID"))
}
