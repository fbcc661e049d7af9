package handler

import (
	"errors"
	"net/http"

	"github.com/PhotoSocial/feed-client/internal/dto"
	"github.com/PhotoSocial/feed-client/internal/service"
	"github.com/gin-gonic/gin"
)

var (
	errNotAuthorized   = errors.New("user is not authorized")
	errSessionMismatch = errors.New("token does not belong to the current session")
	errInvalidPostID   = errors.New("invalid post ID")
	errInvalidUserID   = errors.New("invalid user ID")
	errImageRequired   = errors.New("image file is required")
)

// respondError writes err with the status the UI needs to place it: inline, banner or sign-in prompt.
func respondError(c *gin.Context, err error) {
	var (
		validationErr    *service.ValidationError
		authErr          *service.AuthError
		authorizationErr *service.AuthorizationError
		uploadErr        *service.UploadError
		syncErr          *service.SyncError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(validationErr.Error(), validationErr.Field, ""))
	case errors.As(err, &authorizationErr):
		c.JSON(http.StatusForbidden, dto.NewBasicResponse(false, authorizationErr.Error()))
	case errors.Is(err, service.ErrNotSignedIn):
		c.JSON(http.StatusUnauthorized, dto.NewBasicResponse(false, err.Error()))
	case errors.Is(err, service.ErrPostNotFound), errors.Is(err, service.ErrUploadNotFound), errors.Is(err, service.ErrProfileNotFound):
		c.JSON(http.StatusNotFound, dto.NewBasicResponse(false, err.Error()))
	case errors.Is(err, service.ErrAlreadyLiked),
		errors.Is(err, service.ErrNotLiked),
		errors.Is(err, service.ErrPostPending),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrUploadCanceled),
		errors.Is(err, service.ErrSelfFollow):
		c.JSON(http.StatusConflict, dto.NewBasicResponse(false, err.Error()))
	case errors.As(err, &authErr):
		status := http.StatusUnauthorized
		if authErr.Code == service.AuthNetwork {
			status = gatewayStatus(err)
		}
		c.JSON(status, dto.NewErrorResponse(authErr.Error(), "", string(authErr.Code)))
	case errors.As(err, &uploadErr):
		status := http.StatusBadRequest
		if uploadErr.Code != service.UploadInvalidFormat {
			status = gatewayStatus(err)
		}
		c.JSON(status, dto.NewErrorResponse(uploadErr.Error(), "image", string(uploadErr.Code)))
	case errors.As(err, &syncErr):
		c.JSON(gatewayStatus(err), dto.NewBasicResponse(false, syncErr.Error()))
	case errors.Is(err, service.ErrNetworkTimeout):
		c.JSON(http.StatusGatewayTimeout, dto.NewBasicResponse(false, err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, dto.NewBasicResponse(false, err.Error()))
	}
}

func gatewayStatus(err error) int {
	if errors.Is(err, service.ErrNetworkTimeout) {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}
