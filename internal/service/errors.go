package service

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrInternal          = errors.New("internal error")
	ErrPostNotFound      = errors.New("post not found")
	ErrPostPending       = errors.New("post is still being published")
	ErrAlreadyLiked      = errors.New("post is already liked by this user")
	ErrNotLiked          = errors.New("post is not liked by this user")
	ErrNotSignedIn       = errors.New("user is not signed in")
	ErrNetworkTimeout    = errors.New("remote call timed out")
	ErrInvalidTransition = errors.New("invalid interaction transition")
	ErrUploadNotFound    = errors.New("upload not found")
	ErrUploadCanceled    = errors.New("upload was canceled")
	ErrProfileNotFound   = errors.New("profile not found")
	ErrSelfFollow        = errors.New("users cannot follow themselves")
)

type AuthErrorCode string

const (
	AuthInvalidCredential      AuthErrorCode = "invalid-credential"
	AuthUserNotFound           AuthErrorCode = "user-not-found"
	AuthNetwork                AuthErrorCode = "network"
	AuthPopupClosed            AuthErrorCode = "popup-closed"
	AuthPopupBlocked           AuthErrorCode = "popup-blocked"
	AuthAccountExistsDifferent AuthErrorCode = "account-exists-different-credential"
	AuthEmailAlreadyInUse      AuthErrorCode = "email-already-in-use"
)

type AuthError struct {
	Code AuthErrorCode
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth error (%s): %s", e.Code, e.Err.Error())
	}
	return fmt.Sprintf("auth error (%s)", e.Code)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// ValidationError is raised before any remote call; Field names the offending input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

type AuthorizationError struct {
	ActorID string
	PostID  string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("user(%s) is not allowed to delete post(%s)", e.ActorID, e.PostID)
}

type UploadErrorCode string

const (
	UploadNetwork       UploadErrorCode = "network"
	UploadStorageQuota  UploadErrorCode = "storage-quota"
	UploadInvalidFormat UploadErrorCode = "invalid-format"
)

type UploadError struct {
	Code UploadErrorCode
	Err  error
}

func (e *UploadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upload error (%s): %s", e.Code, e.Err.Error())
	}
	return fmt.Sprintf("upload error (%s)", e.Code)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// SyncError means a remote write failed after its optimistic local change was applied; the change has been rolled back.
type SyncError struct {
	Op     string
	PostID string
	Err    error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("failed to sync %s of post(%s): %s", e.Op, e.PostID, e.Err.Error())
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// remoteFailure tags deadline expiry as ErrNetworkTimeout and passes other errors through.
func remoteFailure(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrNetworkTimeout) {
		return fmt.Errorf("%w: %s", ErrNetworkTimeout, err.Error())
	}
	return err
}

// remoteError hides a backend failure behind ErrInternal unless the call ran out of time.
func remoteError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrNetworkTimeout) {
		return ErrNetworkTimeout
	}
	return ErrInternal
}
