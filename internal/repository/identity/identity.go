package identity

import (
	"context"
	"errors"
	"time"
)

var (
	ErrEmailNotFound      = errors.New("email not found")
	ErrInvalidCredential  = errors.New("invalid credential")
	ErrEmailExists        = errors.New("email already exists")
	ErrWeakPassword       = errors.New("weak password")
	ErrPopupBlocked       = errors.New("federated provider popup blocked")
	ErrAccountExists      = errors.New("account exists with different credential")
	ErrTokenExpired       = errors.New("token expired")
	ErrUnexpectedResponse = errors.New("unexpected response from identity service")
)

// Credential is what the identity service returns after any successful sign-in.
type Credential struct {
	UserID       string
	Email        string
	DisplayName  string
	PhotoURL     string
	IDToken      string
	RefreshToken string
	ExpiresIn    time.Duration
}

type Identity interface {
	SignInWithPassword(ctx context.Context, email string, password string) (*Credential, error)
	SignUp(ctx context.Context, email string, password string, displayName string) (*Credential, error)
	SignInWithIdp(ctx context.Context, providerID string, idToken string) (*Credential, error)
	SignOut(ctx context.Context, idToken string) error
}
