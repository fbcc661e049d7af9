package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/PhotoSocial/feed-client/internal/dto"
	"github.com/PhotoSocial/feed-client/internal/model"
	"github.com/PhotoSocial/feed-client/internal/repository"
	"github.com/PhotoSocial/feed-client/internal/repository/identity"
	"github.com/PhotoSocial/feed-client/pkg/utils"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type sessionService struct {
	logger      *zap.Logger
	repo        *repository.Repository
	validate    *validator.Validate
	profiles    Profile
	timeout     time.Duration
	tokenSecret []byte

	mu          sync.RWMutex
	current     *model.Session
	expiry      *time.Timer
	subscribers map[int]func(session *model.Session)
	nextSubID   int
}

func newSessionService(logger *zap.Logger, repo *repository.Repository, validate *validator.Validate, profiles Profile, timeout time.Duration, tokenSecret []byte) *sessionService {
	return &sessionService{
		logger:      logger,
		repo:        repo,
		validate:    validate,
		profiles:    profiles,
		timeout:     timeout,
		tokenSecret: tokenSecret,
		subscribers: make(map[int]func(session *model.Session)),
	}
}

func (s *sessionService) SignIn(ctx context.Context, email string, password string) (*model.Session, error) {
	input := dto.SignInRequest{
		Email:    strings.TrimSpace(email),
		Password: password,
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cred, err := s.repo.Identity.SignInWithPassword(callCtx, input.Email, input.Password)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrEmailNotFound):
			return nil, &AuthError{Code: AuthUserNotFound, Err: err}
		case errors.Is(err, identity.ErrInvalidCredential):
			return nil, &AuthError{Code: AuthInvalidCredential, Err: err}
		}
		s.logger.Sugar().Errorf("failed to sign in user(%s): %s", input.Email, err.Error())
		return nil, &AuthError{Code: AuthNetwork, Err: remoteFailure(err)}
	}

	return s.establish(ctx, cred), nil
}

// SignUp creates the account and its profile document, then signs the new user in.
func (s *sessionService) SignUp(ctx context.Context, input dto.SignUpRequest) (*model.Session, error) {
	input.Email = strings.TrimSpace(input.Email)
	input.DisplayName = strings.TrimSpace(input.DisplayName)
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cred, err := s.repo.Identity.SignUp(callCtx, input.Email, input.Password, input.DisplayName)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrEmailExists):
			return nil, &AuthError{Code: AuthEmailAlreadyInUse, Err: err}
		case errors.Is(err, identity.ErrWeakPassword):
			return nil, &ValidationError{Field: "password", Message: "is too weak"}
		case errors.Is(err, identity.ErrInvalidCredential):
			return nil, &ValidationError{Field: "email", Message: "must be a valid email address"}
		}
		s.logger.Sugar().Errorf("failed to sign up user(%s): %s", input.Email, err.Error())
		return nil, &AuthError{Code: AuthNetwork, Err: remoteFailure(err)}
	}

	return s.establish(ctx, cred), nil
}

// SignInWithFederatedProvider completes a provider popup flow. An empty credential means the popup was dismissed.
func (s *sessionService) SignInWithFederatedProvider(ctx context.Context, input dto.FederatedSignInRequest) (*model.Session, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}

	switch strings.ToLower(strings.TrimSpace(input.Error)) {
	case "":
	case "popup-blocked", "popup_blocked":
		return nil, &AuthError{Code: AuthPopupBlocked}
	case "popup-closed", "popup_closed", "popup-closed-by-user", "cancelled-popup-request":
		return nil, &AuthError{Code: AuthPopupClosed}
	default:
		return nil, &AuthError{Code: AuthInvalidCredential, Err: errors.New(input.Error)}
	}
	if input.Credential == "" {
		return nil, &AuthError{Code: AuthPopupClosed}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cred, err := s.repo.Identity.SignInWithIdp(callCtx, input.ProviderID, input.Credential)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrPopupBlocked):
			return nil, &AuthError{Code: AuthPopupBlocked, Err: err}
		case errors.Is(err, identity.ErrAccountExists):
			return nil, &AuthError{Code: AuthAccountExistsDifferent, Err: err}
		case errors.Is(err, identity.ErrInvalidCredential), errors.Is(err, identity.ErrTokenExpired):
			return nil, &AuthError{Code: AuthInvalidCredential, Err: err}
		}
		s.logger.Sugar().Errorf("failed to sign in with provider(%s): %s", input.ProviderID, err.Error())
		return nil, &AuthError{Code: AuthNetwork, Err: remoteFailure(err)}
	}

	return s.establish(ctx, cred), nil
}

// SignOut revokes the session remotely. On failure the session is kept.
func (s *sessionService) SignOut(ctx context.Context) error {
	s.mu.RLock()
	current := s.current
	s.mu.RUnlock()

	if current == nil {
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.repo.Identity.SignOut(callCtx, current.IDToken); err != nil && !errors.Is(err, identity.ErrTokenExpired) {
		s.logger.Sugar().Errorf("failed to sign out user(%s): %s", current.UserID, err.Error())
		return &AuthError{Code: AuthNetwork, Err: remoteFailure(err)}
	}

	s.clear(current)

	return nil
}

// RefreshProfile re-reads the profile document of the signed-in user.
func (s *sessionService) RefreshProfile(ctx context.Context) (*model.Session, error) {
	s.mu.RLock()
	current := s.current
	s.mu.RUnlock()

	if current == nil {
		return nil, ErrNotSignedIn
	}

	profile, err := s.profiles.FindByID(ctx, current.UserID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.current != current {
		s.mu.Unlock()
		return nil, ErrNotSignedIn
	}
	current.Profile = profile
	next := current.Clone()
	s.mu.Unlock()

	s.notify(next)

	return next, nil
}

func (s *sessionService) Current() (*model.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil, false
	}
	return s.current.Clone(), true
}

// Subscribe calls fn on every session transition; a nil session means signed out.
func (s *sessionService) Subscribe(fn func(session *model.Session)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

func (s *sessionService) establish(ctx context.Context, cred *identity.Credential) *model.Session {
	session := &model.Session{
		UserID:       cred.UserID,
		Email:        cred.Email,
		DisplayName:  cred.DisplayName,
		AvatarURL:    cred.PhotoURL,
		IDToken:      cred.IDToken,
		RefreshToken: cred.RefreshToken,
		ExpiresAt:    s.expiresAt(cred),
	}
	session.Profile = s.loadProfile(ctx, cred)

	s.mu.Lock()
	if s.expiry != nil {
		s.expiry.Stop()
	}
	s.current = session
	s.expiry = time.AfterFunc(time.Until(session.ExpiresAt), func() {
		s.logger.Sugar().Infof("session of user(%s) expired", session.UserID)
		s.clear(session)
	})
	snapshot := session.Clone()
	s.mu.Unlock()

	s.notify(snapshot)

	return snapshot
}

func (s *sessionService) expiresAt(cred *identity.Credential) time.Time {
	exp, err := utils.ExpiresAt(cred.IDToken, s.tokenSecret)
	if err == nil {
		return exp
	}

	s.logger.Sugar().Debugf("failed to read expiry of user(%s) token, using expires_in: %s", cred.UserID, err.Error())
	return time.Now().Add(cred.ExpiresIn)
}

// loadProfile never fails a sign-in. A missing profile document is created from the credential.
func (s *sessionService) loadProfile(ctx context.Context, cred *identity.Credential) *model.Profile {
	profile, err := s.profiles.FindByID(ctx, cred.UserID)
	if err == nil {
		return profile
	}
	if !errors.Is(err, ErrProfileNotFound) {
		s.logger.Sugar().Errorf("failed to fetch profile of user(%s), continuing without it: %s", cred.UserID, err.Error())
		return nil
	}

	profile = &model.Profile{
		ID:          cred.UserID,
		Email:       cred.Email,
		DisplayName: cred.DisplayName,
		AvatarURL:   cred.PhotoURL,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.profiles.Create(ctx, *profile); err != nil {
		s.logger.Sugar().Errorf("failed to create profile of user(%s), continuing without it: %s", cred.UserID, err.Error())
		return nil
	}

	return profile
}

// clear signs out expected, unless another sign-in has replaced it meanwhile.
func (s *sessionService) clear(expected *model.Session) {
	s.mu.Lock()
	if s.current != expected {
		s.mu.Unlock()
		return
	}
	if s.expiry != nil {
		s.expiry.Stop()
		s.expiry = nil
	}
	s.current = nil
	s.mu.Unlock()

	s.notify(nil)
}

func (s *sessionService) notify(session *model.Session) {
	s.mu.RLock()
	subscribers := make([]func(session *model.Session), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subscribers = append(subscribers, fn)
	}
	s.mu.RUnlock()

	for _, fn := range subscribers {
		if session == nil {
			fn(nil)
			continue
		}
		fn(session.Clone())
	}
}
