package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PhotoSocial/feed-client/internal/config"
	"go.uber.org/zap"
)

type restIdentity struct {
	logger     *zap.Logger
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

func NewREST(logger *zap.Logger, cfg config.IdentityConfig, httpClient *http.Client) Identity {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &restIdentity{
		logger:     logger,
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
	}
}

type signInResponse struct {
	LocalID          string `json:"localId"`
	Email            string `json:"email"`
	DisplayName      string `json:"displayName"`
	PhotoURL         string `json:"photoUrl"`
	IDToken          string `json:"idToken"`
	RefreshToken     string `json:"refreshToken"`
	ExpiresIn        string `json:"expiresIn"`
	NeedConfirmation bool   `json:"needConfirmation"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (i *restIdentity) SignInWithPassword(ctx context.Context, email string, password string) (*Credential, error) {
	body := map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}

	var resp signInResponse
	if err := i.do(ctx, "accounts:signInWithPassword", body, &resp); err != nil {
		return nil, err
	}

	return resp.credential(), nil
}

func (i *restIdentity) SignUp(ctx context.Context, email string, password string, displayName string) (*Credential, error) {
	body := map[string]interface{}{
		"email":             email,
		"password":          password,
		"displayName":       displayName,
		"returnSecureToken": true,
	}

	var resp signInResponse
	if err := i.do(ctx, "accounts:signUp", body, &resp); err != nil {
		return nil, err
	}

	if resp.DisplayName == "" {
		resp.DisplayName = displayName
	}

	return resp.credential(), nil
}

func (i *restIdentity) SignInWithIdp(ctx context.Context, providerID string, idToken string) (*Credential, error) {
	postBody := url.Values{}
	postBody.Set("id_token", idToken)
	postBody.Set("providerId", providerID)

	body := map[string]interface{}{
		"postBody":            postBody.Encode(),
		"requestUri":          "http://localhost",
		"returnSecureToken":   true,
		"returnIdpCredential": true,
	}

	var resp signInResponse
	if err := i.do(ctx, "accounts:signInWithIdp", body, &resp); err != nil {
		return nil, err
	}

	if resp.NeedConfirmation {
		return nil, ErrAccountExists
	}

	return resp.credential(), nil
}

func (i *restIdentity) SignOut(ctx context.Context, idToken string) error {
	body := map[string]interface{}{
		"idToken": idToken,
	}

	return i.do(ctx, "accounts:signOut", body, nil)
}

func (i *restIdentity) do(ctx context.Context, method string, payload interface{}, out interface{}) error {
	endpoint := "/v1/" + method
	reqURL := i.endpoint + endpoint
	if i.apiKey != "" {
		reqURL += "?key=" + url.QueryEscape(i.apiKey)
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payloadJSON))
	if err != nil {
		i.logger.Sugar().Errorf("failed to create request to identity service: %s", err.Error())
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		var errBody errorResponse
		if err := json.Unmarshal(body, &errBody); err != nil {
			i.logger.Sugar().Errorf("failed to decode error response from identity service: %s", err.Error())
			return fmt.Errorf("%w: status %d", ErrUnexpectedResponse, resp.StatusCode)
		}
		i.logger.Sugar().Debugf("identity service endpoint(%s) rejected request: %s", endpoint, errBody.Error.Message)
		return mapErrorMessage(errBody.Error.Message, resp.StatusCode)
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(body, out); err != nil {
		i.logger.Sugar().Errorf("failed to decode response body from identity service: %s", err.Error())
		return fmt.Errorf("%w: %s", ErrUnexpectedResponse, err.Error())
	}

	return nil
}

// mapErrorMessage turns identity-toolkit style error messages ("EMAIL_NOT_FOUND", "WEAK_PASSWORD : ...") into sentinels.
func mapErrorMessage(message string, status int) error {
	code := message
	if idx := strings.Index(code, " "); idx >= 0 {
		code = code[:idx]
	}

	switch code {
	case "EMAIL_NOT_FOUND", "USER_NOT_FOUND":
		return ErrEmailNotFound
	case "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "INVALID_EMAIL", "USER_DISABLED", "INVALID_IDP_RESPONSE":
		return ErrInvalidCredential
	case "EMAIL_EXISTS":
		return ErrEmailExists
	case "WEAK_PASSWORD":
		return ErrWeakPassword
	case "POPUP_BLOCKED":
		return ErrPopupBlocked
	case "FEDERATED_USER_ID_ALREADY_LINKED", "ACCOUNT_EXISTS_WITH_DIFFERENT_CREDENTIAL":
		return ErrAccountExists
	case "TOKEN_EXPIRED", "INVALID_ID_TOKEN":
		return ErrTokenExpired
	}

	return fmt.Errorf("%w: status %d: %s", ErrUnexpectedResponse, status, message)
}

func (r signInResponse) credential() *Credential {
	expiresIn := time.Hour
	if seconds, err := strconv.Atoi(r.ExpiresIn); err == nil && seconds > 0 {
		expiresIn = time.Duration(seconds) * time.Second
	}

	return &Credential{
		UserID:       r.LocalID,
		Email:        r.Email,
		DisplayName:  r.DisplayName,
		PhotoURL:     r.PhotoURL,
		IDToken:      r.IDToken,
		RefreshToken: r.RefreshToken,
		ExpiresIn:    expiresIn,
	}
}
