package model

import "time"

// Session is the signed-in identity. A nil *Session means signed out.
type Session struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	AvatarURL    string    `json:"avatar_url"`
	IDToken      string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
	Profile      *Profile  `json:"profile"`
}

// Name is the best-known display name for posts authored in this session.
func (s Session) Name() string {
	if s.Profile != nil && s.Profile.DisplayName != "" {
		return s.Profile.DisplayName
	}
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.Email
}

func (s Session) Clone() *Session {
	if s.Profile != nil {
		profile := *s.Profile
		s.Profile = &profile
	}
	return &s
}
