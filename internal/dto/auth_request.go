package dto

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type SignUpRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	DisplayName     string `json:"display_name" validate:"max=64"`
}

type FederatedSignInRequest struct {
	ProviderID string `json:"provider_id" validate:"required"`
	// Credential is the provider's ID token returned by the popup flow; empty when the popup was closed.
	Credential string `json:"credential"`
	// Error is the provider-side failure reported by the popup, if any.
	Error string `json:"error"`
}
