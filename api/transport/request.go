package transport

// LoginRequest carries password-based credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// OAuthCallbackRequest carries the provider callback parameters. Handle is
// only consulted when the flow has to create a brand-new account.
type OAuthCallbackRequest struct {
	Code   string `json:"code"`
	State  string `json:"state"`
	Handle string `json:"handle,omitempty"`
}

// ConfirmEmailRequest carries a signed email-verification token.
type ConfirmEmailRequest struct {
	Token string `json:"token"`
}

// ResetPasswordRequest carries a signed reset token and the replacement
// password.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}
