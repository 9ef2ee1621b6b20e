package http

import "github.com/opencivic/streetfix/internal/auth/domain"

type RegisterRequest struct {
	Email    string `json:"email" example:"citizen@example.com"`
	Password string `json:"password" example:"correct-horse-battery"`
	Name     string `json:"name" example:"Sam Citizen"`
}

type LoginRequest struct {
	Email    string `json:"email" example:"citizen@example.com"`
	Password string `json:"password" example:"correct-horse-battery"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type PasswordResetRequest struct {
	Email string `json:"email" example:"citizen@example.com"`
}

type PasswordResetConfirmRequest struct {
	Code        string `json:"code" example:"482913"`
	NewPassword string `json:"new_password"`
}

type VerifyEmailRequest struct {
	Token string `json:"token"`
}

type ResendVerificationRequest struct {
	Email string `json:"email" example:"citizen@example.com"`
}

// TokenResponse carries a session's tokens plus the public view of the
// account they belong to.
type TokenResponse struct {
	AccessToken  string             `json:"access_token"`
	RefreshToken string             `json:"refresh_token"`
	TokenType    string             `json:"token_type" example:"Bearer"`
	ExpiresIn    int64              `json:"expires_in" example:"3600"`
	User         *domain.PublicUser `json:"user,omitempty"`
}

type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

type HealthChecks struct {
	Database string `json:"database" example:"ok"`
	Signer   string `json:"signer" example:"ok"`
}

type HealthResponse struct {
	Status  string        `json:"status" example:"ok"`
	Uptime  string        `json:"uptime" example:"1h2m3s"`
	Version string        `json:"version" example:"0.1.0"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

func newTokenResponse(pair *domain.TokenPair, user *domain.User) TokenResponse {
	pub := user.Public()
	return TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    pair.ExpiresIn,
		User:         &pub,
	}
}
