package auth

import "github.com/shivshakti/boutique-backend/internal/users"

type SendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type SignupRequest struct {
	Name     string  `json:"name" validate:"required"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required"`
	Phone    *string `json:"phone,omitempty"`
	OTP      string  `json:"otp" validate:"required"`
}

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type GoogleLoginRequest struct {
	Token string `json:"token" validate:"required"`
}

// LoginResponse contains the tokens and user produced by a successful authentication.
type LoginResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	User         *users.UserDTO `json:"user"`
}
