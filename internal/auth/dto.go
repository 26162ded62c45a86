package auth

import (
	"github.com/wastetotreasure/w2t-backend/internal/users"
	"github.com/wastetotreasure/w2t-backend/pkg/enums"
)

// RegisterRequest onboards a new marketplace account.
type RegisterRequest struct {
	FirstName string  `json:"first_name" validate:"required"`
	LastName  string  `json:"last_name" validate:"required"`
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=8"`
	Phone     *string `json:"phone,omitempty"`
	// Role is buyer or seller; admin accounts are provisioned out of band.
	Role      enums.MemberRole `json:"role" validate:"required"`
	AcceptTOS bool             `json:"accept_tos"`
}

// LoginRequest carries credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest rotates a refresh token.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// TokenPair is an access/refresh token set.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// LoginResponse is returned on successful login or registration.
type LoginResponse struct {
	TokenPair
	User *users.UserDTO `json:"user"`
}
