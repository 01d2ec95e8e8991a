package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user. Login accepts
// an email address or a username.
type LoginRequest struct {
	Login     string `json:"login" validate:"required"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued tokens and user info.
type LoginResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	User         UserInfo  `json:"user"`
	IssuedAt     time.Time `json:"issued_at"`
}

// RefreshTokenRequest exchanges a refresh token for a new access token.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
	IP           string `json:"-"`
	UserAgent    string `json:"-"`
}

// RefreshTokenResponse returns the refreshed tokens.
type RefreshTokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	IssuedAt     time.Time `json:"issued_at"`
}

// ChangePasswordRequest payload for updating password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID              string   `json:"id"`
	Username        string   `json:"username"`
	Email           string   `json:"email"`
	FullName        string   `json:"full_name"`
	Role            UserRole `json:"role"`
	AssignedHostels []string `json:"assignedHostels,omitempty"`
}

// JWTClaims represents the JWT payload for access tokens. Assigned hostels
// ride in the token so warden scoping works without a user lookup per
// request.
type JWTClaims struct {
	UserID          string   `json:"user_id"`
	Username        string   `json:"username"`
	Role            UserRole `json:"role"`
	Email           string   `json:"email"`
	FullName        string   `json:"full_name"`
	AssignedHostels []string `json:"assigned_hostels,omitempty"`
	jwt.RegisteredClaims
}
