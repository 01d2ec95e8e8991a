package dto

import "github.com/hms-go/hms-api/internal/models"

// CreateUserRequest provisions an application user. AssignedHostels only
// applies to wardens.
type CreateUserRequest struct {
	Username        string          `json:"username" validate:"required,min=3"`
	Email           string          `json:"email" validate:"required,email"`
	Password        string          `json:"password" validate:"required,min=8"`
	FullName        string          `json:"full_name" validate:"required"`
	Role            models.UserRole `json:"role" validate:"required,oneof=ADMIN PROHOST WARDEN STAFF"`
	AssignedHostels []string        `json:"assignedHostels"`
}

// UpdateUserRequest carries partial user updates; nil fields are left
// untouched.
type UpdateUserRequest struct {
	Email           *string          `json:"email,omitempty" validate:"omitempty,email"`
	FullName        *string          `json:"full_name,omitempty"`
	Role            *models.UserRole `json:"role,omitempty" validate:"omitempty,oneof=ADMIN PROHOST WARDEN STAFF"`
	AssignedHostels *[]string        `json:"assignedHostels,omitempty"`
	Active          *bool            `json:"active,omitempty"`
}

// UserListResponse wraps a user page with pagination metadata.
type UserListResponse struct {
	Users      []models.User     `json:"users"`
	Pagination models.Pagination `json:"pagination"`
}
