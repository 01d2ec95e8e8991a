package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleProHost UserRole = "PROHOST"
	RoleWarden  UserRole = "WARDEN"
	RoleStaff   UserRole = "STAFF"
)

// User represents an application user stored in the users table. Wardens
// carry the list of hostels they manage; other roles leave it empty.
type User struct {
	ID              string     `db:"id" json:"id"`
	Username        string     `db:"username" json:"username"`
	Email           string     `db:"email" json:"email"`
	PasswordHash    string     `db:"password_hash" json:"-"`
	FullName        string     `db:"full_name" json:"full_name"`
	Role            UserRole   `db:"role" json:"role"`
	AssignedHostels StringList `db:"assigned_hostels" json:"assignedHostels"`
	Active          bool       `db:"active" json:"active"`
	LastLogin       *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// StringList persists a list of strings as JSONB.
type StringList []string

// Value marshals the list to JSON for persistence.
func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		s = StringList{}
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal string list: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the list.
func (s *StringList) Scan(value interface{}) error {
	if value == nil {
		*s = StringList{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for StringList", value)
	}
	if len(data) == 0 {
		*s = StringList{}
		return nil
	}
	if err := json.Unmarshal(data, s); err != nil {
		return fmt.Errorf("unmarshal string list: %w", err)
	}
	return nil
}
