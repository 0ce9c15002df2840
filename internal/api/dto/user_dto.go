package dto

import (
	"time"

	"github.com/spec-kit/crm/internal/domain"
)

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionResponse describes a session opened by the CLI.
type SessionResponse struct {
	Collaborator CollaboratorResponse `json:"collaborator"`
	ExpiresAt    time.Time            `json:"expires_at"`
}

// CollaboratorResponse is the public view of a user. The password hash never leaves the server.
type CollaboratorResponse struct {
	ID             int64     `json:"id"`
	EmployeeNumber string    `json:"employee_number"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Department     string    `json:"department"`
	Role           string    `json:"role"`
	PermissionSet  *string   `json:"permission_set"`
	Permissions    []string  `json:"permissions,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// FromUser builds the public view of user.
func FromUser(user *domain.User) CollaboratorResponse {
	resp := CollaboratorResponse{
		ID:             user.ID,
		EmployeeNumber: user.EmployeeNumber,
		Name:           user.Name,
		Email:          user.Email,
		Department:     user.Department,
		Role:           string(user.Role),
		CreatedAt:      user.CreatedAt,
	}
	if user.PermissionSet != nil {
		name := user.PermissionSet.Name
		resp.PermissionSet = &name
		resp.Permissions = user.PermissionSet.Tokens()
	}
	return resp
}

// FromUsers maps a list of users.
func FromUsers(users []domain.User) []CollaboratorResponse {
	out := make([]CollaboratorResponse, len(users))
	for i := range users {
		out[i] = FromUser(&users[i])
	}
	return out
}

// RoleResponse is the view of a permission set.
type RoleResponse struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// FromPermissionSet maps a permission set.
func FromPermissionSet(set *domain.PermissionSet) RoleResponse {
	return RoleResponse{ID: set.ID, Name: set.Name, Permissions: set.Tokens()}
}

// FromPermissionSets maps a list of permission sets.
func FromPermissionSets(sets []domain.PermissionSet) []RoleResponse {
	out := make([]RoleResponse, len(sets))
	for i := range sets {
		out[i] = FromPermissionSet(&sets[i])
	}
	return out
}
