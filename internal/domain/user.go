package domain

import "time"

// User is a collaborator of the company and the identity behind every session.
type User struct {
	ID             int64
	EmployeeNumber string
	Name           string
	Email          string
	PasswordHash   string
	Department     string
	Role           Role

	// PermissionSetID links the collaborator to a row of the roles table for
	// fine-grained permission checks. Nil when no permission set is assigned.
	PermissionSetID *int64
	PermissionSet   *PermissionSet

	CreatedAt time.Time
	UpdatedAt time.Time
}
