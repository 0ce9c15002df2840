package domain

import "time"

// IssuedToken describes a session token handed out at login.
type IssuedToken struct {
	Token     string
	SubjectID int64
	ExpiresAt time.Time
}
