package domain

import "time"

// Client is a customer followed by a commercial collaborator.
type Client struct {
	ID                  int64
	FullName            string
	Email               string
	Phone               string
	CompanyName         string
	CreatedAt           time.Time
	LastContactAt       *time.Time
	CommercialContactID *int64
}
