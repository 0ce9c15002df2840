package domain

import "time"

// Contract binds a client to an amount owed.
type Contract struct {
	ID              int64
	ClientID        int64
	CommercialID    *int64
	TotalAmount     float64
	AmountRemaining float64
	Signed          bool
	CreatedAt       time.Time
}
