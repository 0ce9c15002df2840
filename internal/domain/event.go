package domain

import "time"

// Event is an occurrence organized for a signed contract.
type Event struct {
	ID               int64
	ContractID       int64
	ClientName       string
	ClientContact    string
	StartDate        time.Time
	EndDate          time.Time
	SupportContactID *int64
	Location         string
	Attendees        int
	Notes            string
}
