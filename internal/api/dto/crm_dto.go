package dto

import (
	"time"

	"github.com/spec-kit/crm/internal/domain"
)

// CreateClientRequest payload.
type CreateClientRequest struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	CompanyName string `json:"company_name"`
}

// ClientResponse view of a client.
type ClientResponse struct {
	ID                  int64      `json:"id"`
	FullName            string     `json:"full_name"`
	Email               string     `json:"email"`
	Phone               string     `json:"phone"`
	CompanyName         string     `json:"company_name"`
	CreatedAt           time.Time  `json:"created_at"`
	LastContactAt       *time.Time `json:"last_contact_at"`
	CommercialContactID *int64     `json:"commercial_contact_id"`
}

// FromClient maps a client.
func FromClient(c *domain.Client) ClientResponse {
	return ClientResponse{
		ID:                  c.ID,
		FullName:            c.FullName,
		Email:               c.Email,
		Phone:               c.Phone,
		CompanyName:         c.CompanyName,
		CreatedAt:           c.CreatedAt,
		LastContactAt:       c.LastContactAt,
		CommercialContactID: c.CommercialContactID,
	}
}

// FromClients maps a list of clients.
func FromClients(clients []domain.Client) []ClientResponse {
	out := make([]ClientResponse, len(clients))
	for i := range clients {
		out[i] = FromClient(&clients[i])
	}
	return out
}

// ContractResponse view of a contract.
type ContractResponse struct {
	ID              int64     `json:"id"`
	ClientID        int64     `json:"client_id"`
	CommercialID    *int64    `json:"commercial_id"`
	TotalAmount     float64   `json:"total_amount"`
	AmountRemaining float64   `json:"amount_remaining"`
	Signed          bool      `json:"signed"`
	CreatedAt       time.Time `json:"created_at"`
}

// FromContract maps a contract.
func FromContract(c *domain.Contract) ContractResponse {
	return ContractResponse{
		ID:              c.ID,
		ClientID:        c.ClientID,
		CommercialID:    c.CommercialID,
		TotalAmount:     c.TotalAmount,
		AmountRemaining: c.AmountRemaining,
		Signed:          c.Signed,
		CreatedAt:       c.CreatedAt,
	}
}

// FromContracts maps a list of contracts.
func FromContracts(contracts []domain.Contract) []ContractResponse {
	out := make([]ContractResponse, len(contracts))
	for i := range contracts {
		out[i] = FromContract(&contracts[i])
	}
	return out
}

// EventResponse view of an event.
type EventResponse struct {
	ID               int64     `json:"id"`
	ContractID       int64     `json:"contract_id"`
	ClientName       string    `json:"client_name"`
	ClientContact    string    `json:"client_contact"`
	StartDate        time.Time `json:"start_date"`
	EndDate          time.Time `json:"end_date"`
	SupportContactID *int64    `json:"support_contact_id"`
	Location         string    `json:"location"`
	Attendees        int       `json:"attendees"`
	Notes            string    `json:"notes"`
}

// FromEvent maps an event.
func FromEvent(e *domain.Event) EventResponse {
	return EventResponse{
		ID:               e.ID,
		ContractID:       e.ContractID,
		ClientName:       e.ClientName,
		ClientContact:    e.ClientContact,
		StartDate:        e.StartDate,
		EndDate:          e.EndDate,
		SupportContactID: e.SupportContactID,
		Location:         e.Location,
		Attendees:        e.Attendees,
		Notes:            e.Notes,
	}
}

// FromEvents maps a list of events.
func FromEvents(list []domain.Event) []EventResponse {
	out := make([]EventResponse, len(list))
	for i := range list {
		out[i] = FromEvent(&list[i])
	}
	return out
}
