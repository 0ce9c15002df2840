package events

import "time"

// EventType enumerates supported audit event identifiers.
type EventType string

const (
	EventSessionOpened       EventType = "session_opened"
	EventSessionClosed       EventType = "session_closed"
	EventClientCreated       EventType = "client_created"
	EventContractCreated     EventType = "contract_created"
	EventContractSigned      EventType = "contract_signed"
	EventEventCreated        EventType = "event_created"
	EventCollaboratorCreated EventType = "collaborator_created"
)

// AllTypes lists every event type, in publication order of a typical session.
var AllTypes = []EventType{
	EventSessionOpened,
	EventClientCreated,
	EventContractCreated,
	EventContractSigned,
	EventEventCreated,
	EventCollaboratorCreated,
	EventSessionClosed,
}

// Event represents an audit record emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	ActorID   int64     `json:"actor_id,omitempty"`
	EntityID  int64     `json:"entity_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// SessionPayload accompanies session events.
type SessionPayload struct {
	Email     string     `json:"email,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// ClientCreatedPayload payload.
type ClientCreatedPayload struct {
	FullName    string `json:"full_name"`
	CompanyName string `json:"company_name"`
}

// ContractPayload payload.
type ContractPayload struct {
	ClientID        int64   `json:"client_id"`
	TotalAmount     float64 `json:"total_amount"`
	AmountRemaining float64 `json:"amount_remaining"`
}

// EventCreatedPayload payload.
type EventCreatedPayload struct {
	ContractID int64     `json:"contract_id"`
	StartDate  time.Time `json:"start_date"`
	Location   string    `json:"location"`
}

// CollaboratorCreatedPayload payload.
type CollaboratorCreatedPayload struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}
