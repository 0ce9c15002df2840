package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/crm/internal/domain"
	"github.com/spec-kit/crm/internal/events"
	"github.com/spec-kit/crm/internal/repository"
	apperrors "github.com/spec-kit/crm/pkg/util"
)

// EventService coordinates event workflows.
type EventService struct {
	events     repository.EventRepository
	contracts  repository.ContractRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// EventDependencies bundles repositories for the event service.
type EventDependencies struct {
	EventRepo    repository.EventRepository
	ContractRepo repository.ContractRepository
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// EventInput describes event creation.
type EventInput struct {
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

// EventUpdate lists the fields to change; nil fields are kept.
type EventUpdate struct {
	Location         *string
	StartDate        *time.Time
	EndDate          *time.Time
	SupportContactID *int64
	Attendees        *int
	Notes            *string
}

// NewEventService constructs the service.
func NewEventService(deps EventDependencies) *EventService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{
		events:     deps.EventRepo,
		contracts:  deps.ContractRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Create schedules an event for a signed contract.
func (s *EventService) Create(ctx context.Context, callerID int64, input EventInput) (*domain.Event, error) {
	contract, err := s.contracts.GetByID(ctx, input.ContractID)
	if err != nil {
		return nil, mapRepoError(err, "contract", input.ContractID)
	}
	if !contract.Signed {
		return nil, apperrors.NewValidationError("events can only be created for signed contracts",
			map[string]any{"contract_id": contract.ID})
	}

	event := &domain.Event{
		ContractID:       input.ContractID,
		ClientName:       strings.TrimSpace(input.ClientName),
		ClientContact:    strings.TrimSpace(input.ClientContact),
		StartDate:        input.StartDate,
		EndDate:          input.EndDate,
		SupportContactID: input.SupportContactID,
		Location:         strings.TrimSpace(input.Location),
		Attendees:        input.Attendees,
		Notes:            strings.TrimSpace(input.Notes),
	}
	if err := validateEvent(event); err != nil {
		return nil, err
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, mapRepoError(err, "event", nil)
	}

	s.logger.Debug("event created", zap.Int64("event_id", event.ID), zap.Int64("caller_id", callerID))
	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventEventCreated,
		ActorID:  callerID,
		EntityID: event.ID,
		Payload:  events.EventCreatedPayload{ContractID: event.ContractID, StartDate: event.StartDate, Location: event.Location},
	})
	return event, nil
}

// Get returns an event by id.
func (s *EventService) Get(ctx context.Context, id int64) (*domain.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "event", id)
	}
	return event, nil
}

// List returns events matching filter, earliest first.
func (s *EventService) List(ctx context.Context, filter repository.EventFilter) ([]domain.Event, error) {
	list, err := s.events.List(ctx, filter)
	if err != nil {
		return nil, mapRepoError(err, "event", nil)
	}
	return list, nil
}

// Update applies changes to an existing event.
func (s *EventService) Update(ctx context.Context, callerID, id int64, update EventUpdate) (*domain.Event, error) {
	event, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if update.Location != nil {
		event.Location = strings.TrimSpace(*update.Location)
	}
	if update.StartDate != nil {
		event.StartDate = *update.StartDate
	}
	if update.EndDate != nil {
		event.EndDate = *update.EndDate
	}
	if update.SupportContactID != nil {
		event.SupportContactID = update.SupportContactID
	}
	if update.Attendees != nil {
		event.Attendees = *update.Attendees
	}
	if update.Notes != nil {
		event.Notes = strings.TrimSpace(*update.Notes)
	}
	if err := validateEvent(event); err != nil {
		return nil, err
	}
	if err := s.events.Update(ctx, event); err != nil {
		return nil, mapRepoError(err, "event", id)
	}
	s.logger.Debug("event updated", zap.Int64("event_id", id), zap.Int64("caller_id", callerID))
	return event, nil
}

// Delete removes an event.
func (s *EventService) Delete(ctx context.Context, callerID, id int64) error {
	if err := s.events.Delete(ctx, id); err != nil {
		return mapRepoError(err, "event", id)
	}
	s.logger.Debug("event deleted", zap.Int64("event_id", id), zap.Int64("caller_id", callerID))
	return nil
}

func validateEvent(event *domain.Event) error {
	if err := apperrors.ValidateNonEmpty(event.ClientName, "client name"); err != nil {
		return err
	}
	if err := apperrors.ValidateNonEmpty(event.ClientContact, "client contact"); err != nil {
		return err
	}
	if event.StartDate.IsZero() || event.EndDate.IsZero() {
		return apperrors.NewValidationError("start and end dates are required", nil)
	}
	if event.EndDate.Before(event.StartDate) {
		return apperrors.NewValidationError("end date must not be before start date", nil)
	}
	if event.Attendees < 0 {
		return apperrors.NewValidationError("attendees must not be negative", nil)
	}
	return nil
}
