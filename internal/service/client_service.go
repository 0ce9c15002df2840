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

// ClientService coordinates client workflows.
type ClientService struct {
	clients    repository.ClientRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// ClientInput describes client creation.
type ClientInput struct {
	FullName      string
	Email         string
	Phone         string
	CompanyName   string
	LastContactAt *time.Time
}

// ClientUpdate lists the fields to change; nil fields are kept.
type ClientUpdate struct {
	FullName            *string
	Email               *string
	Phone               *string
	CompanyName         *string
	LastContactAt       *time.Time
	CommercialContactID *int64
}

// NewClientService constructs the service.
func NewClientService(clients repository.ClientRepository, dispatcher events.Dispatcher, logger *zap.Logger) *ClientService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClientService{clients: clients, dispatcher: dispatcher, logger: logger}
}

// Create registers a client followed by the calling collaborator.
func (s *ClientService) Create(ctx context.Context, callerID int64, input ClientInput) (*domain.Client, error) {
	client := &domain.Client{
		FullName:            strings.TrimSpace(input.FullName),
		Email:               strings.TrimSpace(input.Email),
		Phone:               strings.TrimSpace(input.Phone),
		CompanyName:         strings.TrimSpace(input.CompanyName),
		LastContactAt:       input.LastContactAt,
		CommercialContactID: &callerID,
	}
	if err := validateClient(client); err != nil {
		return nil, err
	}
	if err := s.clients.Create(ctx, client); err != nil {
		return nil, mapRepoError(err, "client", nil)
	}

	s.logger.Debug("client created", zap.Int64("client_id", client.ID), zap.Int64("caller_id", callerID))
	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventClientCreated,
		ActorID:  callerID,
		EntityID: client.ID,
		Payload:  events.ClientCreatedPayload{FullName: client.FullName, CompanyName: client.CompanyName},
	})
	return client, nil
}

// Get returns a client by id.
func (s *ClientService) Get(ctx context.Context, id int64) (*domain.Client, error) {
	client, err := s.clients.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "client", id)
	}
	return client, nil
}

// List returns clients matching filter.
func (s *ClientService) List(ctx context.Context, filter repository.ClientFilter) ([]domain.Client, error) {
	clients, err := s.clients.List(ctx, filter)
	if err != nil {
		return nil, mapRepoError(err, "client", nil)
	}
	return clients, nil
}

// Update applies changes to an existing client.
func (s *ClientService) Update(ctx context.Context, callerID, id int64, update ClientUpdate) (*domain.Client, error) {
	client, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if update.FullName != nil {
		client.FullName = strings.TrimSpace(*update.FullName)
	}
	if update.Email != nil {
		client.Email = strings.TrimSpace(*update.Email)
	}
	if update.Phone != nil {
		client.Phone = strings.TrimSpace(*update.Phone)
	}
	if update.CompanyName != nil {
		client.CompanyName = strings.TrimSpace(*update.CompanyName)
	}
	if update.LastContactAt != nil {
		client.LastContactAt = update.LastContactAt
	}
	if update.CommercialContactID != nil {
		client.CommercialContactID = update.CommercialContactID
	}
	if err := validateClient(client); err != nil {
		return nil, err
	}
	if err := s.clients.Update(ctx, client); err != nil {
		return nil, mapRepoError(err, "client", id)
	}
	s.logger.Debug("client updated", zap.Int64("client_id", id), zap.Int64("caller_id", callerID))
	return client, nil
}

// Delete removes a client together with its contracts and events.
func (s *ClientService) Delete(ctx context.Context, callerID, id int64) error {
	if err := s.clients.Delete(ctx, id); err != nil {
		return mapRepoError(err, "client", id)
	}
	s.logger.Debug("client deleted", zap.Int64("client_id", id), zap.Int64("caller_id", callerID))
	return nil
}

func validateClient(client *domain.Client) error {
	if err := apperrors.ValidateNonEmpty(client.FullName, "name"); err != nil {
		return err
	}
	if err := apperrors.ValidateEmail(client.Email); err != nil {
		return err
	}
	if client.Phone != "" {
		if err := apperrors.ValidatePhone(client.Phone); err != nil {
			return err
		}
	}
	return nil
}
