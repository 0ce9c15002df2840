package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/crm/internal/domain"
	"github.com/spec-kit/crm/internal/events"
	"github.com/spec-kit/crm/internal/repository"
	apperrors "github.com/spec-kit/crm/pkg/util"
)

// BootstrapService provisions an empty installation.
type BootstrapService struct {
	users         repository.UserRepository
	roles         *RoleService
	collaborators *CollaboratorService
	dispatcher    events.Dispatcher
	logger        *zap.Logger
}

// NewBootstrapService constructs the service.
func NewBootstrapService(users repository.UserRepository, roles *RoleService, collaborators *CollaboratorService, dispatcher events.Dispatcher, logger *zap.Logger) *BootstrapService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BootstrapService{users: users, roles: roles, collaborators: collaborators, dispatcher: dispatcher, logger: logger}
}

// Bootstrap seeds the default role catalog and creates the first MANAGEMENT
// collaborator. It refuses to run once any collaborator exists.
func (s *BootstrapService) Bootstrap(ctx context.Context, input CollaboratorInput) (*domain.User, error) {
	count, err := s.users.Count(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if count > 0 {
		return nil, apperrors.NewConflict("installation already bootstrapped: log in as a MANAGEMENT collaborator instead", nil)
	}

	if _, err := s.roles.Seed(ctx, DefaultCatalog()); err != nil {
		return nil, err
	}

	input.Role = domain.RoleManagement
	input.PermissionSet = string(domain.RoleManagement)
	user, err := s.collaborators.build(ctx, input)
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, mapRepoError(err, "collaborator", nil)
	}

	s.logger.Info("bootstrap collaborator created", zap.Int64("user_id", user.ID))
	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventCollaboratorCreated,
		EntityID: user.ID,
		Payload:  events.CollaboratorCreatedPayload{Email: user.Email, Role: string(user.Role)},
	})
	return user, nil
}
