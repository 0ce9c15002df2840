package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/crm/internal/domain"
	"github.com/spec-kit/crm/internal/events"
	"github.com/spec-kit/crm/internal/repository"
	"github.com/spec-kit/crm/pkg/password"
	apperrors "github.com/spec-kit/crm/pkg/util"
)

// Fine-grained permissions checked by the collaborator service.
const (
	PermissionCreateUser = "create_user"
	PermissionUpdateUser = "update_user"
	PermissionDeleteUser = "delete_user"
)

// CollaboratorService manages collaborators (users).
type CollaboratorService struct {
	users      repository.UserRepository
	roles      repository.RoleRepository
	authz      *AuthorizationService
	hasher     password.Hasher
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// CollaboratorDependencies bundles collaborators of the service.
type CollaboratorDependencies struct {
	UserRepo   repository.UserRepository
	RoleRepo   repository.RoleRepository
	Hasher     password.Hasher
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// CollaboratorInput describes collaborator creation.
type CollaboratorInput struct {
	EmployeeNumber string
	Name           string
	Email          string
	Password       string
	Department     string
	Role           domain.Role
	// PermissionSet names a roles table entry; empty uses the role tag's name.
	PermissionSet string
}

// CollaboratorUpdate lists the fields to change; nil fields are kept.
type CollaboratorUpdate struct {
	Name          *string
	Email         *string
	Department    *string
	Password      *string
	Role          *domain.Role
	PermissionSet *string
}

// NewCollaboratorService constructs the service.
func NewCollaboratorService(deps CollaboratorDependencies) *CollaboratorService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CollaboratorService{
		users:      deps.UserRepo,
		roles:      deps.RoleRepo,
		authz:      NewAuthorizationService(deps.UserRepo),
		hasher:     deps.Hasher,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Create adds a collaborator. The caller needs the create_user permission.
func (s *CollaboratorService) Create(ctx context.Context, callerID int64, input CollaboratorInput) (*domain.User, error) {
	if err := s.authz.CheckPermission(ctx, callerID, PermissionCreateUser); err != nil {
		return nil, err
	}
	user, err := s.build(ctx, input)
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, mapRepoError(err, "collaborator", nil)
	}

	s.logger.Debug("collaborator created", zap.Int64("user_id", user.ID), zap.Int64("caller_id", callerID))
	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventCollaboratorCreated,
		ActorID:  callerID,
		EntityID: user.ID,
		Payload:  events.CollaboratorCreatedPayload{Email: user.Email, Role: string(user.Role)},
	})
	return user, nil
}

// build validates input and assembles an unsaved user with a hashed password.
func (s *CollaboratorService) build(ctx context.Context, input CollaboratorInput) (*domain.User, error) {
	fields := []struct{ value, name string }{
		{input.EmployeeNumber, "employee number"},
		{input.Name, "name"},
		{input.Email, "email"},
		{input.Password, "password"},
		{input.Department, "department"},
	}
	for _, f := range fields {
		if err := apperrors.ValidateNonEmpty(f.value, f.name); err != nil {
			return nil, err
		}
	}
	email := strings.TrimSpace(input.Email)
	if err := apperrors.ValidateEmail(email); err != nil {
		return nil, err
	}
	role, err := parseRole(string(input.Role))
	if err != nil {
		return nil, err
	}

	setName := input.PermissionSet
	if setName == "" {
		setName = string(role)
	}
	set, err := s.resolvePermissionSet(ctx, setName)
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &domain.User{
		EmployeeNumber:  strings.TrimSpace(input.EmployeeNumber),
		Name:            strings.TrimSpace(input.Name),
		Email:           email,
		PasswordHash:    hash,
		Department:      strings.TrimSpace(input.Department),
		Role:            role,
		PermissionSetID: &set.ID,
		PermissionSet:   set,
	}, nil
}

// List returns every collaborator.
func (s *CollaboratorService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, mapRepoError(err, "collaborator", nil)
	}
	return users, nil
}

// Get returns a collaborator by id.
func (s *CollaboratorService) Get(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "collaborator", id)
	}
	return user, nil
}

// Update changes a collaborator. The caller needs the update_user permission.
func (s *CollaboratorService) Update(ctx context.Context, callerID, id int64, update CollaboratorUpdate) (*domain.User, error) {
	if err := s.authz.CheckPermission(ctx, callerID, PermissionUpdateUser); err != nil {
		return nil, err
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		if err := apperrors.ValidateNonEmpty(*update.Name, "name"); err != nil {
			return nil, err
		}
		user.Name = strings.TrimSpace(*update.Name)
	}
	if update.Email != nil {
		email := strings.TrimSpace(*update.Email)
		if err := apperrors.ValidateEmail(email); err != nil {
			return nil, err
		}
		user.Email = email
	}
	if update.Department != nil {
		if err := apperrors.ValidateNonEmpty(*update.Department, "department"); err != nil {
			return nil, err
		}
		user.Department = strings.TrimSpace(*update.Department)
	}
	if update.Password != nil {
		if err := apperrors.ValidateNonEmpty(*update.Password, "password"); err != nil {
			return nil, err
		}
		hash, err := s.hasher.Hash(*update.Password)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		user.PasswordHash = hash
	}
	if update.Role != nil {
		role, err := parseRole(string(*update.Role))
		if err != nil {
			return nil, err
		}
		user.Role = role
	}
	if update.PermissionSet != nil {
		set, err := s.resolvePermissionSet(ctx, *update.PermissionSet)
		if err != nil {
			return nil, err
		}
		user.PermissionSetID = &set.ID
		user.PermissionSet = set
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, mapRepoError(err, "collaborator", id)
	}
	s.logger.Debug("collaborator updated", zap.Int64("user_id", id), zap.Int64("caller_id", callerID))
	return user, nil
}

// Delete removes a collaborator. The caller needs the delete_user permission
// and cannot delete themselves.
func (s *CollaboratorService) Delete(ctx context.Context, callerID, id int64) error {
	if err := s.authz.CheckPermission(ctx, callerID, PermissionDeleteUser); err != nil {
		return err
	}
	if callerID == id {
		return apperrors.NewValidationError("collaborators cannot delete their own account", nil)
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return mapRepoError(err, "collaborator", id)
	}
	s.logger.Debug("collaborator deleted", zap.Int64("user_id", id), zap.Int64("caller_id", callerID))
	return nil
}

func (s *CollaboratorService) resolvePermissionSet(ctx context.Context, name string) (*domain.PermissionSet, error) {
	set, err := s.roles.GetByName(ctx, strings.TrimSpace(name))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewValidationError(fmt.Sprintf("role %q does not exist", name), nil)
		}
		return nil, mapRepoError(err, "role", name)
	}
	return set, nil
}

func parseRole(value string) (domain.Role, error) {
	role, ok := domain.ParseRole(value)
	if !ok {
		return "", apperrors.NewValidationError(
			fmt.Sprintf("role must be one of SALES, MANAGEMENT, SUPPORT (got %q)", value), nil)
	}
	return role, nil
}
