package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/crm/internal/domain"
	"github.com/spec-kit/crm/internal/repository"
	apperrors "github.com/spec-kit/crm/pkg/util"
)

// RoleService manages permission sets.
type RoleService struct {
	roles  repository.RoleRepository
	logger *zap.Logger
}

// SeedResult counts what Seed changed.
type SeedResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// NewRoleService constructs the service.
func NewRoleService(roles repository.RoleRepository, logger *zap.Logger) *RoleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoleService{roles: roles, logger: logger}
}

// Create adds a permission set.
func (s *RoleService) Create(ctx context.Context, name string, permissions []string) (*domain.PermissionSet, error) {
	if err := apperrors.ValidateNonEmpty(name, "role name"); err != nil {
		return nil, err
	}
	role := &domain.PermissionSet{Name: strings.TrimSpace(name), Permissions: domain.JoinPermissions(permissions)}
	if err := s.roles.Create(ctx, role); err != nil {
		return nil, mapRepoError(err, "role", nil)
	}
	s.logger.Debug("role created", zap.String("name", role.Name))
	return role, nil
}

// GetByName returns a permission set by name.
func (s *RoleService) GetByName(ctx context.Context, name string) (*domain.PermissionSet, error) {
	role, err := s.roles.GetByName(ctx, name)
	if err != nil {
		return nil, mapRepoError(err, "role", name)
	}
	return role, nil
}

// List returns every permission set ordered by name.
func (s *RoleService) List(ctx context.Context) ([]domain.PermissionSet, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, mapRepoError(err, "role", nil)
	}
	return roles, nil
}

// Update renames a permission set and, when permissions is non-nil, replaces its tokens.
func (s *RoleService) Update(ctx context.Context, name string, newName *string, permissions []string) (*domain.PermissionSet, error) {
	role, err := s.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if newName != nil {
		if err := apperrors.ValidateNonEmpty(*newName, "role name"); err != nil {
			return nil, err
		}
		role.Name = strings.TrimSpace(*newName)
	}
	if permissions != nil {
		role.Permissions = domain.JoinPermissions(permissions)
	}
	if err := s.roles.Update(ctx, role); err != nil {
		return nil, mapRepoError(err, "role", name)
	}
	s.logger.Debug("role updated", zap.String("name", role.Name))
	return role, nil
}

// Delete removes a permission set; collaborators holding it lose their fine permissions.
func (s *RoleService) Delete(ctx context.Context, name string) error {
	role, err := s.GetByName(ctx, name)
	if err != nil {
		return err
	}
	if err := s.roles.Delete(ctx, role.ID); err != nil {
		return mapRepoError(err, "role", name)
	}
	s.logger.Debug("role deleted", zap.String("name", name))
	return nil
}

// Seed creates missing catalog roles and overwrites the permissions of existing ones.
func (s *RoleService) Seed(ctx context.Context, catalog *Catalog) (SeedResult, error) {
	var result SeedResult
	for _, entry := range catalog.Roles {
		permissions := domain.JoinPermissions(entry.Permissions)
		existing, err := s.roles.GetByName(ctx, entry.Name)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			if err := s.roles.Create(ctx, &domain.PermissionSet{Name: entry.Name, Permissions: permissions}); err != nil {
				return result, mapRepoError(err, "role", entry.Name)
			}
			result.Created++
		case err != nil:
			return result, mapRepoError(err, "role", entry.Name)
		case existing.Permissions != permissions:
			existing.Permissions = permissions
			if err := s.roles.Update(ctx, existing); err != nil {
				return result, mapRepoError(err, "role", entry.Name)
			}
			result.Updated++
		}
	}
	s.logger.Info("role catalog seeded", zap.Int("created", result.Created), zap.Int("updated", result.Updated))
	return result, nil
}
