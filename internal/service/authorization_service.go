package service

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spec-kit/crm/internal/auth"
	"github.com/spec-kit/crm/internal/repository"
	apperrors "github.com/spec-kit/crm/pkg/util"
)

// ErrInsufficientPermission is returned when an identity lacks a fine-grained permission.
var ErrInsufficientPermission = apperrors.NewDomainError(apperrors.CodeForbidden,
	"Unauthorized: Missing permission.", http.StatusForbidden, nil)

// AuthorizationService checks fine-grained permissions of stored identities.
type AuthorizationService struct {
	users repository.UserRepository
}

// NewAuthorizationService builds the service.
func NewAuthorizationService(users repository.UserRepository) *AuthorizationService {
	return &AuthorizationService{users: users}
}

// CheckPermission fails unless userID holds permission.
func (s *AuthorizationService) CheckPermission(ctx context.Context, userID int64, permission string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return mapRepoError(err, "user", userID)
	}
	ok, err := auth.HasPermission(user, permission)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NewForbidden(fmt.Sprintf("Unauthorized: Missing permission %q.", permission))
	}
	return nil
}
