package service

import (
	"context"
	"errors"

	"github.com/spec-kit/crm/internal/events"
	"github.com/spec-kit/crm/internal/repository"
	apperrors "github.com/spec-kit/crm/pkg/util"
)

// mapRepoError converts repository failures into domain errors for resource.
func mapRepoError(err error, resource string, id any) error {
	var domainErr *apperrors.DomainError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &domainErr):
		return err
	case errors.Is(err, repository.ErrNotFound):
		var details map[string]any
		if id != nil {
			details = map[string]any{"id": id}
		}
		return apperrors.NewNotFound(resource, details)
	case errors.Is(err, repository.ErrAlreadyExists):
		return apperrors.NewConflict(resource+" already exists", nil)
	case errors.Is(err, repository.ErrInvalidReference):
		return apperrors.NewValidationError(resource+" references a record that does not exist", nil)
	default:
		return apperrors.NewInternalError(err)
	}
}

// publish sends an audit event; failures of audit handlers never fail the write.
func publish(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	_ = dispatcher.Publish(ctx, event)
}
